package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/progress"
	"github.com/felixgeelhaar/learneasy/internal/quiz"
	"github.com/felixgeelhaar/learneasy/internal/runner"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrWrongKind       = errors.New("operation does not apply to this session kind")
)

// Service manages lesson and challenge sessions. Every operation loads
// the session, mutates it and saves it under a single lock.
type Service struct {
	mu        sync.Mutex
	store     SessionStore
	content   ContentSource
	simulator *runner.Simulator
	tracker   *progress.Tracker
	languages *runner.LanguageRegistry
}

// NewService creates a new session service
func NewService(store SessionStore, content ContentSource, simulator *runner.Simulator, tracker *progress.Tracker) *Service {
	languages, _ := runner.NewLanguageRegistry(nil)
	return &Service{
		store:     store,
		content:   content,
		simulator: simulator,
		tracker:   tracker,
		languages: languages,
	}
}

// SetLanguages replaces the set of selectable challenge languages
func (s *Service) SetLanguages(languages *runner.LanguageRegistry) {
	s.languages = languages
}

// Languages returns the selectable challenge languages
func (s *Service) Languages() *runner.LanguageRegistry {
	return s.languages
}

// EvalRequest carries optional editor text to apply before a run or submit
type EvalRequest struct {
	Code *string
}

// ResetOptions controls ResetChallengeCode
type ResetOptions struct {
	KeepResults bool
}

// OpenLesson resolves a lesson and starts a session for it
func (s *Service) OpenLesson(ctx context.Context, lessonID string) (*Session, error) {
	if _, err := s.content.GetLesson(lessonID); err != nil {
		return nil, err
	}

	session := NewLessonSession(lessonID, s.tracker.Init(lessonID))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	slog.Debug("lesson session opened", "session_id", session.ID, "lesson_id", lessonID, "progress", session.Progress)
	return session, nil
}

// NavigateLesson moves a lesson session to another lesson. State is reset
// when the id changes. If the target cannot be resolved the session is
// discarded and the lookup error returned.
func (s *Service) NavigateLesson(ctx context.Context, sessionID, lessonID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(sessionID, KindLesson)
	if err != nil {
		return nil, err
	}

	if _, err := s.content.GetLesson(lessonID); err != nil {
		if delErr := s.store.Delete(sessionID); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			slog.Warn("failed to discard session", "session_id", sessionID, "error", delErr)
		}
		return nil, err
	}

	if lessonID == session.LessonID {
		return session, nil
	}

	session.ResetLesson(lessonID, s.tracker.Init(lessonID))
	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	slog.Debug("lesson session navigated", "session_id", sessionID, "lesson_id", lessonID, "progress", session.Progress)
	return session, nil
}

// SelectOption records a quiz selection
func (s *Service) SelectOption(ctx context.Context, sessionID, optionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(sessionID, KindLesson)
	if err != nil {
		return nil, err
	}

	lesson, err := s.content.GetLesson(session.LessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Quiz == nil {
		return nil, domain.ErrNoQuiz
	}
	if optionID == "" {
		return nil, fmt.Errorf("%w: empty option", domain.ErrInvalidSelection)
	}
	if lesson.Quiz.Kind == domain.QuizMultipleChoice && !lesson.Quiz.HasOption(optionID) {
		return nil, fmt.Errorf("%w: %q is not an option", domain.ErrInvalidSelection, optionID)
	}

	if !session.Select(optionID) {
		return session, nil
	}
	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// SubmitQuiz grades the current selection. Grading an attempt that already
// has feedback returns the stored outcome without changing progress.
func (s *Service) SubmitQuiz(ctx context.Context, sessionID string) (*Session, quiz.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(sessionID, KindLesson)
	if err != nil {
		return nil, quiz.Result{}, err
	}

	if session.Graded() {
		return session, quiz.Result{Outcome: session.Feedback}, nil
	}

	lesson, err := s.content.GetLesson(session.LessonID)
	if err != nil {
		return nil, quiz.Result{}, err
	}

	result, err := quiz.Grade(lesson.Quiz, session.SelectedOptionID)
	if err != nil {
		return nil, quiz.Result{}, err
	}

	session.RecordGrade(result.Outcome, progress.Advance(session.Progress, result.ProgressDelta))
	if err := s.store.Save(session); err != nil {
		return nil, quiz.Result{}, fmt.Errorf("save session: %w", err)
	}

	slog.Debug("quiz graded",
		"session_id", sessionID,
		"lesson_id", session.LessonID,
		"outcome", result.Outcome,
		"progress", session.Progress,
	)
	return session, result, nil
}

// OpenChallenge resolves a challenge and starts a session with the
// starter code for language. An empty language selects the default.
func (s *Service) OpenChallenge(ctx context.Context, challengeID, language string) (*Session, error) {
	challenge, err := s.content.GetChallenge(challengeID)
	if err != nil {
		return nil, err
	}

	lang, err := s.languages.Resolve(language)
	if err != nil {
		return nil, err
	}

	session := NewChallengeSession(challengeID, lang.String(), challenge.StarterCode(lang.String()))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	slog.Debug("challenge session opened", "session_id", session.ID, "challenge_id", challengeID, "language", lang)
	return session, nil
}

// RunChallenge previews the challenge against its test cases
func (s *Service) RunChallenge(ctx context.Context, sessionID string, req EvalRequest) (*Session, error) {
	return s.evaluate(sessionID, req, false)
}

// SubmitChallenge grades every test case and unlocks the explanation
func (s *Service) SubmitChallenge(ctx context.Context, sessionID string, req EvalRequest) (*Session, error) {
	return s.evaluate(sessionID, req, true)
}

func (s *Service) evaluate(sessionID string, req EvalRequest, submit bool) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(sessionID, KindChallenge)
	if err != nil {
		return nil, err
	}

	challenge, err := s.content.GetChallenge(session.ChallengeID)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		session.SetCode(*req.Code)
	}

	if submit {
		session.RecordSubmit(s.simulator.Submit(challenge.TestCases))
	} else {
		session.RecordRun(s.simulator.Run(challenge.TestCases))
	}

	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	passed, failed, pending := domain.Summarize(session.Results)
	slog.Debug("challenge evaluated",
		"session_id", sessionID,
		"challenge_id", session.ChallengeID,
		"submit", submit,
		"passed", passed,
		"failed", failed,
		"pending", pending,
	)
	return session, nil
}

// ResetChallengeCode restores the starter code for the current language
func (s *Service) ResetChallengeCode(ctx context.Context, sessionID string, opts ResetOptions) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(sessionID, KindChallenge)
	if err != nil {
		return nil, err
	}

	challenge, err := s.content.GetChallenge(session.ChallengeID)
	if err != nil {
		return nil, err
	}

	session.ResetCode(challenge.StarterCode(session.Language), opts.KeepResults)
	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// SetLanguage switches the challenge language. A language without starter
// code loads an empty editor.
func (s *Service) SetLanguage(ctx context.Context, sessionID, language string) (*Session, error) {
	if language == "" {
		return nil, fmt.Errorf("%w: language is required", domain.ErrUnsupportedLanguage)
	}
	lang, err := s.languages.Resolve(language)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(sessionID, KindChallenge)
	if err != nil {
		return nil, err
	}

	challenge, err := s.content.GetChallenge(session.ChallengeID)
	if err != nil {
		return nil, err
	}

	session.SwitchLanguage(lang.String(), challenge.StarterCode(lang.String()))
	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// UpdateCode replaces the editor text of a challenge session
func (s *Service) UpdateCode(ctx context.Context, sessionID, code string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(sessionID, KindChallenge)
	if err != nil {
		return nil, err
	}

	session.SetCode(code)
	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Get retrieves a session by ID
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id, "")
}

// Close discards a session
func (s *Service) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	slog.Debug("session closed", "session_id", id)
	return nil
}

// List returns the IDs of all open sessions
func (s *Service) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List()
}

// Purge discards every stored session
func (s *Service) Purge(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Purge()
}

// load fetches a session and checks its kind. An empty kind accepts any.
func (s *Service) load(id string, kind Kind) (*Session, error) {
	session, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if kind != "" && session.Kind != kind {
		return nil, fmt.Errorf("%w: session is a %s session", ErrWrongKind, session.Kind)
	}
	return session, nil
}
