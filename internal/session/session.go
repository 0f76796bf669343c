package session

import (
	"slices"
	"time"

	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/quiz"
	"github.com/google/uuid"
)

// Kind distinguishes lesson sessions from challenge sessions
type Kind string

const (
	KindLesson    Kind = "lesson"
	KindChallenge Kind = "challenge"
)

// Phase is the challenge evaluation state
type Phase string

const (
	PhaseUnstarted Phase = "unstarted"
	PhaseRan       Phase = "ran"
	PhaseGraded    Phase = "graded"
)

// Session is the mutable state behind one lesson or challenge screen
type Session struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Lesson state
	LessonID         string       `json:"lesson_id,omitempty"`
	SelectedOptionID string       `json:"selected_option_id,omitempty"`
	Feedback         quiz.Outcome `json:"feedback,omitempty"`
	Progress         int          `json:"progress"`

	// Challenge state
	ChallengeID         string              `json:"challenge_id,omitempty"`
	Language            string              `json:"language,omitempty"`
	Code                string              `json:"code,omitempty"`
	Results             []domain.TestResult `json:"results,omitempty"`
	ExplanationUnlocked bool                `json:"explanation_unlocked"`
	Phase               Phase               `json:"phase,omitempty"`

	// Statistics
	QuizAttempts int        `json:"quiz_attempts"`
	RunCount     int        `json:"run_count"`
	SubmitCount  int        `json:"submit_count"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	LastSubmitAt *time.Time `json:"last_submit_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLessonSession creates a session for a lesson with a starting progress
func NewLessonSession(lessonID string, progress int) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Kind:      KindLesson,
		LessonID:  lessonID,
		Progress:  progress,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewChallengeSession creates a session for a challenge with starter code
func NewChallengeSession(challengeID, language, code string) *Session {
	now := time.Now()
	return &Session{
		ID:          uuid.New().String(),
		Kind:        KindChallenge,
		ChallengeID: challengeID,
		Language:    language,
		Code:        code,
		Phase:       PhaseUnstarted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ResetLesson reinitialises lesson state for a different lesson
func (s *Session) ResetLesson(lessonID string, progress int) {
	s.LessonID = lessonID
	s.SelectedOptionID = ""
	s.Feedback = ""
	s.Progress = progress
	s.UpdatedAt = time.Now()
}

// Select records a quiz selection. Changing the selection discards any
// feedback so the new choice can be graded. Returns false if unchanged.
func (s *Session) Select(optionID string) bool {
	if optionID == s.SelectedOptionID {
		return false
	}
	s.SelectedOptionID = optionID
	s.Feedback = ""
	s.UpdatedAt = time.Now()
	return true
}

// Graded returns true if the current selection has feedback
func (s *Session) Graded() bool {
	return s.Feedback != ""
}

// RecordGrade stores the feedback and the resulting progress
func (s *Session) RecordGrade(outcome quiz.Outcome, progress int) {
	s.Feedback = outcome
	s.Progress = progress
	s.QuizAttempts++
	s.UpdatedAt = time.Now()
}

// SetCode replaces the editor text
func (s *Session) SetCode(code string) {
	s.Code = code
	s.UpdatedAt = time.Now()
}

// RecordRun stores preview results. The explanation latch is untouched.
func (s *Session) RecordRun(results []domain.TestResult) {
	now := time.Now()
	s.Results = results
	s.Phase = PhaseRan
	s.RunCount++
	s.LastRunAt = &now
	s.UpdatedAt = now
}

// RecordSubmit stores graded results and unlocks the explanation
func (s *Session) RecordSubmit(results []domain.TestResult) {
	now := time.Now()
	s.Results = results
	s.Phase = PhaseGraded
	s.ExplanationUnlocked = true
	s.SubmitCount++
	s.LastSubmitAt = &now
	s.UpdatedAt = now
}

// ResetCode restores starter code, optionally keeping the result list
func (s *Session) ResetCode(code string, keepResults bool) {
	s.Code = code
	if !keepResults {
		s.clearResults()
	}
	s.UpdatedAt = time.Now()
}

// SwitchLanguage changes language, loads its starter code and clears results
func (s *Session) SwitchLanguage(language, code string) {
	s.Language = language
	s.Code = code
	s.clearResults()
	s.UpdatedAt = time.Now()
}

func (s *Session) clearResults() {
	s.Results = nil
	s.Phase = PhaseUnstarted
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	c := *s
	c.Results = slices.Clone(s.Results)
	for i, r := range c.Results {
		if r.Passed != nil {
			passed := *r.Passed
			c.Results[i].Passed = &passed
		}
	}
	if s.LastRunAt != nil {
		t := *s.LastRunAt
		c.LastRunAt = &t
	}
	if s.LastSubmitAt != nil {
		t := *s.LastSubmitAt
		c.LastSubmitAt = &t
	}
	return &c
}
