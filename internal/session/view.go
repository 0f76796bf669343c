package session

import (
	"context"

	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/quiz"
)

// View is the read model handed to the presentation layer
type View struct {
	Session *Session `json:"session"`

	// Lesson sessions
	Lesson          *domain.Lesson     `json:"lesson,omitempty"`
	Navigation      *content.Neighbors `json:"navigation,omitempty"`
	FeedbackMessage string             `json:"feedback_message,omitempty"`

	// Challenge sessions
	Challenge   *domain.Challenge   `json:"challenge,omitempty"`
	Explanation *domain.Explanation `json:"explanation,omitempty"`
	Summary     *ResultSummary      `json:"summary,omitempty"`
	Languages   []string            `json:"languages,omitempty"`
}

// ResultSummary counts the current test results
type ResultSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// AllPassed returns true if every case was evaluated and passed
func (r ResultSummary) AllPassed() bool {
	return r.Total > 0 && r.Passed == r.Total
}

// View builds the read model for a session. The explanation is included
// only once it has been unlocked by a submit.
func (s *Service) View(ctx context.Context, id string) (*View, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &View{Session: session}

	switch session.Kind {
	case KindLesson:
		lesson, err := s.content.GetLesson(session.LessonID)
		if err != nil {
			return nil, err
		}
		neighbors, err := s.content.Neighbors(session.LessonID)
		if err != nil {
			return nil, err
		}
		view.Lesson = lesson
		view.Navigation = &neighbors
		view.FeedbackMessage = quiz.FeedbackMessage(session.Feedback)

	case KindChallenge:
		challenge, err := s.content.GetChallenge(session.ChallengeID)
		if err != nil {
			return nil, err
		}
		view.Challenge = challenge
		if session.ExplanationUnlocked {
			explanation := challenge.Explanation
			view.Explanation = &explanation
		}
		passed, failed, pending := domain.Summarize(session.Results)
		view.Summary = &ResultSummary{
			Total:   len(session.Results),
			Passed:  passed,
			Failed:  failed,
			Pending: pending,
		}
		for _, lang := range s.languages.SupportedLanguages() {
			view.Languages = append(view.Languages, lang.String())
		}
	}

	return view, nil
}
