// Package quiz grades lesson quiz answers.
package quiz

import (
	"fmt"

	"github.com/felixgeelhaar/learneasy/internal/domain"
)

// CorrectAnswerIncrement is the progress awarded for a correct answer
const CorrectAnswerIncrement = 30

// Outcome is the result of grading a selection
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// Feedback messages shown under the quiz
const (
	MessageCorrect   = "Correct! Well done."
	MessageIncorrect = "Not quite. Try reviewing the material."
)

// Result is a graded answer
type Result struct {
	Outcome       Outcome `json:"outcome"`
	ProgressDelta int     `json:"progress_delta"`
}

// Correct returns true if the answer was right
func (r Result) Correct() bool {
	return r.Outcome == OutcomeCorrect
}

// Message returns the feedback text for the outcome
func (r Result) Message() string {
	return FeedbackMessage(r.Outcome)
}

// FeedbackMessage returns the display text for an outcome
func FeedbackMessage(o Outcome) string {
	switch o {
	case OutcomeCorrect:
		return MessageCorrect
	case OutcomeIncorrect:
		return MessageIncorrect
	default:
		return ""
	}
}

// Grade grades selectedOptionID against q.
//
// The selection must name one of the quiz options. Only multiple-choice
// quizzes have grading rules; other kinds return domain.ErrNotImplemented.
func Grade(q *domain.Quiz, selectedOptionID string) (Result, error) {
	if q == nil {
		return Result{}, domain.ErrNoQuiz
	}

	switch q.Kind {
	case domain.QuizMultipleChoice:
	case domain.QuizFillInTheBlank:
		return Result{}, fmt.Errorf("grade %s quiz: %w", q.Kind, domain.ErrNotImplemented)
	default:
		return Result{}, fmt.Errorf("grade %q quiz: %w", q.Kind, domain.ErrNotImplemented)
	}

	if selectedOptionID == "" {
		return Result{}, fmt.Errorf("%w: no option selected", domain.ErrInvalidSelection)
	}
	if !q.HasOption(selectedOptionID) {
		return Result{}, fmt.Errorf("%w: unknown option %q", domain.ErrInvalidSelection, selectedOptionID)
	}

	if selectedOptionID == q.CorrectOptionID {
		return Result{Outcome: OutcomeCorrect, ProgressDelta: CorrectAnswerIncrement}, nil
	}
	return Result{Outcome: OutcomeIncorrect}, nil
}
