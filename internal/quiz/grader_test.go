package quiz

import (
	"testing"

	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constQuiz() *domain.Quiz {
	return &domain.Quiz{
		Question: "Which keyword is used to declare a variable that cannot be reassigned?",
		Options: []domain.QuizOption{
			{ID: "a", Text: "var"},
			{ID: "b", Text: "let"},
			{ID: "c", Text: "const"},
		},
		CorrectOptionID: "c",
		Kind:            domain.QuizMultipleChoice,
	}
}

func TestGrade_Incorrect(t *testing.T) {
	res, err := Grade(constQuiz(), "b")
	require.NoError(t, err)

	assert.Equal(t, OutcomeIncorrect, res.Outcome)
	assert.Equal(t, 0, res.ProgressDelta)
	assert.False(t, res.Correct())
	assert.Equal(t, MessageIncorrect, res.Message())
}

func TestGrade_Correct(t *testing.T) {
	res, err := Grade(constQuiz(), "c")
	require.NoError(t, err)

	assert.Equal(t, OutcomeCorrect, res.Outcome)
	assert.Equal(t, CorrectAnswerIncrement, res.ProgressDelta)
	assert.True(t, res.Correct())
	assert.Equal(t, MessageCorrect, res.Message())
}

func TestGrade_ExactlyOneOptionIsCorrect(t *testing.T) {
	q := constQuiz()

	correct := 0
	for _, opt := range q.Options {
		res, err := Grade(q, opt.ID)
		require.NoError(t, err)
		if res.Correct() {
			correct++
			assert.Equal(t, q.CorrectOptionID, opt.ID)
		}
	}
	assert.Equal(t, 1, correct)
}

func TestGrade_InvalidSelection(t *testing.T) {
	for _, sel := range []string{"", "d", "C"} {
		_, err := Grade(constQuiz(), sel)
		assert.ErrorIs(t, err, domain.ErrInvalidSelection, "selection %q", sel)
	}
}

func TestGrade_FillInTheBlankNotImplemented(t *testing.T) {
	q := constQuiz()
	q.Kind = domain.QuizFillInTheBlank

	// Even the "correct" id must not be graded as multiple choice.
	_, err := Grade(q, "c")
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestGrade_NilQuiz(t *testing.T) {
	_, err := Grade(nil, "a")
	assert.ErrorIs(t, err, domain.ErrNoQuiz)
}

func TestFeedbackMessage_Unknown(t *testing.T) {
	assert.Empty(t, FeedbackMessage(""))
}
