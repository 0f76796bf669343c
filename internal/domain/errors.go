package domain

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Domain Errors
// Every failure in the engine resolves to one of these. None of them is
// fatal; callers map them to a displayable state.
// -----------------------------------------------------------------------------

// Lookup errors
var (
	ErrNotFound          = errors.New("not found")
	ErrLessonNotFound    = fmt.Errorf("lesson %w", ErrNotFound)
	ErrChallengeNotFound = fmt.Errorf("challenge %w", ErrNotFound)
)

// Quiz errors
var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrNotImplemented   = errors.New("not implemented")
	ErrNoQuiz           = errors.New("lesson has no quiz")
)

// Challenge errors
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// General errors
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidContent = errors.New("invalid content")
)
