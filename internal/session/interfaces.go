package session

import (
	"context"

	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/quiz"
)

// SessionService defines the session operations used by the daemon
// handlers and the MCP tools
type SessionService interface {
	OpenLesson(ctx context.Context, lessonID string) (*Session, error)
	NavigateLesson(ctx context.Context, sessionID, lessonID string) (*Session, error)
	SelectOption(ctx context.Context, sessionID, optionID string) (*Session, error)
	SubmitQuiz(ctx context.Context, sessionID string) (*Session, quiz.Result, error)

	OpenChallenge(ctx context.Context, challengeID, language string) (*Session, error)
	RunChallenge(ctx context.Context, sessionID string, req EvalRequest) (*Session, error)
	SubmitChallenge(ctx context.Context, sessionID string, req EvalRequest) (*Session, error)
	ResetChallengeCode(ctx context.Context, sessionID string, opts ResetOptions) (*Session, error)
	SetLanguage(ctx context.Context, sessionID, language string) (*Session, error)
	UpdateCode(ctx context.Context, sessionID, code string) (*Session, error)

	Get(ctx context.Context, id string) (*Session, error)
	View(ctx context.Context, id string) (*View, error)
	Close(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// Ensure Service implements SessionService
var _ SessionService = (*Service)(nil)

// SessionStore defines the persistence interface for sessions.
// Both the in-memory store and the SQLite store implement this.
type SessionStore interface {
	Save(session *Session) error
	Get(id string) (*Session, error)
	Delete(id string) error
	List() ([]string, error)
	Exists(id string) bool
	Purge() (int, error)
}

// Ensure MemoryStore implements SessionStore
var _ SessionStore = (*MemoryStore)(nil)

// ContentSource resolves the read-only records a session points at
type ContentSource interface {
	GetLesson(id string) (*domain.Lesson, error)
	GetChallenge(id string) (*domain.Challenge, error)
	Neighbors(lessonID string) (content.Neighbors, error)
}

// Ensure the content registry can back a session service
var _ ContentSource = (*content.Registry)(nil)
