package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/quiz"
	"github.com/felixgeelhaar/learneasy/internal/session"
)

const sessionColumns = `id, kind, lesson_id, selected_option_id, feedback, progress,
	challenge_id, language, code, results, explanation_unlocked, phase,
	quiz_attempts, run_count, submit_count, last_run_at, last_submit_at,
	created_at, updated_at`

// SessionStore implements session persistence backed by SQLite.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SQLite-backed session store.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Save persists a session (insert or update).
func (s *SessionStore) Save(sess *session.Session) error {
	results := sess.Results
	if results == nil {
		results = []domain.TestResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, lesson_id=excluded.lesson_id,
			selected_option_id=excluded.selected_option_id, feedback=excluded.feedback,
			progress=excluded.progress, challenge_id=excluded.challenge_id,
			language=excluded.language, code=excluded.code, results=excluded.results,
			explanation_unlocked=excluded.explanation_unlocked, phase=excluded.phase,
			quiz_attempts=excluded.quiz_attempts, run_count=excluded.run_count,
			submit_count=excluded.submit_count, last_run_at=excluded.last_run_at,
			last_submit_at=excluded.last_submit_at, updated_at=excluded.updated_at`,
		sess.ID, string(sess.Kind), sess.LessonID, sess.SelectedOptionID,
		string(sess.Feedback), sess.Progress,
		sess.ChallengeID, sess.Language, sess.Code, string(resultsJSON),
		sess.ExplanationUnlocked, string(sess.Phase),
		sess.QuizAttempts, sess.RunCount, sess.SubmitCount,
		nullTime(sess.LastRunAt), nullTime(sess.LastSubmitAt),
		sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*session.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	return sess, err
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) error {
	result, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// List returns all session IDs, oldest first.
func (s *SessionStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM sessions ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session exists.
func (s *SessionStore) Exists(id string) bool {
	var count int
	s.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", id).Scan(&count)
	return count > 0
}

// Purge removes every session.
func (s *SessionStore) Purge() (int, error) {
	result, err := s.db.Exec("DELETE FROM sessions")
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// scanSession scans a single session row.
func scanSession(row *sql.Row) (*session.Session, error) {
	var sess session.Session
	var kind, feedback, phase, resultsJSON string
	var lastRunAt, lastSubmitAt sql.NullTime

	err := row.Scan(
		&sess.ID, &kind, &sess.LessonID, &sess.SelectedOptionID, &feedback, &sess.Progress,
		&sess.ChallengeID, &sess.Language, &sess.Code, &resultsJSON,
		&sess.ExplanationUnlocked, &phase,
		&sess.QuizAttempts, &sess.RunCount, &sess.SubmitCount,
		&lastRunAt, &lastSubmitAt,
		&sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.Kind = session.Kind(kind)
	sess.Feedback = quiz.Outcome(feedback)
	sess.Phase = session.Phase(phase)

	if err := json.Unmarshal([]byte(resultsJSON), &sess.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	if len(sess.Results) == 0 {
		sess.Results = nil
	}

	if lastRunAt.Valid {
		sess.LastRunAt = &lastRunAt.Time
	}
	if lastSubmitAt.Valid {
		sess.LastSubmitAt = &lastSubmitAt.Time
	}

	return &sess, nil
}

// nullTime converts a *time.Time to sql.NullTime for storage.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
