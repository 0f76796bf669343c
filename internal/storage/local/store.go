// Package local stores sessions as JSON files, one per session.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/learneasy/internal/session"
)

const ext = ".json"

// SessionStore provides thread-safe JSON file storage for sessions
type SessionStore struct {
	basePath string
	mu       sync.RWMutex
}

var _ session.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates the directory if needed and returns a store over it
func NewSessionStore(basePath string) (*SessionStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &SessionStore{basePath: basePath}, nil
}

// Save writes the session atomically: a temp file renamed into place
func (s *SessionStore) Save(sess *session.Session) error {
	path, err := s.path(sess.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.basePath, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

// Get reads a session
func (s *SessionStore) Get(id string) (*session.Session, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &sess, nil
}

// Delete removes a session file
func (s *SessionStore) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return session.ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// List returns all session IDs, sorted
func (s *SessionStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ids()
}

// Exists checks if a session file is present
func (s *SessionStore) Exists(id string) bool {
	path, err := s.path(id)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(path)
	return err == nil
}

// Purge removes every session file and returns how many were removed
func (s *SessionStore) Purge() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.ids()
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := os.Remove(filepath.Join(s.basePath, id+ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return i, fmt.Errorf("remove %s: %w", id, err)
		}
	}
	return len(ids), nil
}

func (s *SessionStore) ids() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// path maps an id to its file, rejecting ids that would escape the directory
func (s *SessionStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: invalid session id %q", session.ErrNotFound, id)
	}
	return filepath.Join(s.basePath, id+ext), nil
}
