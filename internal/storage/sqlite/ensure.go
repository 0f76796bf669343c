package sqlite

import "github.com/felixgeelhaar/learneasy/internal/session"

// Ensure the SQLite store implements the session storage interface.
var _ session.SessionStore = (*SessionStore)(nil)
