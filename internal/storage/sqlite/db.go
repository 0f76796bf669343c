package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/learneasy/internal/storage/migrations"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB is the session database. The schema version is kept in
// PRAGMA user_version.
type DB struct {
	*sql.DB
	path string
}

// OpenSessionDB opens the session database at path, creating its parent
// directory, and brings the schema up to date.
func OpenSessionDB(path string) (*DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.DB.Close()
		return nil, err
	}
	return db, nil
}

// Open connects without migrating. Writers take the lock up front so
// concurrent handlers wait on the busy timeout instead of failing.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	// One connection: sqlite has a single writer, and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	return &DB{DB: db, path: path}, nil
}

func dsn(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_txlock", "immediate")
	if path == MemoryPath {
		return "file::memory:?" + params.Encode()
	}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + params.Encode()
}

// Path returns the database location
func (db *DB) Path() string {
	return db.path
}

// Close folds the WAL back into the database file before closing, so a
// stopped daemon leaves a single file behind.
func (db *DB) Close() error {
	if db.path != MemoryPath {
		if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			slog.Warn("wal checkpoint failed", "path", db.path, "error", err)
		}
	}
	return db.DB.Close()
}

type migration struct {
	version int
	name    string
	sql     string
}

// Migrate applies the embedded migrations newer than the stored schema
// version, each in its own transaction.
func (db *DB) Migrate() error {
	pending, err := loadMigrations(migrations.FS)
	if err != nil {
		return err
	}

	current, err := db.Version()
	if err != nil {
		return err
	}

	for _, m := range pending {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		// PRAGMA takes no bind parameters; version is an int
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}

		slog.Debug("applied session schema migration", "name", m.name, "version", m.version)
		current = m.version
	}
	return nil
}

// Version returns the applied schema version
func (db *DB) Version() (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// loadMigrations reads NNN_name.sql files in version order. Other files
// are ignored; a badly named or duplicate .sql file is an error.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	seen := make(map[int]string)
	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		version, err := migrationVersion(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, e.Name(), version)
		}
		seen[version] = e.Name()

		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, migration{version: version, name: e.Name(), sql: string(data)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// migrationVersion parses the numeric prefix of "001_sessions.sql"
func migrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %s: want NNN_name.sql", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("migration %s: want a positive numeric prefix", name)
	}
	return version, nil
}
