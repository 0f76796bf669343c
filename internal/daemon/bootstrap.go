package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/learneasy/internal/config"
	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/felixgeelhaar/learneasy/internal/progress"
	"github.com/felixgeelhaar/learneasy/internal/runner"
	"github.com/felixgeelhaar/learneasy/internal/session"
	"github.com/felixgeelhaar/learneasy/internal/storage/local"
	"github.com/felixgeelhaar/learneasy/internal/storage/sqlite"
)

// Services bundles the engine components shared by the daemon and the
// MCP server
type Services struct {
	Content  *content.Registry
	Sessions *session.Service

	storeKind     string
	contentSource string
	simulator     *runner.Simulator
	db            *sqlite.DB
}

// Info describes the running engine configuration
type Info struct {
	ContentSource   string        `json:"content_source"`
	Content         content.Stats `json:"content"`
	SessionStore    string        `json:"session_store"`
	PassProbability float64       `json:"pass_probability"`
	Languages       []string      `json:"languages"`
}

// NewServices loads content, opens the session store and wires the
// session service from cfg. Stored sessions are purged so nothing
// survives a restart.
func NewServices(ctx context.Context, cfg *config.LocalConfig) (*Services, error) {
	registry, err := loadContent(cfg.Content.Path)
	if err != nil {
		return nil, err
	}

	svc := &Services{
		Content:       registry,
		storeKind:     cfg.Session.Store,
		contentSource: contentSource(cfg.Content.Path),
	}

	var store session.SessionStore
	switch cfg.Session.Store {
	case config.StoreSQLite:
		db, err := sqlite.OpenSessionDB(cfg.Session.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open session database: %w", err)
		}
		svc.db = db
		store = sqlite.NewSessionStore(db)
	case config.StoreFile:
		fileStore, err := local.NewSessionStore(cfg.Session.Dir)
		if err != nil {
			return nil, fmt.Errorf("open session directory: %w", err)
		}
		store = fileStore
	default:
		store = session.NewMemoryStore()
	}

	simulator, err := runner.NewSimulator(runner.SimulatorConfig{
		PassProbability: cfg.Simulator.PassProbability,
		Seed:            cfg.Simulator.Seed,
	})
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("create simulator: %w", err)
	}

	languages, err := runner.NewLanguageRegistry(cfg.Simulator.Languages)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("configure languages: %w", err)
	}

	tracker := progress.NewTracker(nil)
	if cfg.Simulator.Seed != 0 {
		tracker = progress.NewSeededTracker(cfg.Simulator.Seed)
	}

	svc.simulator = simulator
	svc.Sessions = session.NewService(store, registry, simulator, tracker)
	svc.Sessions.SetLanguages(languages)

	purged, err := svc.Sessions.Purge(ctx)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("purge sessions: %w", err)
	}
	if purged > 0 {
		slog.Info("discarded stale sessions", "count", purged)
	}

	return svc, nil
}

// StoreKind returns the configured session store backend
func (s *Services) StoreKind() string {
	return s.storeKind
}

// Info reports the values the engine runs with, after defaults are
// applied. A configured pass probability of 0 shows as the default.
func (s *Services) Info() Info {
	languages := make([]string, 0)
	for _, lang := range s.Sessions.Languages().SupportedLanguages() {
		languages = append(languages, lang.String())
	}

	return Info{
		ContentSource:   s.contentSource,
		Content:         s.Content.Stats(),
		SessionStore:    s.storeKind,
		PassProbability: s.simulator.PassProbability(),
		Languages:       languages,
	}
}

// Close releases the session database, if any
func (s *Services) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func loadContent(path string) (*content.Registry, error) {
	loader := content.NewLoader(content.DefaultFS())
	if path != "" {
		loader = content.NewDirLoader(path)
	}

	registry := content.NewRegistry(loader)
	if err := registry.Load(); err != nil {
		return nil, fmt.Errorf("load content from %s: %w", contentSource(path), err)
	}
	return registry, nil
}

func contentSource(path string) string {
	if path == "" {
		return "built-in catalog"
	}
	return path
}
