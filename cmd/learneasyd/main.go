// Command learneasyd hosts the LearnEasy engine behind its JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/learneasy/internal/config"
	"github.com/felixgeelhaar/learneasy/internal/daemon"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:          "learneasyd",
	Short:        "LearnEasy daemon",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runDaemon,
}

func init() {
	rootCmd.Flags().String("home", "", "State directory (default ~/.learneasy)")
	rootCmd.Flags().String("content", "", "Content directory to load instead of the configured one")
	rootCmd.Flags().Bool("quiet", false, "Log to the log file only")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString("home")
	contentFlag, _ := cmd.Flags().GetString("content")
	quiet, _ := cmd.Flags().GetBool("quiet")

	baseDir, err := stateDir(home)
	if err != nil {
		return err
	}

	cfg, err := config.LoadLocalConfigFrom(baseDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Content.Path = resolveContentPath(cfg.Content.Path, contentFlag, baseDir)

	logFile, err := setupLogging(baseDir, parseLogLevel(cfg.Daemon.LogLevel), !quiet)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()

	release, err := acquirePIDFile(filepath.Join(baseDir, pidFileName))
	if err != nil {
		slog.Error("cannot start", "error", err)
		return err
	}
	defer release()

	if err := serve(cmd.Context(), cfg); err != nil {
		slog.Error("daemon error", "error", err)
		return err
	}
	slog.Info("daemon stopped")
	return nil
}

// serve wires the engine, runs the HTTP server and shuts it down when ctx
// is cancelled.
func serve(ctx context.Context, cfg *config.LocalConfig) error {
	services, err := daemon.NewServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	info := services.Info()
	slog.Info("learneasy engine ready",
		"version", daemon.Version,
		"content_source", info.ContentSource,
		"lessons", info.Content.Lessons,
		"catalog_entries", info.Content.CatalogEntries,
		"challenges", info.Content.Challenges,
		"session_store", info.SessionStore,
		"pass_probability", info.PassProbability,
		"languages", info.Languages,
	)

	server, err := daemon.NewServer(daemon.ServerConfig{Config: cfg, Services: services})
	if err != nil {
		services.Close()
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		// Listen failed before any signal
		services.Close()
		return fmt.Errorf("listen on %s:%d: %w", cfg.Daemon.Bind, cfg.Daemon.Port, err)
	case <-ctx.Done():
		slog.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// stateDir returns the --home directory or ~/.learneasy, creating the
// logs and content subdirectories.
func stateDir(home string) (string, error) {
	if home == "" {
		dir, err := config.EnsureLearnEasyDir()
		if err != nil {
			return "", fmt.Errorf("ensure learneasy dir: %w", err)
		}
		return dir, nil
	}

	for _, sub := range []string{"logs", "content"} {
		if err := os.MkdirAll(filepath.Join(home, sub), 0755); err != nil {
			return "", fmt.Errorf("create %s: %w", sub, err)
		}
	}
	return home, nil
}

// resolveContentPath picks the catalog to load: the flag, then the
// configured path, then <baseDir>/content if it holds a catalog. Empty
// means the built-in catalog.
func resolveContentPath(configured, flag, baseDir string) string {
	if flag != "" {
		return flag
	}
	if configured != "" {
		return configured
	}
	if dir := filepath.Join(baseDir, "content"); hasCatalog(dir) {
		return dir
	}
	return ""
}

func hasCatalog(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "catalog.yaml"))
	return err == nil
}
