package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/learneasy/internal/config"
	"github.com/felixgeelhaar/learneasy/internal/daemon"
	mcpserver "github.com/felixgeelhaar/learneasy/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long:  "Runs the engine in-process and serves LearnEasy tools over MCP stdio for editor integration.",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Sessions live in this process; a shared store would be purged under
	// a running daemon.
	cfg.Session.Store = config.StoreMemory

	// stdout carries the protocol
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if cfg.Daemon.LogLevel == "debug" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	services, err := daemon.NewServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}
	defer services.Close()

	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		SessionService: services.Sessions,
		Content:        services.Content,
		Version:        Version,
	})

	return mcpSrv.ServeStdio(ctx)
}
