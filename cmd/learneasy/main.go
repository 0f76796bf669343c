package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/learneasy/internal/client"
	"github.com/felixgeelhaar/learneasy/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "learneasyd.pid"

var rootCmd = &cobra.Command{
	Use:   "learneasy",
	Short: "Interactive lessons, quizzes and coding challenges",
	Long: `LearnEasy - interactive e-learning from the terminal.

Lessons end in a quiz that advances your progress. Coding challenges
are graded by a simulator: code is never executed.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("addr", "", "Daemon URL (overrides LEARNEASY_DAEMON_URL)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("learneasy", Version)
	},
}

// loadConfig reads ~/.learneasy/config.yaml with env overrides
func loadConfig() (*config.LocalConfig, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// daemonURL resolves the daemon address: --addr flag, then config
func daemonURL(cmd *cobra.Command) (string, error) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		return addr, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.DaemonURL(), nil
}

// newClient returns a daemon client, failing early if the daemon is down
func newClient(cmd *cobra.Command) (*client.Client, error) {
	addr, err := daemonURL(cmd)
	if err != nil {
		return nil, err
	}

	c := client.New(addr, client.DefaultOptions())
	if err := c.Ping(cmd.Context()); err != nil {
		return nil, fmt.Errorf("daemon not reachable at %s (start it with 'learneasy start'): %w", addr, err)
	}
	return c, nil
}

// isRunning checks if the daemon answers its health endpoint
func isRunning(cmd *cobra.Command, addr string) bool {
	c := client.New(addr, client.Options{Timeout: 2 * time.Second, MaxAttempts: 1})
	return c.Ping(cmd.Context()) == nil
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
