package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Session store backends
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// LocalConfig holds configuration for the daemon and CLI
type LocalConfig struct {
	Daemon    DaemonConfig    `yaml:"daemon"`
	Content   ContentConfig   `yaml:"content"`
	Session   SessionConfig   `yaml:"session"`
	Simulator SimulatorConfig `yaml:"simulator"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// ContentConfig selects the content catalog
type ContentConfig struct {
	Path string `yaml:"path"` // empty uses the built-in catalog
}

// SessionConfig holds session storage settings
type SessionConfig struct {
	Store      string `yaml:"store"`       // memory, file or sqlite
	Dir        string `yaml:"dir"`         // empty means <dir>/sessions
	SQLitePath string `yaml:"sqlite_path"` // empty means <dir>/sessions.db
}

// SimulatorConfig holds challenge simulation settings
type SimulatorConfig struct {
	PassProbability float64  `yaml:"pass_probability"`
	Seed            uint64   `yaml:"seed"` // zero draws a random seed
	Languages       []string `yaml:"languages"`
}

// RateLimitConfig holds per-client request limits for the daemon
type RateLimitConfig struct {
	Enabled         bool `yaml:"enabled"`
	Rate            int  `yaml:"rate"`
	Burst           int  `yaml:"burst"`
	IntervalSeconds int  `yaml:"interval_seconds"`
}

// DaemonURL returns the daemon base URL for clients. LEARNEASY_DAEMON_URL
// overrides the address derived from the bind host and port.
func (c *LocalConfig) DaemonURL() string {
	if url := os.Getenv(EnvDaemonURL); url != "" {
		return url
	}
	bind := c.Daemon.Bind
	if bind == "" || bind == "0.0.0.0" {
		bind = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", bind, c.Daemon.Port)
}

// LearnEasyDir returns the path to ~/.learneasy
func LearnEasyDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".learneasy"), nil
}

// EnsureLearnEasyDir creates ~/.learneasy and subdirectories if they don't exist
func EnsureLearnEasyDir() (string, error) {
	dir, err := LearnEasyDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "content"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7480,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Session: SessionConfig{
			Store: StoreMemory,
		},
		Simulator: SimulatorConfig{
			PassProbability: 0.70,
			Languages:       []string{"javascript", "python"},
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Rate:            20,
			Burst:           40,
			IntervalSeconds: 1,
		},
	}
}

// LoadLocalConfig loads configuration from ~/.learneasy
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := LearnEasyDir()
	if err != nil {
		return nil, err
	}
	return LoadLocalConfigFrom(dir)
}

// LoadLocalConfigFrom builds the configuration in layers: defaults,
// <dir>/config.yaml, .env files (working directory, then dir), and
// finally LEARNEASY_* environment variables.
func LoadLocalConfigFrom(dir string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig()

	configPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := LoadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	ApplyEnv(cfg)

	if cfg.Session.Store == StoreSQLite && cfg.Session.SQLitePath == "" {
		cfg.Session.SQLitePath = filepath.Join(dir, "sessions.db")
	}
	if cfg.Session.Store == StoreFile && cfg.Session.Dir == "" {
		cfg.Session.Dir = filepath.Join(dir, "sessions")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *LocalConfig) Validate() error {
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("invalid daemon port %d", c.Daemon.Port)
	}
	switch c.Daemon.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Daemon.LogLevel)
	}
	switch c.Session.Store {
	case StoreMemory, StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("invalid session store %q", c.Session.Store)
	}
	if c.Simulator.PassProbability < 0 || c.Simulator.PassProbability > 1 {
		return fmt.Errorf("pass probability %v outside [0, 1]", c.Simulator.PassProbability)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Burst <= 0 || c.RateLimit.IntervalSeconds <= 0) {
		return fmt.Errorf("rate limit needs positive rate, burst and interval")
	}
	return nil
}

// SaveLocalConfig saves configuration to ~/.learneasy/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureLearnEasyDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
