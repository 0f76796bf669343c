package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "LEARNEASY_"

// Environment variable names
const (
	EnvPort            = EnvPrefix + "PORT"
	EnvBind            = EnvPrefix + "BIND"
	EnvLogLevel        = EnvPrefix + "LOG_LEVEL"
	EnvContentPath     = EnvPrefix + "CONTENT_PATH"
	EnvSessionStore    = EnvPrefix + "SESSION_STORE"
	EnvSessionDir      = EnvPrefix + "SESSION_DIR"
	EnvSQLitePath      = EnvPrefix + "SQLITE_PATH"
	EnvSeed            = EnvPrefix + "SEED"
	EnvPassProbability = EnvPrefix + "PASS_PROBABILITY"
	EnvRateLimit       = EnvPrefix + "RATE_LIMIT"
	EnvDaemonURL       = EnvPrefix + "DAEMON_URL"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and existing variables win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with LEARNEASY_* environment variables
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt(EnvPort, cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv(EnvBind, cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv(EnvLogLevel, cfg.Daemon.LogLevel)
	cfg.Content.Path = getEnv(EnvContentPath, cfg.Content.Path)
	cfg.Session.Store = getEnv(EnvSessionStore, cfg.Session.Store)
	cfg.Session.Dir = getEnv(EnvSessionDir, cfg.Session.Dir)
	cfg.Session.SQLitePath = getEnv(EnvSQLitePath, cfg.Session.SQLitePath)
	cfg.Simulator.Seed = getEnvUint(EnvSeed, cfg.Simulator.Seed)
	cfg.Simulator.PassProbability = getEnvFloat(EnvPassProbability, cfg.Simulator.PassProbability)
	cfg.RateLimit.Enabled = getEnvBool(EnvRateLimit, cfg.RateLimit.Enabled)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if u, err := strconv.ParseUint(value, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
