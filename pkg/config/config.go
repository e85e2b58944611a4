// Copyright 2025 Certen Protocol
//
// Relayer environment configuration. Mirrors the validator's Load()/getEnv*
// helper style but trimmed to the knobs the relayer actually recognizes
// (spec.md §6.4).

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds environment-sourced configuration for the relayer process.
type Config struct {
	// Server
	ListenAddr string

	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Cleanup Engine thresholds (C9)
	CleanQueuedTime    time.Duration
	CleanFinalizedTime time.Duration
	CleanBridgedTime   time.Duration

	// VAA Service retry policy (C7)
	VAAFetchMaxRetries    int
	VAAFetchRetryDelay    time.Duration
	VAAMaxAttemptsBeforeFailed int

	// LogLevel controls the verbosity of the component loggers.
	LogLevel string

	// ChainConfigPath points at the per-chain YAML configuration file
	// loaded by LoadChainConfigs.
	ChainConfigPath string
}

// Load reads configuration from environment variables. Unset values take the
// documented defaults; nothing here is a hard requirement, unlike the
// database connection string and chain config path, which callers should
// validate are non-empty before starting the scheduler.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", "0.0.0.0:8080"),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),

		CleanQueuedTime:    getEnvHours("CLEAN_QUEUED_TIME", 48),
		CleanFinalizedTime: getEnvHours("CLEAN_FINALIZED_TIME", 12),
		CleanBridgedTime:   getEnvHours("CLEAN_BRIDGED_TIME", 12),

		VAAFetchMaxRetries:         getEnvInt("VAA_FETCH_MAX_RETRIES", 5),
		VAAFetchRetryDelay:         getEnvDuration("VAA_FETCH_RETRY_DELAY_MS", 60_000*time.Millisecond),
		VAAMaxAttemptsBeforeFailed: getEnvInt("VAA_MAX_ATTEMPTS_BEFORE_FAILED", 0),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ChainConfigPath: getEnv("CHAIN_CONFIG_PATH", "./config/chains.yaml"),
	}
	return cfg, nil
}

// Validate checks that the configuration is sufficient to start the
// relayer. Call this after Load() in the composition root.
func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required but not set")
	}
	if c.ChainConfigPath == "" {
		errs = append(errs, "CHAIN_CONFIG_PATH is required but not set")
	}
	if c.VAAFetchMaxRetries < 0 {
		errs = append(errs, "VAA_FETCH_MAX_RETRIES must be non-negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		// Accept both a Go duration string ("60s") and a bare millisecond
		// integer, matching the TypeScript source's *_MS env convention.
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvHours(key string, defaultHours int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Hour
		}
	}
	return time.Duration(defaultHours) * time.Hour
}
