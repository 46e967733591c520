// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the query pipeline.
type Config struct {
	// Catalog sources. DatabaseURL takes precedence when both are set.
	DatabaseURL string // Postgres DSN for schema introspection (optional)
	SQLitePath  string // SQLite file for schema introspection (optional)
	HintsPath   string // YAML catalog hints: core tables, synonyms, virtual relations

	// Selector tuning.
	TopK                int     // candidate tables per query (default 10)
	SimilarityThreshold float64 // minimum cosine similarity (default 0.3)
	EmbedRateLimit      float64 // embedding service calls per second during catalog build (default 10)

	// Pipeline tuning.
	ComplexityThreshold int           // keyword score at which queries become multi-step (default 3)
	StepTimeout         time.Duration // per-step execution budget (default 30s)
	PlanTimeout         time.Duration // whole-plan wall-clock budget (default 2m)

	// Result processing.
	LargeResultThreshold int           // row count above which sampling applies (default 1000)
	CacheTTL             time.Duration // processed-result cache TTL (default 5m)

	// Catalog refresh cron schedule ("" disables scheduled rebuilds).
	RefreshSchedule string

	LogLevel string // log level: debug, info, warn, error (default "info")

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadFromEnv loads configuration from environment variables. Both schema
// sources are optional; the pipeline can run on a static catalog.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		HintsPath:       os.Getenv("CATALOG_HINTS_PATH"),
		RefreshSchedule: os.Getenv("CATALOG_REFRESH_SCHEDULE"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
	}

	cfg.TopK = parseIntEnv("SELECTOR_TOP_K", 10)
	cfg.SimilarityThreshold = parseFloatEnv("SELECTOR_SIMILARITY_THRESHOLD", 0.3)
	cfg.EmbedRateLimit = parseFloatEnv("EMBED_RATE_LIMIT", 10)
	cfg.ComplexityThreshold = parseIntEnv("PIPELINE_COMPLEXITY_THRESHOLD", 3)
	cfg.LargeResultThreshold = parseIntEnv("RESULT_SAMPLING_THRESHOLD", 1000)
	cfg.StepTimeout = parseDurationEnv("STEP_TIMEOUT", 30*time.Second)
	cfg.PlanTimeout = parseDurationEnv("PLAN_TIMEOUT", 2*time.Minute)
	cfg.CacheTTL = parseDurationEnv("CACHE_TTL", 5*time.Minute)

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TopK < 1 {
		return nil, fmt.Errorf("SELECTOR_TOP_K must be >= 1")
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("SELECTOR_SIMILARITY_THRESHOLD must be in [0,1]")
	}
	if cfg.DatabaseURL != "" && cfg.SQLitePath != "" {
		cfg.Warnings = append(cfg.Warnings, "both DATABASE_URL and SQLITE_PATH set, using DATABASE_URL")
	}
	if cfg.HintsPath == "" {
		cfg.Warnings = append(cfg.Warnings, "CATALOG_HINTS_PATH not set, core table set is empty and the selector has no guaranteed baseline")
	}

	return cfg, nil
}

func parseIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func parseFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
