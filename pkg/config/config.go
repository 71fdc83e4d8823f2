package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Parser        ParserConfig
	Log           LogConfig
	Observability ObservabilityConfig
	Export        ExportConfig
	Archive       ArchiveConfig
}

type ParserConfig struct {
	TaxonomyPath    string // Empty means the embedded taxonomy
	DefaultPlatform string
}

type LogConfig struct {
	Level  string
	Format string // text or json
}

type ObservabilityConfig struct {
	MetricsEnabled     bool
	MetricsTextfile    string // Written after each run when set
	TracingServiceName string
}

type ExportConfig struct {
	SheetName string
}

type ArchiveConfig struct {
	Dir string // Empty disables archiving
}

// Load reads configuration from environment variables. Files are loaded into
// the environment first and never override variables already set. With no
// files the optional .env in the working directory is used; files named
// explicitly must exist.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Parser: ParserConfig{
			TaxonomyPath:    getEnv("STATEMENT_TAXONOMY_PATH", ""),
			DefaultPlatform: getEnv("STATEMENT_DEFAULT_PLATFORM", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", false),
			MetricsTextfile:    getEnv("METRICS_TEXTFILE", ""),
			TracingServiceName: getEnv("TRACING_SERVICE_NAME", "statement-analyzer"),
		},
		Export: ExportConfig{
			SheetName: getEnv("EXPORT_SHEET_NAME", "Transactions"),
		},
		Archive: ArchiveConfig{
			Dir: getEnv("STATEMENT_ARCHIVE_DIR", ""),
		},
	}

	if _, err := cfg.Log.level(); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.Log.Format)
	}
	if cfg.Export.SheetName == "" || len(cfg.Export.SheetName) > 31 {
		return nil, fmt.Errorf("EXPORT_SHEET_NAME must be 1 to 31 characters, got %q", cfg.Export.SheetName)
	}

	return cfg, nil
}

// NewLogger builds a slog logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (c LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
