package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/FACorreiaa/statement-converter/pkg/money"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Extraction    ExtractionConfig
	Gemini        GeminiConfig
	OCR           OCRConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	MaxUploadMB        int
	AllowedOrigins     []string
	RateLimitPerSecond int
	RateLimitBurst     int
}

type ExtractionConfig struct {
	MaxPages      int
	Currency      string
	NoiseKeywords []string // Empty keeps the built-in list
}

// GeminiConfig enables the structured extraction path when APIKey is set.
type GeminiConfig struct {
	APIKey string
	Model  string
}

type OCRConfig struct {
	Enabled  bool
	Language string
}

// ArchiveConfig keeps converted files for later download when Dir is set.
type ArchiveConfig struct {
	Dir           string
	Retention     time.Duration
	SweepSchedule string // robfig/cron spec
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// Load reads configuration from environment variables, after loading a
// .env file from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			MaxUploadMB:        getEnvAsInt("SERVER_MAX_UPLOAD_MB", 10),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 5),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 10),
		},
		Extraction: ExtractionConfig{
			MaxPages:      getEnvAsInt("EXTRACT_MAX_PAGES", 100),
			Currency:      getEnv("EXTRACT_CURRENCY", "ZAR"),
			NoiseKeywords: getEnvAsList("EXTRACT_NOISE_KEYWORDS", nil),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", ""),
		},
		OCR: OCRConfig{
			Enabled:  getEnvAsBool("OCR_ENABLED", false),
			Language: getEnv("OCR_LANGUAGE", "eng"),
		},
		Archive: ArchiveConfig{
			Dir:           getEnv("ARCHIVE_DIR", ""),
			Retention:     getEnvAsDuration("ARCHIVE_RETENTION", time.Hour),
			SweepSchedule: getEnv("ARCHIVE_SWEEP_SCHEDULE", "@every 10m"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Extraction.MaxPages < 0 {
		return errors.New("EXTRACT_MAX_PAGES must not be negative")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("SERVER_MAX_UPLOAD_MB must be positive")
	}
	if len(c.Extraction.Currency) != 3 || !money.Known(c.Extraction.Currency) {
		return fmt.Errorf("EXTRACT_CURRENCY must be an ISO-4217 code, got %q", c.Extraction.Currency)
	}
	if c.Archive.Enabled() && c.Archive.Retention <= 0 {
		return errors.New("ARCHIVE_RETENTION must be positive")
	}
	return nil
}

// Addr returns the listen address of the API server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// StructuredEnabled reports whether the structured extraction path is configured.
func (c *GeminiConfig) StructuredEnabled() bool {
	return c.APIKey != ""
}

// Enabled reports whether converted files are archived.
func (c *ArchiveConfig) Enabled() bool {
	return c.Dir != ""
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (c *LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
