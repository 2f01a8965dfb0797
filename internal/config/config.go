package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/dvloznov/statement-insights/internal/pipeline"
	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port               string
	MaxUploadBytes     int64
	CORSAllowedOrigins []string

	// Gemini
	GeminiAPIKey      string
	GeminiModel       string
	UseVertexAI       bool
	GoogleProject     string
	GoogleLocation    string
	ExtractionTimeout time.Duration

	// Optional operational extras
	GCSBucket       string
	BigQueryProject string
	BigQueryDataset string

	// Sessions
	SessionTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadDotEnv reads files (default ".env") into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("LoadDotEnv: %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_BYTES", 20<<20),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:       getEnv("GEMINI_MODEL", pipeline.DefaultModelName),
		UseVertexAI:       getEnvBool("GOOGLE_GENAI_USE_VERTEXAI", false),
		GoogleProject:     getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleLocation:    getEnv("GOOGLE_CLOUD_LOCATION", ""),
		ExtractionTimeout: getEnvDuration("EXTRACTION_TIMEOUT", 5*time.Minute),

		GCSBucket:       getEnv("GCS_BUCKET", ""),
		BigQueryProject: getEnv("BIGQUERY_PROJECT", os.Getenv("GOOGLE_CLOUD_PROJECT")),
		BigQueryDataset: getEnv("BIGQUERY_DATASET", ""),

		SessionTTL: getEnvDuration("SESSION_TTL", 2*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", logger.FormatConsole),
	}
}

// Gemini returns the extraction gateway settings.
func (c *Config) Gemini() pipeline.GeminiConfig {
	return pipeline.GeminiConfig{
		APIKey:      c.GeminiAPIKey,
		Model:       c.GeminiModel,
		UseVertexAI: c.UseVertexAI,
		Project:     c.GoogleProject,
		Location:    c.GoogleLocation,
		Timeout:     c.ExtractionTimeout,
	}
}

// RunAuditEnabled reports whether analysis runs are written to BigQuery.
func (c *Config) RunAuditEnabled() bool {
	return c.BigQueryDataset != ""
}

// ArchiveEnabled reports whether uploads are copied to GCS.
func (c *Config) ArchiveEnabled() bool {
	return c.GCSBucket != ""
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.UseVertexAI {
		if c.GoogleProject == "" {
			errs = append(errs, "GOOGLE_CLOUD_PROJECT is required when GOOGLE_GENAI_USE_VERTEXAI is set")
		}
		if c.GoogleLocation == "" {
			errs = append(errs, "GOOGLE_CLOUD_LOCATION is required when GOOGLE_GENAI_USE_VERTEXAI is set")
		}
	} else if c.GeminiAPIKey == "" {
		errs = append(errs, "GEMINI_API_KEY (or GOOGLE_API_KEY) is required")
	}

	if c.GeminiModel == "" {
		errs = append(errs, "GEMINI_MODEL cannot be empty")
	}
	if c.ExtractionTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid extraction timeout %v: must be positive", c.ExtractionTimeout))
	}
	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.MaxUploadBytes < 1<<20 {
		errs = append(errs, fmt.Sprintf("invalid max upload size %d: must be at least 1 MiB", c.MaxUploadBytes))
	}

	if c.BigQueryDataset != "" && c.BigQueryProject == "" {
		errs = append(errs, "BIGQUERY_PROJECT (or GOOGLE_CLOUD_PROJECT) is required when BIGQUERY_DATASET is set")
	}

	switch strings.ToLower(c.LogFormat) {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'console' or 'json'", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
