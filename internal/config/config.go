package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"conti/internal/core"
)

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"memory", "sqlite"}

// LogLevels lists the accepted LOG_LEVEL values.
var LogLevels = []string{"debug", "info", "warn", "warning", "error"}

type Config struct {
	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	DataDir      string
	TaxonomyFile string

	// AMQP change events; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	MirrorCacheSize          int
	MirrorCacheTTL           time.Duration
	ReconcileInterval        time.Duration

	// Grid behaviour
	PageSize          int
	DeleteConcurrency int
	SuggestionLimit   int
	BlurDelay         time.Duration
	DefaultPeriod     string

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	return &Config{
		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/conti.db"),
		DataDir:      getEnv("DATA_DIR", "data"),
		TaxonomyFile: getEnv("TAXONOMY_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "conti"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		MirrorCacheSize:          getEnvInt("MIRROR_CACHE_SIZE", 5000),
		MirrorCacheTTL:           getEnvDuration("MIRROR_CACHE_TTL", 30*time.Minute),
		ReconcileInterval:        getEnvDuration("RECONCILE_INTERVAL", 15*time.Minute),

		PageSize:          getEnvInt("PAGE_SIZE", 0),
		DeleteConcurrency: getEnvInt("DELETE_CONCURRENCY", 4),
		SuggestionLimit:   getEnvInt("SUGGESTION_LIMIT", 8),
		BlurDelay:         getEnvDuration("BLUR_DELAY", 150*time.Millisecond),
		DefaultPeriod:     getEnv("DEFAULT_PERIOD", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := c.validate()
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker additionally requires the settings the mirror worker depends on.
func (c *Config) ValidateWorker() error {
	errors := c.validate()
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the mirror worker")
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" &&
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		errors = append(errors, "GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided with GOOGLE_SPREADSHEET_ID")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validate() []string {
	var errors []string

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.TaxonomyFile != "" {
		if _, err := os.Stat(c.TaxonomyFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("taxonomy file does not exist: %s", c.TaxonomyFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}
	if c.MirrorCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid mirror cache size %d: must be at least 1", c.MirrorCacheSize))
	}
	if c.MirrorCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid mirror cache TTL %v: must not be negative", c.MirrorCacheTTL))
	}
	if c.ReconcileInterval != 0 && c.ReconcileInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be 0 or at least 1 minute", c.ReconcileInterval))
	}

	if c.PageSize < 0 || c.PageSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 0 and 10000", c.PageSize))
	}
	if c.DeleteConcurrency < 1 || c.DeleteConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("invalid delete concurrency %d: must be between 1 and 32", c.DeleteConcurrency))
	}
	if c.SuggestionLimit < 1 || c.SuggestionLimit > 50 {
		errors = append(errors, fmt.Sprintf("invalid suggestion limit %d: must be between 1 and 50", c.SuggestionLimit))
	}
	if c.BlurDelay < 0 || c.BlurDelay > 5*time.Second {
		errors = append(errors, fmt.Sprintf("invalid blur delay %v: must be between 0 and 5s", c.BlurDelay))
	}
	if c.DefaultPeriod != "" {
		if _, err := core.ParsePeriod(c.DefaultPeriod); err != nil {
			errors = append(errors, fmt.Sprintf("invalid default period '%s': must be YYYY-MM", c.DefaultPeriod))
		}
	}

	if !slices.Contains(LogLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, LogLevels))
	}
	if c.LogFile != "" {
		dir := filepath.Dir(c.LogFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("log file directory does not exist: %s", dir))
		}
	}

	return errors
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
