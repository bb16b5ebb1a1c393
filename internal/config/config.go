package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"financy/internal/core"
)

type Config struct {
	// HTTP Server
	Port           string
	RateLimitRPM   int
	TrustedProxies []string

	// Finance backend REST API
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	// Backend selection: api | sqlite | memory
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend seed
	SeedFile string

	// Reporting defaults
	DisplayCurrency string
	Frequency       string
	StartDay        int
	BudgetSaveDelay time.Duration
	RatesCacheTTL   time.Duration

	// Events: none | amqp | kafka
	EventsBackend string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Kafka
	KafkaBrokers []string
	KafkaTopic   string

	// Google Sheets report export
	GoogleSpreadsheetID      string
	GoogleReportSheet        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker
	SyncInterval time.Duration
	SyncLookback time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		RateLimitRPM: getEnvInt("RATE_LIMIT_RPM", 120),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),

		APIBaseURL: strings.TrimRight(getEnv("FINANCE_API_URL", "http://localhost:8000"), "/"),
		APIToken:   getEnv("FINANCE_API_TOKEN", ""),
		APITimeout: getEnvDuration("FINANCE_API_TIMEOUT", 15*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", "api"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financy.db"),
		SeedFile:     getEnv("SEED_FILE", ""),

		DisplayCurrency: strings.ToUpper(getEnv("DISPLAY_CURRENCY", core.DefaultCurrency)),
		Frequency:       strings.ToLower(getEnv("PERIOD_FREQUENCY", string(core.Monthly))),
		StartDay:        getEnvInt("PERIOD_START_DAY", 1),
		BudgetSaveDelay: getEnvDuration("BUDGET_SAVE_DELAY", time.Second),
		RatesCacheTTL:   getEnvDuration("RATES_CACHE_TTL", time.Hour),

		EventsBackend: getEnv("EVENTS_BACKEND", "none"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financy"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "financy_sync"),

		KafkaBrokers: getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "financy.events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheet:        getEnv("GOOGLE_REPORT_SHEET", "Reports"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 15*time.Minute),
		SyncLookback: getEnvDuration("SYNC_LOOKBACK", 400*24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"api", "memory", "sqlite"}
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// The API is needed for the api backend and for syncing the snapshot
	if c.DataBackend == "api" || c.APIBaseURL != "" {
		if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid finance API URL '%s': %v", c.APIBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid finance API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}
	if c.APITimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid finance API timeout %v: must be positive", c.APITimeout))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
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

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.SeedFile))
		}
	}

	// Reporting defaults
	if !core.ValidCurrency(c.DisplayCurrency) {
		errors = append(errors, fmt.Sprintf("invalid display currency '%s': must be a three letter code", c.DisplayCurrency))
	}
	if _, err := core.ParseFrequency(c.Frequency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid period frequency '%s': must be 'weekly' or 'monthly'", c.Frequency))
	}
	if err := core.ValidateStartDay(c.StartDay); err != nil {
		errors = append(errors, fmt.Sprintf("invalid period start day %d: must be between 1 and 31", c.StartDay))
	}
	if c.BudgetSaveDelay < 0 || c.BudgetSaveDelay > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid budget save delay %v: must be between 0 and 1 minute", c.BudgetSaveDelay))
	}
	if c.RatesCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rates cache TTL %v: must be at least 1 second", c.RatesCacheTTL))
	}
	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}
	for _, cidr := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	// Validate events backend
	validEvents := []string{"none", "amqp", "kafka"}
	if !oneOf(c.EventsBackend, validEvents) {
		errors = append(errors, fmt.Sprintf("invalid events backend '%s': must be one of %v", c.EventsBackend, validEvents))
	}

	// Validate AMQP URL if provided
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
	} else if c.EventsBackend == "amqp" {
		errors = append(errors, "AMQP_URL is required when EVENTS_BACKEND is 'amqp'")
	}

	if c.EventsBackend == "kafka" {
		if len(c.KafkaBrokers) == 0 {
			errors = append(errors, "KAFKA_BROKERS is required when EVENTS_BACKEND is 'kafka'")
		}
		if c.KafkaTopic == "" {
			errors = append(errors, "Kafka topic cannot be empty when EVENTS_BACKEND is 'kafka'")
		}
	}

	// Google Sheets export is optional; if a spreadsheet is set, credentials must be too
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleReportSheet == "" {
			errors = append(errors, "Google report sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for report export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate worker configuration
	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}
	if c.SyncLookback < 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync lookback %v: must be at least 24 hours", c.SyncLookback))
	}

	if !oneOf(strings.ToLower(c.LogFormat), []string{"text", "json"}) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// PeriodFrequency returns the configured frequency, defaulting to monthly.
func (c *Config) PeriodFrequency() core.Frequency {
	if f, err := core.ParseFrequency(c.Frequency); err == nil {
		return f
	}
	return core.Monthly
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
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

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
