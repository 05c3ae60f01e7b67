package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/scheduler"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string
	// DataDir holds the seed files for the memory backend.
	DataDir string

	// Database
	SQLiteDBPath string

	// AMQP; events are disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID         string
	GoogleSummarySheetName      string
	GoogleTransactionsSheetName string

	// Worker
	ExportSchedule string
	ExportTimeout  time.Duration

	// Reports
	ExchangeRates          string
	RecomputeOnInstantiate bool
	ReportCacheTTL         time.Duration
	ReportCacheSize        int

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend: getEnv("DATA_BACKEND", "sqlite"),
		DataDir:     getEnv("DATA_DIR", "./data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_changed"),

		GoogleSpreadsheetID:         getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSummarySheetName:      getEnv("GOOGLE_SUMMARY_SHEET_NAME", "Summary"),
		GoogleTransactionsSheetName: getEnv("GOOGLE_TRANSACTIONS_SHEET_NAME", "Transactions"),

		ExportSchedule: getEnv("EXPORT_SCHEDULE", "0 0 * * * *"),
		ExportTimeout:  getEnvDuration("EXPORT_TIMEOUT", 2*time.Minute),

		ExchangeRates:          getEnv("EXCHANGE_RATES", "EUR=344.9,AUD=191.7"),
		RecomputeOnInstantiate: getEnvBool("RECOMPUTE_ON_INSTANTIATE", false),
		ReportCacheTTL:         getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute),
		ReportCacheSize:        getEnvInt("REPORT_CACHE_SIZE", 64),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// ExchangeTable parses ExchangeRates into the table reports convert with.
func (c *Config) ExchangeTable() (core.ExchangeTable, error) {
	rates, err := core.ParseExchangeRates(c.ExchangeRates)
	if err != nil {
		return core.ExchangeTable{}, err
	}
	return core.NewExchangeTable(rates), nil
}

// SheetsEnabled reports whether a spreadsheet is configured for export.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
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
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
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
	}

	// Validate Google Sheets tab names if export is configured
	if c.SheetsEnabled() {
		if c.GoogleSummarySheetName == "" || c.GoogleTransactionsSheetName == "" {
			errors = append(errors, "Google sheet names cannot be empty when GOOGLE_SPREADSHEET_ID is set")
		} else if c.GoogleSummarySheetName == c.GoogleTransactionsSheetName {
			errors = append(errors, fmt.Sprintf("Google summary and transactions sheets must differ (both '%s')", c.GoogleSummarySheetName))
		}
	}

	if err := scheduler.ValidateSchedule(c.ExportSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid export schedule '%s': %v", c.ExportSchedule, err))
	}
	if c.ExportTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export timeout %v: must be at least 1 second", c.ExportTimeout))
	}

	if _, err := c.ExchangeTable(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid EXCHANGE_RATES: %v", err))
	}

	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}
	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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
