// Package config holds the process-wide configuration. It is loaded once in
// main and passed into every component that needs it; no other package reads
// the environment.
package config

import (
	"fmt"
	"os"

	"github.com/pinpon/datapipe/internal/logger"
)

// Config is the full configuration surface. Domain keys are optional at load
// time: an operation that needs a missing key reports a MissingKeyError when
// it is invoked.
type Config struct {
	// Shared access token. Empty disables the token check.
	PinToken string

	// Invoice spreadsheet configuration
	SheetID         string
	InvoiceSheet    string
	AccountantSheet string

	// Google service account credentials: a file path or inline JSON.
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Notion database source
	NotionAPIKey     string
	NotionDatabaseID string

	// Logging configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// MissingKeyError reports a required configuration key that is not set.
type MissingKeyError struct {
	Key string
}

// Error implements the error interface.
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("configuration: %s is required", e.Key)
}

// Load reads the configuration from the environment. It never fails: keys
// are validated by the operations that use them.
func Load() *Config {
	return &Config{
		PinToken:              getEnv("PIN_TOKEN", ""),
		SheetID:               getEnv("SHEET_ID", ""),
		InvoiceSheet:          getEnv("FACT_SHEET", "FACTURAS"),
		AccountantSheet:       getEnv("CONT_SHEET", "FACTURAS_PARA_CONTADOR"),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS", ""),
		NotionAPIKey:          getEnv("NOTION_API_KEY", ""),
		NotionDatabaseID:      getEnv("NOTION_DB_ID", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GoogleCredentials returns the service account credential bundle, reading
// the file when a path is configured, falling back to the inline JSON.
func (c *Config) GoogleCredentials() ([]byte, error) {
	if c.GoogleCredentialsFile != "" {
		creds, err := os.ReadFile(c.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return creds, nil
	}
	if c.GoogleCredentialsJSON != "" {
		return []byte(c.GoogleCredentialsJSON), nil
	}
	return nil, &MissingKeyError{Key: "GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS"}
}

// RequireSheetID returns the invoice spreadsheet ID or a MissingKeyError.
func (c *Config) RequireSheetID() (string, error) {
	if c.SheetID == "" {
		return "", &MissingKeyError{Key: "SHEET_ID"}
	}
	return c.SheetID, nil
}

// RequireNotion returns the Notion API key and database ID or a
// MissingKeyError for the first one absent.
func (c *Config) RequireNotion() (apiKey, databaseID string, err error) {
	if c.NotionAPIKey == "" {
		return "", "", &MissingKeyError{Key: "NOTION_API_KEY"}
	}
	if c.NotionDatabaseID == "" {
		return "", "", &MissingKeyError{Key: "NOTION_DB_ID"}
	}
	return c.NotionAPIKey, c.NotionDatabaseID, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
