package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PIN_TOKEN", "SHEET_ID", "FACT_SHEET", "CONT_SHEET",
		"GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_CREDENTIALS",
		"NOTION_API_KEY", "NOTION_DB_ID",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.InvoiceSheet != "FACTURAS" {
		t.Errorf("InvoiceSheet = %q, want FACTURAS", cfg.InvoiceSheet)
	}
	if cfg.AccountantSheet != "FACTURAS_PARA_CONTADOR" {
		t.Errorf("AccountantSheet = %q, want FACTURAS_PARA_CONTADOR", cfg.AccountantSheet)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" || cfg.LogOutput != "stderr" {
		t.Errorf("log defaults = %s/%s/%s", cfg.LogLevel, cfg.LogFormat, cfg.LogOutput)
	}
	if cfg.PinToken != "" {
		t.Errorf("PinToken = %q, want empty", cfg.PinToken)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FACT_SHEET", "VENTAS")
	t.Setenv("CONT_SHEET", "CONTADOR")
	t.Setenv("SHEET_ID", "sheet-123")
	t.Setenv("PIN_TOKEN", "s3cret")

	cfg := Load()

	if cfg.InvoiceSheet != "VENTAS" || cfg.AccountantSheet != "CONTADOR" {
		t.Errorf("sheets = %s/%s", cfg.InvoiceSheet, cfg.AccountantSheet)
	}
	if cfg.SheetID != "sheet-123" {
		t.Errorf("SheetID = %q", cfg.SheetID)
	}
	if cfg.PinToken != "s3cret" {
		t.Errorf("PinToken = %q", cfg.PinToken)
	}
}

func TestRequireSheetID(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.RequireSheetID()

	var missing *MissingKeyError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingKeyError", err)
	}
	if missing.Key != "SHEET_ID" {
		t.Errorf("key = %q, want SHEET_ID", missing.Key)
	}

	cfg.SheetID = "abc"
	id, err := cfg.RequireSheetID()
	if err != nil || id != "abc" {
		t.Errorf("id = %q, err = %v", id, err)
	}
}

func TestRequireNotion(t *testing.T) {
	cfg := &Config{}

	_, _, err := cfg.RequireNotion()
	var missing *MissingKeyError
	if !errors.As(err, &missing) || missing.Key != "NOTION_API_KEY" {
		t.Fatalf("err = %v, want MissingKeyError for NOTION_API_KEY", err)
	}

	cfg.NotionAPIKey = "key"
	_, _, err = cfg.RequireNotion()
	if !errors.As(err, &missing) || missing.Key != "NOTION_DB_ID" {
		t.Fatalf("err = %v, want MissingKeyError for NOTION_DB_ID", err)
	}

	cfg.NotionDatabaseID = "db"
	apiKey, databaseID, err := cfg.RequireNotion()
	if err != nil || apiKey != "key" || databaseID != "db" {
		t.Errorf("got %q/%q, err = %v", apiKey, databaseID, err)
	}
}

func TestGoogleCredentialsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{GoogleCredentialsFile: path, GoogleCredentialsJSON: `{"inline":true}`}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		t.Fatal(err)
	}
	// The file takes precedence over inline JSON.
	if string(creds) != `{"type":"service_account"}` {
		t.Errorf("creds = %s", creds)
	}
}

func TestGoogleCredentialsInlineFallback(t *testing.T) {
	cfg := &Config{GoogleCredentialsJSON: `{"inline":true}`}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if string(creds) != `{"inline":true}` {
		t.Errorf("creds = %s", creds)
	}
}

func TestGoogleCredentialsMissing(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.GoogleCredentials()

	var missing *MissingKeyError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingKeyError", err)
	}
}

func TestGoogleCredentialsUnreadableFile(t *testing.T) {
	cfg := &Config{GoogleCredentialsFile: filepath.Join(t.TempDir(), "nope.json")}
	if _, err := cfg.GoogleCredentials(); err == nil {
		t.Error("missing credentials file should error")
	}
}
