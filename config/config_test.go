package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	file := filepath.Join(dir, name)
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := writeFile(t, dir, "stockbook.toml", `
account = "alice.json"
currency = "eur"

[quotes]
file = "quotes.json"
path = '$.quotes.{symbol}.last'
timeout = "5s"

[logging]
level = "debug"
`)

	testCases := []struct {
		name string
		env  map[string]string
		want Config
	}{
		{
			name: "file",
			want: Config{
				Account:  "alice.json",
				Currency: "EUR",
				Quotes:   QuoteConfig{File: "quotes.json", Path: "$.quotes.{symbol}.last", Currency: "EUR", Timeout: "5s"},
				Logging:  LogConfig{Level: "debug", Format: "console"},
			},
		},
		{
			name: "environment",
			env:  map[string]string{"STOCKBOOK_STORE": "book.db", "STOCKBOOK_QUOTES_CURRENCY": "usd", "STOCKBOOK_LOG_LEVEL": "error"},
			want: Config{
				Account:  "alice.json",
				Store:    "book.db",
				Currency: "EUR",
				Quotes:   QuoteConfig{File: "quotes.json", Path: "$.quotes.{symbol}.last", Currency: "USD", Timeout: "5s"},
				Logging:  LogConfig{Level: "error", Format: "console"},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			got, err := Load(file)
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if *got != tc.want {
				t.Errorf("Load() = %+v, want %+v", *got, tc.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	got, err := Load("missing.toml")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Account != "account.json" || got.Currency != "USD" || got.Quotes.Currency != "USD" {
		t.Errorf("Load() = %+v, want defaults", *got)
	}
	if got.Quotes.GetTimeout() != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s", got.Quotes.GetTimeout())
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "STOCKBOOK_ACCOUNT=from-dotenv.json\n")
	t.Cleanup(func() { os.Unsetenv("STOCKBOOK_ACCOUNT") })

	got, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Account != "from-dotenv.json" {
		t.Errorf("Account = %q, want from-dotenv.json", got.Account)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := writeFile(t, dir, "stockbook.toml", "account = [")
	if _, err := Load(file); err == nil {
		t.Error("Load() succeeded on an invalid file")
	}
}

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		level, format string
		wantErr       bool
	}{
		{"debug", "console", false},
		{"info", "json", false},
		{"warn", "", false},
		{"loud", "console", true},
		{"info", "xml", true},
	}
	for _, tc := range testCases {
		t.Run(tc.level+"/"+tc.format, func(t *testing.T) {
			c := NewDefaultConfig()
			c.Logging = LogConfig{Level: tc.level, Format: tc.format}
			logger, err := c.NewLogger()
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewLogger() error = %v, wantErr %v", err, tc.wantErr)
			}
			if logger != nil {
				logger.Sync()
			}
		})
	}
}
