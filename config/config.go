// Package config loads the configuration of the sbk command.
//
// Values come from defaults, then stockbook.toml, then a .env file, then
// STOCKBOOK_* environment variables. Command-line flags override all of them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for sbk.
type Config struct {
	Account  string      `toml:"account"`  // JSON account file
	Store    string      `toml:"store"`    // SQLite store, disabled when empty
	Currency string      `toml:"currency"` // currency of new accounts
	Quotes   QuoteConfig `toml:"quotes"`
	Logging  LogConfig   `toml:"logging"`
}

// QuoteConfig locates market prices, either in a local file or over HTTP.
type QuoteConfig struct {
	File     string `toml:"file"`
	URL      string `toml:"url"`  // with a {symbol} placeholder
	Path     string `toml:"path"` // JSONPath with a {symbol} placeholder
	Currency string `toml:"currency"`
	Timeout  string `toml:"timeout"`
	CacheDir string `toml:"cache_dir"`
}

// GetTimeout parses and returns the timeout duration.
func (c *QuoteConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

// NewDefaultConfig returns a Config with the default values.
func NewDefaultConfig() *Config {
	return &Config{
		Account:  "account.json",
		Currency: "USD",
		Quotes: QuoteConfig{
			Path:    `$.{symbol}`,
			Timeout: "30s",
		},
		Logging: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads the configuration file at path, if any, then the .env files
// found in the working directory and the environment.
func Load(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	// a missing .env file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyEnvOverrides(config)
	if config.Quotes.Currency == "" {
		config.Quotes.Currency = config.Currency
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	overrides := []struct {
		name  string
		field *string
	}{
		{"STOCKBOOK_ACCOUNT", &config.Account},
		{"STOCKBOOK_STORE", &config.Store},
		{"STOCKBOOK_CURRENCY", &config.Currency},
		{"STOCKBOOK_QUOTES_FILE", &config.Quotes.File},
		{"STOCKBOOK_QUOTES_URL", &config.Quotes.URL},
		{"STOCKBOOK_QUOTES_PATH", &config.Quotes.Path},
		{"STOCKBOOK_QUOTES_CURRENCY", &config.Quotes.Currency},
		{"STOCKBOOK_LOG_LEVEL", &config.Logging.Level},
		{"STOCKBOOK_LOG_FORMAT", &config.Logging.Format},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.name); v != "" {
			*o.field = v
		}
	}
	config.Currency = strings.ToUpper(config.Currency)
	config.Quotes.Currency = strings.ToUpper(config.Quotes.Currency)
}

// NewLogger builds the logger described by the logging configuration. Logs go
// to stderr so that reports on stdout stay clean.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.Sampling = nil
	switch c.Logging.Format {
	case "json":
	case "console", "":
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	return zc.Build()
}
