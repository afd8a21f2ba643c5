package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the shelf CLI.
type Config struct {
	// ServerURL is the catalog API base URL.
	ServerURL string `yaml:"server_url"`

	// PageSize is the number of products per list page.
	PageSize int `yaml:"page_size"`

	// Timeout is the HTTP request timeout.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the retry budget for rate-limited and failed
	// list requests.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the initial backoff delay between retries.
	RetryDelay time.Duration `yaml:"retry_delay"`

	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		ServerURL:  "http://localhost:8080",
		PageSize:   9,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// DefaultPath returns the default config file path
// (~/.shelf/config.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".shelf", "config.yaml"), nil
}

// Load reads the config file at path, falling back to defaults for
// anything unset. A missing file is not an error. Environment
// variables (SHELF_SERVER, SHELF_PAGE_SIZE, SHELF_LOG_LEVEL,
// SHELF_LOG_FORMAT) override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if cfg.PageSize <= 0 {
		cfg.PageSize = 9
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SHELF_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("SHELF_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("SHELF_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SHELF_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}
