// Package config loads the loanagent configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const (
	DefaultModel      = "gpt-3.5-turbo"
	DefaultCSVPath    = "responses.csv"
	DefaultListen     = ":8080"
	DefaultSessionTTL = 24 * time.Hour
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	Model       string `json:"model"`
	CatalogPath string `json:"catalog_path"`
	CSVPath     string `json:"csv_path"`
	DatabaseURL string `json:"database_url"`
	RedisAddr   string `json:"redis_addr"`
	// SessionTTL is a Go duration string such as "30m". Redis keys expire after it.
	SessionTTL string `json:"session_ttl"`
	Listen     string `json:"listen"`
	LogLevel   string `json:"log_level"`
}

// Load reads the JSON file at path, applies environment overrides and
// defaults, then validates the result.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Config
	if err := sonic.Unmarshal(file, &conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	conf.applyEnv(os.Getenv)
	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := getenv("OPENAI_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := getenv("OPENAI_MODEL"); v != "" {
		c.Model = v
	}
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.CSVPath == "" {
		c.CSVPath = DefaultCSVPath
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	if _, err := c.TTL(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// TTL parses SessionTTL. An empty value means DefaultSessionTTL.
func (c *Config) TTL() (time.Duration, error) {
	if c.SessionTTL == "" {
		return DefaultSessionTTL, nil
	}
	ttl, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: session_ttl: %v", ErrInvalidConfig, err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("%w: session_ttl must not be negative", ErrInvalidConfig)
	}
	return ttl, nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	return level, nil
}

// HasModel reports whether an LLM endpoint is configured.
func (c *Config) HasModel() bool {
	return c.APIKey != ""
}
