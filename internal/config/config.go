// Package config loads server settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CredentialEnv names the provider API key. It is read on every relay request.
const CredentialEnv = "OPENAI_API_KEY"

type Config struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Audit  AuditConfig  `yaml:"audit"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr       string          `yaml:"addr"`
	RelayURL   string          `yaml:"relay_url"`
	SessionTTL time.Duration   `yaml:"session_ttl"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig applies per client IP to the relay endpoint. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type AuditConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Development bool `yaml:"development"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8100",
			SessionTTL: 2 * time.Hour,
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// Load builds the configuration. A missing envFile is not an error; a missing
// YAML file is.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString("CAONLINE_ADDR", &c.Server.Addr)
	setString("CAONLINE_RELAY_URL", &c.Server.RelayURL)
	setString("CAONLINE_AUDIT_PATH", &c.Audit.Path)
	setString("OPENAI_BASE_URL", &c.LLM.BaseURL)
	setString("OPENAI_MODEL", &c.LLM.Model)

	if v, ok := os.LookupEnv("CAONLINE_SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CAONLINE_SESSION_TTL: %w", err)
		}
		c.Server.SessionTTL = d
	}
	if v, ok := os.LookupEnv("CAONLINE_RATE_LIMIT_RPS"); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CAONLINE_RATE_LIMIT_RPS: %w", err)
		}
		c.Server.RateLimit.RPS = rps
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.SessionTTL <= 0 {
		return errors.New("server.session_ttl must be positive")
	}
	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

// RelayURL is where chat sessions post message logs. Without an explicit
// setting it points at this server's own relay endpoint.
func (c *Config) RelayURL() string {
	if c.Server.RelayURL != "" {
		return c.Server.RelayURL
	}
	_, port, err := net.SplitHostPort(c.Server.Addr)
	if err != nil {
		port = "8100"
	}
	return "http://localhost:" + port + "/api/gpt"
}
