// Package config loads server configuration from defaults, an optional YAML
// file, a .env file and SOCRATIC_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/socratic/internal/completion"
	"github.com/abhisek/socratic/internal/dialogue"
	"github.com/abhisek/socratic/internal/session"
)

// Config holds all application configuration. LLM provider settings are
// read separately by llm.ConfigFromEnv.
type Config struct {
	Server     ServerConfig       `yaml:"server"`
	DBPath     string             `yaml:"db"`
	Session    SessionConfig      `yaml:"session"`
	Dialogue   dialogue.Config    `yaml:"dialogue"`
	RateLimit  RateLimitConfig    `yaml:"rate_limit"`
	Completion completion.Weights `yaml:"completion"`
	Log        LogConfig          `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SessionConfig controls the session store.
type SessionConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxMessages   int           `yaml:"max_messages"`
	// QueueSize is the capacity of the write-behind queue.
	QueueSize int `yaml:"queue_size"`
}

// RateLimitConfig is a per-identity token bucket. A zero rate disables it.
type RateLimitConfig struct {
	PerMinute float64 `yaml:"per_minute"`
	Burst     int     `yaml:"burst"`
}

// Enabled reports whether requests are limited at all.
func (r RateLimitConfig) Enabled() bool { return r.PerMinute > 0 }

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			Timeout:       session.Timeout,
			SweepInterval: session.SweepInterval,
			MaxMessages:   session.MaxMessages,
			QueueSize:     256,
		},
		Dialogue:   dialogue.DefaultConfig(),
		RateLimit:  RateLimitConfig{PerMinute: 30, Burst: 10},
		Completion: completion.DefaultWeights(),
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty, in which case
// SOCRATIC_CONFIG is consulted; with neither set no file is read. A missing
// .env file in the working directory is fine.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("SOCRATIC_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	num := func(key string, dst *float64) {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}

	str("SOCRATIC_ADDR", &c.Server.Addr)
	str("SOCRATIC_DB", &c.DBPath)
	dur("SOCRATIC_SESSION_TIMEOUT", &c.Session.Timeout)
	dur("SOCRATIC_SWEEP_INTERVAL", &c.Session.SweepInterval)
	dur("SOCRATIC_TURN_TIMEOUT", &c.Dialogue.TurnTimeout)
	num("SOCRATIC_RATE_LIMIT", &c.RateLimit.PerMinute)
	str("SOCRATIC_LOG_LEVEL", &c.Log.Level)
	str("SOCRATIC_LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr cannot be empty"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Session.Timeout <= 0 {
		errs = append(errs, errors.New("session.timeout must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive"))
	}
	if c.Session.MaxMessages <= 0 {
		errs = append(errs, errors.New("session.max_messages must be positive"))
	}
	if c.Session.QueueSize <= 0 {
		errs = append(errs, errors.New("session.queue_size must be positive"))
	}
	if c.RateLimit.PerMinute < 0 {
		errs = append(errs, errors.New("rate_limit.per_minute cannot be negative"))
	}
	if c.RateLimit.Enabled() && c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit.burst must be at least 1"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if err := c.Dialogue.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dialogue: %w", err))
	}
	if err := c.Completion.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("completion: %w", err))
	}
	return errors.Join(errs...)
}
