package dialogue

import (
	"errors"
	"fmt"
	"time"
)

// Config holds tutor reply generation settings.
type Config struct {
	// TurnTimeout bounds a single provider call.
	TurnTimeout time.Duration `yaml:"turn_timeout"`

	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// StuckTemperature replaces Temperature once the stuck level reaches
	// StuckThreshold, for more exploratory phrasing.
	StuckTemperature float64 `yaml:"stuck_temperature"`
	StuckThreshold   int     `yaml:"stuck_threshold"`

	// WindowSize is how many recent messages are shown to the model.
	WindowSize int `yaml:"window_size"`

	// Structured requests a {reply, hint_level} JSON object from the model.
	// Plain text replies are still accepted when it is off or the model
	// ignores the schema.
	Structured bool `yaml:"structured"`
}

// DefaultConfig returns sensible defaults for tutor turns.
func DefaultConfig() Config {
	return Config{
		TurnTimeout:      30 * time.Second,
		MaxTokens:        400,
		Temperature:      0.4,
		StuckTemperature: 0.7,
		StuckThreshold:   2,
		WindowSize:       10,
		Structured:       true,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.TurnTimeout <= 0 {
		errs = append(errs, fmt.Errorf("turn_timeout must be positive, got %s", c.TurnTimeout))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 1], got %g", c.Temperature))
	}
	if c.StuckTemperature < 0 || c.StuckTemperature > 1 {
		errs = append(errs, fmt.Errorf("stuck_temperature must be within [0, 1], got %g", c.StuckTemperature))
	}
	if c.StuckThreshold < 1 {
		errs = append(errs, fmt.Errorf("stuck_threshold must be at least 1, got %d", c.StuckThreshold))
	}
	if c.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("window_size must be at least 1, got %d", c.WindowSize))
	}
	return errors.Join(errs...)
}
