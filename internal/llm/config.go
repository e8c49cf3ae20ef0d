package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-001"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults. Waits are kept short
// because a tutor turn has a 30 second budget end to end.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ConfigFromEnv builds a Config from SOCRATIC_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	vars := []struct {
		name string
		dst  *string
	}{
		{"SOCRATIC_LLM_PROVIDER", &cfg.Provider},
		{"SOCRATIC_ANTHROPIC_API_KEY", &cfg.Anthropic.APIKey},
		{"SOCRATIC_ANTHROPIC_MODEL", &cfg.Anthropic.Model},
		{"SOCRATIC_OPENAI_API_KEY", &cfg.OpenAI.APIKey},
		{"SOCRATIC_OPENAI_MODEL", &cfg.OpenAI.Model},
		{"SOCRATIC_OPENAI_BASE_URL", &cfg.OpenAI.BaseURL},
		{"SOCRATIC_GEMINI_API_KEY", &cfg.Gemini.APIKey},
		{"SOCRATIC_GEMINI_MODEL", &cfg.Gemini.Model},
		{"SOCRATIC_OPENROUTER_API_KEY", &cfg.OpenRouter.APIKey},
		{"SOCRATIC_OPENROUTER_MODEL", &cfg.OpenRouter.Model},
		{"SOCRATIC_OPENROUTER_BASE_URL", &cfg.OpenRouter.BaseURL},
	}
	for _, v := range vars {
		if val := os.Getenv(v.name); val != "" {
			*v.dst = val
		}
	}

	if n, err := strconv.Atoi(os.Getenv("SOCRATIC_LLM_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (Anthropic → OpenAI → Gemini → OpenRouter) and returns a Config for the
// first provider whose key is found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	candidates := []struct {
		env      string
		provider string
		dst      *string
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic.APIKey},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI.APIKey},
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini.APIKey},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter.APIKey},
	}
	for _, c := range candidates {
		if k := os.Getenv(c.env); k != "" {
			cfg.Provider = c.provider
			*c.dst = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("SOCRATIC_%s_API_KEY is required for the %s provider", envName(c.Provider), c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

func envName(provider string) string {
	return strings.ToUpper(provider)
}
