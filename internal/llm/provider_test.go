package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"reply":"first"}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		TextResponse("second"),
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "one"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"reply":"first"}` {
		t.Fatalf("unexpected first content: %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "two"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != "second" {
		t.Fatalf("unexpected second content: %s", resp2.Content)
	}

	last, ok := mock.LastCall()
	if !ok || last.Messages[0].Content != "two" {
		t.Fatalf("LastCall() = %+v, %v", last, ok)
	}
}

func TestMockProvider_EmptyQueue(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}

	mock.SetFallback(TextResponse("fallback"))
	resp, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != "fallback" {
		t.Fatalf("expected fallback, got %s", resp.Content)
	}
}

func TestMockProvider_JSONResponse(t *testing.T) {
	mock := NewMockProvider(JSONResponse(map[string]any{"reply": "hi", "hint_level": 1}))
	resp, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Reply     string `json:"reply"`
		HintLevel int    `json:"hint_level"`
	}
	if err := json.Unmarshal(resp.Content, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Reply != "hi" || got.HintLevel != 1 {
		t.Fatalf("unexpected reply: %+v", got)
	}
}

func TestMockProvider_DelayHonoursDeadline(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Generate(ctx, Request{})
	if Classify(err) != ClassTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "tutor-reply")
	if p := PurposeFrom(ctx); p != "tutor-reply" {
		t.Fatalf("expected 'tutor-reply', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	withProvider := func(name string, mutate func(*Config)) Config {
		cfg := DefaultConfig()
		cfg.Provider = name
		if mutate != nil {
			mutate(&cfg)
		}
		return cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"anthropic without key", withProvider(ProviderAnthropic, nil), "SOCRATIC_ANTHROPIC_API_KEY"},
		{"anthropic with key", withProvider(ProviderAnthropic, func(c *Config) { c.Anthropic.APIKey = "sk-test" }), ""},
		{"openai without key", withProvider(ProviderOpenAI, nil), "SOCRATIC_OPENAI_API_KEY"},
		{"gemini with key", withProvider(ProviderGemini, func(c *Config) { c.Gemini.APIKey = "g-test" }), ""},
		{"openrouter without key", withProvider(ProviderOpenRouter, nil), "SOCRATIC_OPENROUTER_API_KEY"},
		{"mock needs no key", withProvider(ProviderMock, nil), ""},
		{"unknown provider", withProvider("llamafile", nil), "unknown LLM provider"},
		{"zero attempts", withProvider(ProviderOpenAI, func(c *Config) {
			c.OpenAI.APIKey = "sk-test"
			c.Retry.MaxAttempts = 0
		}), "max attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SOCRATIC_LLM_PROVIDER", "openrouter")
	t.Setenv("SOCRATIC_OPENROUTER_API_KEY", "sk-or")
	t.Setenv("SOCRATIC_OPENROUTER_MODEL", "openai/gpt-4o-mini")
	t.Setenv("SOCRATIC_LLM_MAX_ATTEMPTS", "5")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenRouter {
		t.Fatalf("provider = %q", cfg.Provider)
	}
	if cfg.OpenRouter.APIKey != "sk-or" || cfg.OpenRouter.Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected openrouter config: %+v", cfg.OpenRouter)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Fatalf("max attempts = %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Anthropic.Model != "claude-haiku" {
		t.Fatalf("defaults lost: %+v", cfg.Anthropic)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderGemini || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("DiscoverConfig() = %+v, %v", cfg, ok)
	}
}

func TestNewProvider_MockFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock

	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(resp.Content), `"reply"`) {
		t.Fatalf("expected a tutor reply, got %s", resp.Content)
	}
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "llamafile"
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	if !ok || math.Abs(cost-0.75) > 1e-9 {
		t.Fatalf("EstimateCost() = %v, %v", cost, ok)
	}
	if _, ok := EstimateCost("mock", 10, 10); ok {
		t.Fatal("mock model should have no price")
	}
}
