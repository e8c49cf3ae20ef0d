package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{
		client: &client,
		model:  "claude-haiku-4-5-20251001",
	}
}

func anthropicErrorHandler(status int, errType, message string, header map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"type": "error",
			"error": map[string]any{
				"type":    errType,
				"message": message,
			},
		})
	}
}

func TestAnthropicProvider_TutorReply(t *testing.T) {
	var gotSystem string
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.System) > 0 {
			gotSystem = body.System[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": `{"reply":"What could you do to both sides to isolate x?","hint_level":1}`},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  120,
				"output_tokens": 24,
			},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		System:    "You are a Socratic tutor.",
		Messages:  []Message{{Role: RoleUser, Content: "I don't get 2x + 3 = 11"}},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSystem != "You are a Socratic tutor." {
		t.Fatalf("system prompt not forwarded, got %q", gotSystem)
	}
	if resp.Usage.InputTokens != 120 || resp.Usage.TotalTokens != 144 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
}

func TestAnthropicProvider_ErrorClasses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		errType string
		message string
		want    ErrorClass
	}{
		{"bad key", http.StatusUnauthorized, "authentication_error", "invalid x-api-key", ClassAuth},
		{"forbidden", http.StatusForbidden, "permission_error", "not allowed", ClassAuth},
		{"rate limited", http.StatusTooManyRequests, "rate_limit_error", "Rate limit exceeded", ClassRateLimited},
		{"out of credit", http.StatusTooManyRequests, "rate_limit_error", "monthly quota reached", ClassQuotaExceeded},
		{"server error", http.StatusInternalServerError, "api_error", "Internal server error", ClassUnknown},
		{"overloaded", 529, "overloaded_error", "Overloaded", ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestAnthropicProvider(t, anthropicErrorHandler(tt.status, tt.errType, tt.message, nil))
			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Classify(err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q (%v)", got, tt.want, err)
			}
		})
	}
}

func TestAnthropicProvider_RetryAfterHeader(t *testing.T) {
	handler := anthropicErrorHandler(http.StatusTooManyRequests, "rate_limit_error", "slow down",
		map[string]string{"Retry-After": "7"})

	p := newTestAnthropicProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	if got := RetryAfter(err); got != 7*time.Second {
		t.Fatalf("RetryAfter() = %s, want 7s (%v)", got, err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"3", 3 * time.Second},
		{" 10 ", 10 * time.Second},
		{"", 0},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAnthropicModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"claude-sonnet", "claude-sonnet-4-20250514"},
		{"claude-haiku", "claude-haiku-4-5-20251001"},
		{"claude-haiku-4-5-20251001", "claude-haiku-4-5-20251001"},
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, anthropicModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
