package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.5-flash", "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema_TutorReply(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reply":      map[string]any{"type": "string", "description": "message to the student"},
			"hint_level": map[string]any{"type": "integer"},
			"tone":       map[string]any{"type": "string", "enum": []any{"warm", "neutral"}},
			"steps": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"reply", "hint_level"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["reply"].Description != "message to the student" {
		t.Fatalf("description lost: %q", schema.Properties["reply"].Description)
	}
	if schema.Properties["hint_level"].Type != genai.TypeInteger {
		t.Fatalf("expected INTEGER for hint_level, got %s", schema.Properties["hint_level"].Type)
	}
	if len(schema.Properties["tone"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(schema.Properties["tone"].Enum))
	}
	if schema.Properties["steps"].Items.Type != genai.TypeString {
		t.Fatalf("expected STRING items, got %s", schema.Properties["steps"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestMapGeminiError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"bad key", genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "API key not valid"}, ClassAuth},
		{"rate limited", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Too many requests"}, ClassRateLimited},
		{"quota", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "You exceeded your current quota"}, ClassQuotaExceeded},
		{"wrapped pointer", fmt.Errorf("call: %w", &genai.APIError{Code: 504, Message: "deadline"}), ClassTimeout},
		{"server", genai.APIError{Code: 500, Message: "internal"}, ClassUnknown},
		{"deadline", context.DeadlineExceeded, ClassTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(mapGeminiError(tt.err)); got != tt.want {
				t.Fatalf("Classify(mapGeminiError()) = %q, want %q", got, tt.want)
			}
		})
	}

	if err := mapGeminiError(context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancel should pass through, got %v", err)
	}
}
