package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/socratic/internal/store"
)

// offlineReply is what the mock provider says when no key is configured.
var offlineReply = MockResponse{
	Content: []byte(`{"reply":"Let's work through it together. What do you notice about the problem first?","hint_level":0}`),
}

// NewProvider creates a Provider from configuration, wrapped as
// caller → retry → logging → base. eventRepo may be nil.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		mock := NewMockProvider()
		mock.SetFallback(offlineReply)
		base = mock
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, eventRepo, logger)
	return WithRetry(logged, cfg.Retry), nil
}
