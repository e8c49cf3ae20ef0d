package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/socratic/internal/store"
)

// LoggingProvider is a decorator that logs every LLM request and records it
// as an event when a repository is configured.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	logger    *slog.Logger
}

// WithLogging wraps a Provider with request logging. repo and logger may be nil.
func WithLogging(p Provider, providerName string, repo store.EventRepo, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, provider: providerName, eventRepo: repo, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)
	latency := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
		l.logger.Error("llm request failed",
			"provider", l.provider,
			"model", data.Model,
			"purpose", purpose,
			"class", string(Classify(err)),
			"latency", latency,
			"error", err)
	} else {
		l.logger.Debug("llm request",
			"provider", l.provider,
			"model", data.Model,
			"purpose", purpose,
			"input_tokens", data.InputTokens,
			"output_tokens", data.OutputTokens,
			"latency", latency)
	}

	if l.eventRepo != nil {
		// The request context may already be done; the event is still worth keeping.
		if logErr := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
			l.logger.Warn("failed to record LLM request event", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}

	return b.String()
}
