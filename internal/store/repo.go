package store

import (
	"context"
	"time"

	"github.com/abhisek/socratic/internal/session"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Before  int       // id < Before (0 = no bound)
	Purpose string    // exact purpose match
	From    time.Time // created_at >= From
	To      time.Time // created_at <= To
}

// ListOpts filters session listings.
type ListOpts struct {
	Owner  string
	Status session.Status
	Limit  int

	// ExpiredBefore, when set, limits the listing to records that expire at
	// or before this instant.
	ExpiredBefore time.Time
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates calls for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// CompletionEventData records a completion verdict for a session.
type CompletionEventData struct {
	SessionID  string
	Owner      string
	Score      int
	Completed  bool
	Confidence string
	Reasons    []string
	Answer     string
}

// CompletionEventRecord is a stored completion verdict.
type CompletionEventRecord struct {
	ID        int
	Timestamp time.Time
	CompletionEventData
}

// EventRepo provides append and query access to the event logs.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)

	// AppendCompletion records a completion verdict.
	AppendCompletion(ctx context.Context, data CompletionEventData) error

	// QueryCompletions returns the verdicts recorded for a session, oldest first.
	QueryCompletions(ctx context.Context, sessionID string) ([]CompletionEventRecord, error)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
