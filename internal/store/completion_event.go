package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/socratic/internal/completion"
	"github.com/abhisek/socratic/internal/session"
)

func (r *eventRepo) AppendCompletion(ctx context.Context, data CompletionEventData) error {
	reasons, err := json.Marshal(data.Reasons)
	if err != nil {
		return fmt.Errorf("encode reasons: %w", err)
	}

	query, args := builder().Insert(tableCompletions).
		Columns("created_at", "session_id", "owner", "score", "completed", "confidence", "reasons_json", "answer").
		Values(time.Now().UnixMilli(), data.SessionID, data.Owner, data.Score, data.Completed,
			data.Confidence, string(reasons), data.Answer).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save completion event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryCompletions(ctx context.Context, sessionID string) ([]CompletionEventRecord, error) {
	query, args := builder().
		Select("id", "created_at", "session_id", "owner", "score", "completed", "confidence", "reasons_json", "answer").
		From(entsql.Table(tableCompletions)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completion events: %w", err)
	}
	defer rows.Close()

	var out []CompletionEventRecord
	for rows.Next() {
		var rec CompletionEventRecord
		var created int64
		var reasons string
		if err := rows.Scan(&rec.ID, &created, &rec.SessionID, &rec.Owner, &rec.Score,
			&rec.Completed, &rec.Confidence, &reasons, &rec.Answer); err != nil {
			return nil, fmt.Errorf("scan completion event: %w", err)
		}
		rec.Timestamp = fromMillis(created)
		if err := json.Unmarshal([]byte(reasons), &rec.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CompletionRecorder stores completion verdicts for identified users. It
// satisfies the dialogue package's completion listener.
type CompletionRecorder struct {
	repo   EventRepo
	logger *slog.Logger
}

// NewCompletionRecorder returns a recorder writing to repo. logger may be nil.
func NewCompletionRecorder(repo EventRepo, logger *slog.Logger) *CompletionRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletionRecorder{repo: repo, logger: logger}
}

// SessionCompleted records the verdict. Guest sessions leave no trace.
func (c *CompletionRecorder) SessionCompleted(ctx context.Context, sess *session.Session, score completion.Score) {
	if sess.IsGuest() {
		return
	}
	err := c.repo.AppendCompletion(context.WithoutCancel(ctx), CompletionEventData{
		SessionID:  sess.ID,
		Owner:      sess.Owner,
		Score:      score.Score,
		Completed:  score.IsCompleted,
		Confidence: string(score.Confidence),
		Reasons:    score.Reasons,
		Answer:     score.Answer,
	})
	if err != nil {
		c.logger.Warn("failed to record completion event", "session_id", sess.ID, "error", err)
	}
}
