package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var llmEventColumns = []string{
	"id", "created_at", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

// eventRepo implements EventRepo on plain SQL built with the ent builder.
type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	query, args := builder().Insert(tableLLMEvents).
		Columns(llmEventColumns[1:]...).
		Values(
			time.Now().UnixMilli(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody,
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	sel := builder().Select(llmEventColumns...).
		From(entsql.Table(tableLLMEvents)).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("id", opts.Before))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UnixMilli()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEventRecord
	for rows.Next() {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error) {
	query, args := builder().Select(llmEventColumns...).
		From(entsql.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id)).
		Query()

	rec, err := scanLLMEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return rec, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	query, args := builder().Select(
		"purpose",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input"),
		entsql.As(entsql.Sum("output_tokens"), "output"),
		entsql.As(entsql.Sum("latency_ms"), "latency"),
	).
		From(entsql.Table(tableLLMEvents)).
		GroupBy("purpose").
		OrderBy("purpose").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []LLMUsageStats
	for rows.Next() {
		var st LLMUsageStats
		var latency int64
		if err := rows.Scan(&st.Purpose, &st.Calls, &st.InputTokens, &st.OutputTokens, &latency); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		if st.Calls > 0 {
			st.AvgLatencyMs = latency / int64(st.Calls)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error) {
	query, args := builder().Select(
		"model",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input"),
		entsql.As(entsql.Sum("output_tokens"), "output"),
	).
		From(entsql.Table(tableLLMEvents)).
		Where(entsql.EQ("success", true)).
		GroupBy("model").
		OrderBy("model").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []LLMModelUsage
	for rows.Next() {
		var mu LLMModelUsage
		if err := rows.Scan(&mu.Model, &mu.Calls, &mu.InputTokens, &mu.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, mu)
	}
	return out, rows.Err()
}

func scanLLMEvent(row scanner) (*LLMRequestEventRecord, error) {
	var rec LLMRequestEventRecord
	var created int64
	err := row.Scan(&rec.ID, &created, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &rec.Success,
		&rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody)
	if err != nil {
		return nil, err
	}
	rec.Timestamp = fromMillis(created)
	return &rec, nil
}
