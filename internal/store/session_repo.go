package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/socratic/internal/session"
)

var sessionColumns = []string{
	"id", "owner", "problem_id", "problem_text", "difficulty", "status",
	"messages_json", "message_count", "started_at", "last_activity", "expires_at",
}

// SessionRepo is the durable tier for identified users' sessions. It
// implements session.Persister and session.ExpiredPurger.
type SessionRepo struct {
	db *sql.DB
}

var (
	_ session.Persister     = (*SessionRepo)(nil)
	_ session.ExpiredPurger = (*SessionRepo)(nil)
)

// Save upserts the record.
func (r *SessionRepo) Save(ctx context.Context, rec session.Record) error {
	messages := rec.Messages
	if messages == nil {
		messages = []session.Message{}
	}
	msgs, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	var problemID, problemText sql.NullString
	if rec.Problem != nil {
		problemID = sql.NullString{String: rec.Problem.ID, Valid: rec.Problem.ID != ""}
		problemText = sql.NullString{String: rec.Problem.Text, Valid: true}
	}

	query, args := builder().Insert(tableSessions).
		Columns(sessionColumns...).
		Values(
			rec.ID, rec.Owner, problemID, problemText, rec.Difficulty, string(rec.Status),
			string(msgs), len(rec.Messages),
			toMillis(rec.StartedAt), toMillis(rec.LastActivity), toMillis(rec.ExpiresAt),
		).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

// Load returns the record for (id, owner), or nil if there is none.
func (r *SessionRepo) Load(ctx context.Context, id, owner string) (*session.Record, error) {
	query, args := builder().Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner", owner))).
		Query()

	rec, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return rec, nil
}

// Get returns the record for id regardless of owner, or nil if there is none.
func (r *SessionRepo) Get(ctx context.Context, id string) (*session.Record, error) {
	query, args := builder().Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()

	rec, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return rec, nil
}

// Delete removes the record. Missing records are not an error.
func (r *SessionRepo) Delete(ctx context.Context, id, owner string) error {
	query, args := builder().Delete(tableSessions).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner", owner))).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// PurgeExpired deletes every record whose expiry is at or before now.
func (r *SessionRepo) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	query, args := builder().Delete(tableSessions).
		Where(entsql.LTE("expires_at", now.UnixMilli())).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return int(n), nil
}

// List returns records ordered by most recent activity.
func (r *SessionRepo) List(ctx context.Context, opts ListOpts) ([]session.Record, error) {
	sel := builder().Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		OrderBy(entsql.Desc("last_activity"))

	var preds []*entsql.Predicate
	if opts.Owner != "" {
		preds = append(preds, entsql.EQ("owner", opts.Owner))
	}
	if opts.Status != "" {
		preds = append(preds, entsql.EQ("status", string(opts.Status)))
	}
	if !opts.ExpiredBefore.IsZero() {
		preds = append(preds, entsql.LTE("expires_at", opts.ExpiredBefore.UnixMilli()))
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
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []session.Record
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*session.Record, error) {
	var (
		rec                      session.Record
		problemID, problemText   sql.NullString
		status, msgs             string
		count                    int
		started, active, expires int64
	)
	err := row.Scan(&rec.ID, &rec.Owner, &problemID, &problemText, &rec.Difficulty, &status,
		&msgs, &count, &started, &active, &expires)
	if err != nil {
		return nil, err
	}

	if problemText.Valid {
		rec.Problem = &session.ProblemRef{ID: problemID.String, Text: problemText.String}
	}
	rec.Status = session.Status(status)
	rec.StartedAt = fromMillis(started)
	rec.LastActivity = fromMillis(active)
	rec.ExpiresAt = fromMillis(expires)

	rec.Messages = make([]session.Message, 0, count)
	if err := json.Unmarshal([]byte(msgs), &rec.Messages); err != nil {
		return nil, fmt.Errorf("decode messages for %s: %w", rec.ID, err)
	}
	return &rec, nil
}
