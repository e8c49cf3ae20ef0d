package session

import (
	"context"
	"time"
)

// Record is the durable form of a session.
type Record struct {
	ID           string
	Owner        string
	Problem      *ProblemRef
	Difficulty   string
	Messages     []Message
	StartedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
	Status       Status
}

// Persister is the optional durable tier behind the Store. It is only used
// for sessions with an owner.
type Persister interface {
	// Save upserts the record keyed by (ID, Owner).
	Save(ctx context.Context, rec Record) error

	// Load returns the record, or nil if none exists.
	Load(ctx context.Context, id, owner string) (*Record, error)

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id, owner string) error
}

// ExpiredPurger is implemented by persisters that can drop expired records
// in bulk. The sweeper uses it when available.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

func newRecord(s *Session, timeout time.Duration) Record {
	c := s.Clone()
	return Record{
		ID:           c.ID,
		Owner:        c.Owner,
		Problem:      c.Problem,
		Difficulty:   c.Difficulty,
		Messages:     c.Messages,
		StartedAt:    c.CreatedAt,
		LastActivity: c.LastActivity,
		ExpiresAt:    c.ExpiresAt(timeout),
		Status:       c.Status,
	}
}

func (r *Record) session() *Session {
	s := &Session{
		ID:           r.ID,
		Owner:        r.Owner,
		Problem:      r.Problem,
		Difficulty:   r.Difficulty,
		Messages:     r.Messages,
		CreatedAt:    r.StartedAt,
		LastActivity: r.LastActivity,
		Status:       r.Status,
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	return s.Clone()
}
