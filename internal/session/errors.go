package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for an unknown id, or a session owned by
	// a different identity.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when a session outlived Timeout. The
	// session is evicted as a side effect.
	ErrSessionExpired = errors.New("session expired")
)

// PersistenceError reports a failed write to the durable tier. It is logged
// and counted, never returned to callers of the Store.
type PersistenceError struct {
	Op        string // "save", "delete", "load", "purge" or "enqueue"
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence degraded: %s session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
