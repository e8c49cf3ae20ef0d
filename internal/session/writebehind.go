package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	defaultQueueSize   = 256
	persistOpTimeout   = 5 * time.Second
	persistMaxRetries  = 3
	persistBaseBackoff = 50 * time.Millisecond
)

type jobKind int

const (
	jobSave jobKind = iota
	jobDelete
)

func (k jobKind) String() string {
	if k == jobDelete {
		return "delete"
	}
	return "save"
}

type persistJob struct {
	kind  jobKind
	rec   Record
	id    string
	owner string
}

// writeBehind drains persistence jobs on a single goroutine so writes for
// one session reach the persister in the order they were queued.
type writeBehind struct {
	persister Persister
	logger    *slog.Logger
	listener  Listener
	backoff   time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan persistJob
	done   chan struct{}
}

func newWriteBehind(p Persister, size int, logger *slog.Logger, l Listener) *writeBehind {
	if size <= 0 {
		size = defaultQueueSize
	}
	w := &writeBehind{
		persister: p,
		logger:    logger,
		listener:  l,
		backoff:   persistBaseBackoff,
		jobs:      make(chan persistJob, size),
		done:      make(chan struct{}),
	}
	go w.processLoop()
	return w
}

// enqueue never blocks. A full or closed queue drops the job.
func (w *writeBehind) enqueue(j persistJob) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.jobs <- j:
	default:
		w.degraded(&PersistenceError{Op: "enqueue", SessionID: j.sessionID(), Err: errors.New("write-behind queue full")})
	}
}

func (w *writeBehind) processLoop() {
	defer close(w.done)
	for j := range w.jobs {
		w.process(j)
	}
}

func (w *writeBehind) process(j persistJob) {
	var err error
	for attempt := 0; attempt < persistMaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), persistOpTimeout)
		switch j.kind {
		case jobSave:
			err = w.persister.Save(ctx, j.rec)
		case jobDelete:
			err = w.persister.Delete(ctx, j.id, j.owner)
		}
		cancel()
		if err == nil {
			return
		}
		if !isSQLiteConflict(err) || attempt == persistMaxRetries-1 {
			break
		}
		delay := w.backoff * time.Duration(1<<attempt)
		w.logger.Debug("database locked during session write, retrying",
			"session_id", j.sessionID(),
			"attempt", attempt+1,
			"delay", delay)
		time.Sleep(delay)
	}
	w.degraded(&PersistenceError{Op: j.kind.String(), SessionID: j.sessionID(), Err: err})
}

func (w *writeBehind) degraded(err *PersistenceError) {
	w.logger.Warn("session persistence degraded",
		"op", err.Op,
		"session_id", err.SessionID,
		"error", err.Err)
	w.listener.PersistenceFailed(err.Op)
}

// close stops accepting jobs and waits for queued ones to finish.
func (w *writeBehind) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()
	<-w.done
}

func (j persistJob) sessionID() string {
	if j.kind == jobSave {
		return j.rec.ID
	}
	return j.id
}

// isSQLiteConflict reports SQLITE_BUSY and "database is locked" errors,
// which are worth retrying.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
