// Package session owns tutoring sessions: an in-memory tier that is the
// source of truth while a session lives, and an optional durable tier for
// identified users that is written behind and read through.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Eviction reasons reported to a Listener.
const (
	EvictExpired = "expired"
	EvictSwept   = "swept"
	EvictDeleted = "deleted"
)

// Listener observes store activity. Implementations must not block.
type Listener interface {
	SessionsActive(n int)
	SessionEvicted(reason string)
	PersistenceFailed(op string)
}

type nopListener struct{}

func (nopListener) SessionsActive(int)       {}
func (nopListener) SessionEvicted(string)    {}
func (nopListener) PersistenceFailed(string) {}

// Option configures a Store.
type Option func(*Store)

// WithPersister enables the durable tier for identified users.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithTimeout overrides the session lifetime.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxMessages overrides the per-session message cap.
func WithMaxMessages(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxMessages = n
		}
	}
}

// WithQueueSize sets the capacity of the write-behind queue.
func WithQueueSize(n int) Option {
	return func(s *Store) { s.queueSize = n }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithListener registers an observer for store activity.
func WithListener(l Listener) Option {
	return func(s *Store) {
		if l != nil {
			s.listener = l
		}
	}
}

type entry struct {
	mu      sync.Mutex
	sess    *Session
	evicted bool
}

// Store is safe for concurrent use. Mutations of one session are serialised
// by a per-session lock; different sessions never contend beyond the brief
// map lookup.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	// deleted holds ids explicitly deleted by identified users so a stale
	// durable row is not hydrated before the queued delete lands.
	deleted map[string]time.Time

	persister   Persister
	wb          *writeBehind
	timeout     time.Duration
	maxMessages int
	queueSize   int
	now         func() time.Time
	logger      *slog.Logger
	listener    Listener
	closeOnce   sync.Once
}

// NewStore creates a Store. Without WithPersister every session is memory only.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]*entry),
		deleted:     make(map[string]time.Time),
		timeout:     Timeout,
		maxMessages: MaxMessages,
		now:         time.Now,
		logger:      slog.Default(),
		listener:    nopListener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.persister != nil {
		s.wb = newWriteBehind(s.persister, s.queueSize, s.logger, s.listener)
	}
	return s
}

// Timeout returns the configured session lifetime.
func (s *Store) Timeout() time.Duration { return s.timeout }

// Create starts a new active session. For an identified owner the session is
// also queued for persistence; that write never fails creation.
func (s *Store) Create(ctx context.Context, problem *ProblemRef, owner, difficulty string) *Session {
	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		Owner:        owner,
		Difficulty:   difficulty,
		Messages:     []Message{},
		CreatedAt:    now,
		LastActivity: now,
		Status:       StatusActive,
	}
	if problem != nil {
		p := *problem
		sess.Problem = &p
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{sess: sess}
	active := len(s.sessions)
	s.mu.Unlock()
	s.listener.SessionsActive(active)

	s.persist(sess)
	return sess.Clone()
}

// Get returns a snapshot of the session. On a memory miss an identified
// caller's session is hydrated from the durable tier.
func (s *Store) Get(ctx context.Context, id, owner string) (*Session, error) {
	e, err := s.acquire(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.sess.Clone(), nil
}

// Append adds msg to the session and returns the updated snapshot. The
// message cap is applied and a durable write is queued without waiting.
func (s *Store) Append(ctx context.Context, id string, msg Message, owner string) (*Session, error) {
	e, err := s.acquire(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	now := s.now()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	if msg.ID == "" {
		msg.ID = NewMessageID(msg.Timestamp)
	}
	e.sess.Messages = capMessages(append(e.sess.Messages, msg), s.maxMessages)
	e.sess.LastActivity = now

	s.persist(e.sess)
	return e.sess.Clone(), nil
}

// MarkCompleted transitions the session to StatusCompleted.
func (s *Store) MarkCompleted(ctx context.Context, id, owner string) error {
	e, err := s.acquire(ctx, id, owner)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	if e.sess.Status == StatusCompleted {
		return nil
	}
	e.sess.Status = StatusCompleted
	e.sess.LastActivity = s.now()
	s.persist(e.sess)
	return nil
}

// Delete evicts the session from both tiers.
func (s *Store) Delete(ctx context.Context, id, owner string) error {
	s.mu.RLock()
	e := s.sessions[id]
	s.mu.RUnlock()

	if e == nil {
		if owner == "" || s.wb == nil {
			return ErrSessionNotFound
		}
		s.tombstone(id)
		s.wb.enqueue(persistJob{kind: jobDelete, id: id, owner: owner})
		return nil
	}

	e.mu.Lock()
	if e.evicted || !accessible(e.sess, owner) {
		e.mu.Unlock()
		return ErrSessionNotFound
	}
	sessOwner := e.sess.Owner
	s.evictLocked(id, e, EvictDeleted)
	e.mu.Unlock()

	if sessOwner != "" && s.wb != nil {
		s.tombstone(id)
		s.wb.enqueue(persistJob{kind: jobDelete, id: id, owner: sessOwner})
	}
	return nil
}

// Len returns the number of sessions in the memory tier.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close drains pending durable writes. The Store must not be used afterwards.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.wb != nil {
			s.wb.close()
		}
	})
}

// acquire returns the entry for id locked. Callers must unlock it.
func (s *Store) acquire(ctx context.Context, id, owner string) (*entry, error) {
	s.mu.RLock()
	e := s.sessions[id]
	s.mu.RUnlock()

	if e == nil {
		var err error
		if e, err = s.hydrate(ctx, id, owner); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	if e.evicted || !accessible(e.sess, owner) {
		e.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if s.expired(e.sess, s.now()) {
		s.evictLocked(id, e, EvictExpired)
		e.mu.Unlock()
		return nil, ErrSessionExpired
	}
	return e, nil
}

// hydrate loads an identified caller's session from the durable tier into
// memory. Load failures degrade to not found.
func (s *Store) hydrate(ctx context.Context, id, owner string) (*entry, error) {
	if owner == "" || s.persister == nil {
		return nil, ErrSessionNotFound
	}
	s.mu.RLock()
	_, gone := s.deleted[id]
	s.mu.RUnlock()
	if gone {
		return nil, ErrSessionNotFound
	}

	rec, err := s.persister.Load(ctx, id, owner)
	if err != nil {
		perr := &PersistenceError{Op: "load", SessionID: id, Err: err}
		s.logger.Warn("session persistence degraded", "op", perr.Op, "session_id", id, "error", err)
		s.listener.PersistenceFailed(perr.Op)
		return nil, ErrSessionNotFound
	}
	if rec == nil || rec.Owner != owner {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(rec.ExpiresAt) {
		s.wb.enqueue(persistJob{kind: jobDelete, id: id, owner: owner})
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	e := &entry{sess: rec.session()}
	s.sessions[id] = e
	s.listener.SessionsActive(len(s.sessions))
	return e, nil
}

// evictLocked removes e from the map. The caller holds e.mu; taking the map
// lock here is safe because nothing blocks on an entry lock while holding it.
func (s *Store) evictLocked(id string, e *entry, reason string) {
	e.evicted = true
	s.mu.Lock()
	if s.sessions[id] == e {
		delete(s.sessions, id)
	}
	active := len(s.sessions)
	s.mu.Unlock()
	s.listener.SessionEvicted(reason)
	s.listener.SessionsActive(active)
}

func (s *Store) persist(sess *Session) {
	if sess.Owner == "" || s.wb == nil {
		return
	}
	s.wb.enqueue(persistJob{kind: jobSave, rec: newRecord(sess, s.timeout)})
}

func (s *Store) tombstone(id string) {
	s.mu.Lock()
	s.deleted[id] = s.now()
	s.mu.Unlock()
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.CreatedAt) > s.timeout
}

// accessible reports whether owner may see sess. Guest sessions are reachable
// by anyone holding the id.
func accessible(sess *Session, owner string) bool {
	return sess.Owner == "" || sess.Owner == owner
}
