package session

import (
	"context"
	"time"
)

// Sweep evicts every expired session from memory and returns how many were
// removed. A session whose lock is held is skipped and retried on the next
// sweep. When the persister supports it, expired durable rows are purged too.
func (s *Store) Sweep(ctx context.Context) int {
	now := s.now()
	evicted := 0

	s.mu.Lock()
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if s.expired(e.sess, now) {
			e.evicted = true
			delete(s.sessions, id)
			evicted++
		}
		e.mu.Unlock()
	}
	for id, at := range s.deleted {
		if now.Sub(at) > s.timeout {
			delete(s.deleted, id)
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	for i := 0; i < evicted; i++ {
		s.listener.SessionEvicted(EvictSwept)
	}
	s.listener.SessionsActive(active)

	if purger, ok := s.persister.(ExpiredPurger); ok {
		purged, err := purger.PurgeExpired(ctx, now)
		if err != nil {
			s.logger.Warn("session persistence degraded", "op", "purge", "error", err)
			s.listener.PersistenceFailed("purge")
		} else if purged > 0 {
			s.logger.Info("purged expired sessions", "count", purged)
		}
	}

	if evicted > 0 {
		s.logger.Info("session sweep completed", "evicted", evicted, "active", active)
	}
	return evicted
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = SweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		s.logger.Info("session sweeper started", "interval", interval, "ttl", s.timeout)

		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-ctx.Done():
				s.logger.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
