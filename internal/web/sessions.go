package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"interview-assistant/internal/domain"
)

// entry pairs a session with the lock that serializes controller calls on it.
type entry struct {
	mu      sync.Mutex
	session *domain.Session
	// notice is shown once on the next page render.
	notice string
	seen   time.Time
}

func (e *entry) takeNotice() string {
	n := e.notice
	e.notice = ""
	return n
}

// Registry holds the live interview sessions of the web front end.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *Registry) create() *entry {
	now := r.now()
	e := &entry{session: domain.NewSession(now), seen: now}

	r.mu.Lock()
	r.entries[e.session.ID] = e
	r.mu.Unlock()
	return e
}

func (r *Registry) get(id string) (*entry, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if ok {
		e.seen = r.now()
	}
	return e, ok
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, e := range r.entries {
		if e.seen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle sessions until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if r.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = r.ttl / 4
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		logger.Info("session janitor started", "interval", interval, "ttl", r.ttl)

		for {
			select {
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					logger.Info("evicted idle sessions", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
