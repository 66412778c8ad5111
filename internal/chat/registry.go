package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps the live chat sessions in memory, one per page load. Sessions idle for longer than
// the configured TTL are evicted; nothing outlives the process.
type Registry struct {
	completer   Completer
	instruction string
	opts        Options
	ttl         time.Duration
	logger      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. Every session it creates shares the completer and the
// system instruction.
func NewRegistry(completer Completer, instruction string, opts Options, ttl time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		completer:   completer,
		instruction: instruction,
		opts:        opts,
		ttl:         ttl,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session with a seeded transcript.
func (r *Registry) Create() *Session {
	s := NewSession(uuid.New().String(), r.completer, r.instruction, r.opts, r.logger)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	return s
}

// Get returns the session with the given ID, or ErrSessionNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts the sessions idle for longer than the TTL at now and reports how many were removed.
// Sessions waiting for a reply are kept.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.sessions {
		idle, loading := s.idleSince(now)
		if loading || idle <= r.ttl {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}

// Run sweeps the registry periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				r.logger.Debug("Evicted idle chat sessions", slog.Int("count", n), slog.Int("remaining", r.Len()))
			}
		}
	}
}
