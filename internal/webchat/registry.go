package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/appointment-ai-site/internal/chat"
	"github.com/wolfman30/appointment-ai-site/internal/observability/metrics"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

// ErrSessionNotFound is returned for unknown or evicted session keys.
var ErrSessionNotFound = errors.New("webchat: session not found")

// SessionFactory builds the chat session behind a new page load.
type SessionFactory func(key string) *chat.Session

type entry struct {
	session  *chat.Session
	lastSeen time.Time
}

// Registry holds one chat session per page load, in memory only. Sessions
// idle for longer than the TTL are evicted; nothing survives a restart.
type Registry struct {
	factory SessionFactory
	ttl     time.Duration
	metrics *metrics.WebchatMetrics
	logger  *logging.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL sets how long an untouched session is kept.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithRegistryMetrics reports session counts.
func WithRegistryMetrics(m *metrics.WebchatMetrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger *logging.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(factory SessionFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		factory:  factory,
		ttl:      30 * time.Minute,
		logger:   logging.Default(),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a new session and returns its key.
func (r *Registry) Create() (string, *chat.Session) {
	key := generateSessionID()
	sess := r.factory(key)

	r.mu.Lock()
	r.sessions[key] = &entry{session: sess, lastSeen: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(n)
	r.logger.Debug("webchat: session created", "session_key", key, "session_id", sess.ID())
	return key, sess
}

// Get returns the session for key and marks it as recently used.
func (r *Registry) Get(key string) (*chat.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = r.now()
	return e.session, nil
}

// Touch marks key as recently used.
func (r *Registry) Touch(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[key]; ok {
		e.lastSeen = r.now()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions and returns how many were removed. A session
// with a turn in flight is kept until it resolves.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	evicted := 0
	for key, e := range r.sessions {
		if e.lastSeen.Before(cutoff) && !e.session.Pending() {
			delete(r.sessions, key)
			evicted++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(n)
	r.metrics.ObserveEvictions(evicted)
	if evicted > 0 {
		r.logger.Info("webchat: evicted idle sessions", "count", evicted, "remaining", n)
	}
	return evicted
}

// Run sweeps on every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// generateSessionID creates a random session key.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
