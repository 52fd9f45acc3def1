package viewer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
	"github.com/matzehuels/thoughtgraph/pkg/observability"
)

// DefaultTTL is how long a session may stay idle before Cleanup removes it.
const DefaultTTL = 2 * time.Hour

// Store is an in-memory registry of viewer sessions. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an empty store. A ttl <= 0 uses DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens a new session with a random ID.
func (s *Store) Create(ctx context.Context) *Session {
	sess := newSession(uuid.NewString(), s.now)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	observability.Viewer().OnSessionOpen(ctx, sess.ID)
	return sess
}

// Get returns the session with the given ID, or a NOT_FOUND error.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, tgerrors.New(tgerrors.ErrCodeNotFound, "session %q not found", id)
	}
	return sess, nil
}

// Delete tears down a session. Its graph and selection are discarded.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return tgerrors.New(tgerrors.ErrCodeNotFound, "session %q not found", id)
	}
	observability.Viewer().OnSessionClose(ctx, id, "closed")
	return nil
}

// Cleanup removes sessions idle for longer than the store's TTL and returns
// how many were removed.
func (s *Store) Cleanup(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	var expired []string
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.TouchedAt().Before(cutoff) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		observability.Viewer().OnSessionClose(ctx, id, "expired")
	}
	return len(expired)
}

// Run calls Cleanup every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(ctx); n > 0 && logger != nil {
				logger.Debug("expired viewer sessions", "count", n)
			}
		}
	}
}

// IDs returns the IDs of all open sessions, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
