package conversation

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultSessionTTL bounds how long an idle active session survives.
	DefaultSessionTTL = time.Hour

	// DefaultEndedRetention keeps ended sessions readable for follow-up
	// and audit before they expire.
	DefaultEndedRetention = 24 * time.Hour
)

// SessionStore persists conversation sessions. Active sessions expire after
// the idle TTL; ended sessions are retained longer so transcripts stay
// readable after hangup.
type SessionStore interface {
	// Get retrieves a session by id.
	// Returns ErrSessionNotFound when no live record exists.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Save upserts the session and resets its expiry from its status.
	Save(ctx context.Context, session *Session) error

	// Delete removes a session. Unknown ids are a no-op.
	Delete(ctx context.Context, sessionID string) error

	// CountActive returns the number of unexpired active sessions.
	CountActive(ctx context.Context) (int, error)
}

// sessionRecord pairs a stored session with its expiry deadline.
type sessionRecord struct {
	session   *Session
	expiresAt time.Time
}

func (r sessionRecord) expired(now time.Time) bool {
	return now.After(r.expiresAt)
}

// MemorySessionStore implements SessionStore with an in-process map.
// Suitable for tests and single-process development; production uses
// RedisSessionStore. Expired records are dropped lazily on write.
type MemorySessionStore struct {
	mu      sync.RWMutex
	records map[string]sessionRecord

	ttl       time.Duration
	retention time.Duration
}

// NewMemorySessionStore creates an empty in-memory session store.
// Non-positive durations fall back to the package defaults.
func NewMemorySessionStore(ttl, retention time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if retention <= 0 {
		retention = DefaultEndedRetention
	}
	return &MemorySessionStore{
		records:   make(map[string]sessionRecord),
		ttl:       ttl,
		retention: retention,
	}
}

func (ms *MemorySessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	rec, ok := ms.records[sessionID]
	if !ok || rec.expired(time.Now()) {
		return nil, ErrSessionNotFound
	}
	return rec.session.Clone(), nil
}

func (ms *MemorySessionStore) Save(ctx context.Context, session *Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for id, rec := range ms.records {
		if rec.expired(now) {
			delete(ms.records, id)
		}
	}

	ttl := ms.ttl
	if session.Status == SessionEnded {
		ttl = ms.retention
	}
	ms.records[session.ID] = sessionRecord{
		session:   session.Clone(),
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (ms *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.records, sessionID)
	return nil
}

func (ms *MemorySessionStore) CountActive(ctx context.Context) (int, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, rec := range ms.records {
		if !rec.expired(now) && rec.session.Status == SessionActive {
			n++
		}
	}
	return n, nil
}
