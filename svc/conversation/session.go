package conversation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Manager owns the session lifecycle on top of a SessionStore. It scopes
// every lookup to a tenant so one bank's sessions are invisible to another,
// even when a session id is guessed.
type Manager struct {
	store SessionStore
	now   func() time.Time
	log   *slog.Logger
}

// ManagerOption configures optional Manager settings.
type ManagerOption func(*Manager)

// WithManagerClock sets the time source, mainly for tests.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithManagerLogger sets the manager logger.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a session manager. Panics if store is nil.
func NewManager(store SessionStore, opts ...ManagerOption) *Manager {
	if store == nil {
		panic("conversation: session store cannot be nil")
	}

	m := &Manager{
		store: store,
		now:   time.Now,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)), // noop logger by default
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Ensure returns the tenant's live session for id, creating one when absent.
// Reusing the id of an ended session returns ErrSessionEnded; the caller
// must start over with a fresh id.
func (m *Manager) Ensure(ctx context.Context, tenantID, sessionID string, channel Channel, callerID, locale string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	session, err := m.store.Get(ctx, sessionID)
	switch {
	case err == nil:
		// A foreign tenant's session reads as absent, not forbidden.
		if session.TenantID != tenantID {
			return nil, ErrSessionNotFound
		}
		if session.Status == SessionEnded {
			return nil, ErrSessionEnded
		}
		return session, nil
	case !errors.Is(err, ErrSessionNotFound):
		return nil, err
	}

	if !channel.Valid() {
		return nil, fmt.Errorf("conversation: unsupported channel %q", channel)
	}

	now := m.now()
	session = &Session{
		ID:             sessionID,
		TenantID:       tenantID,
		Channel:        channel,
		CallerID:       hashCallerID(callerID),
		Language:       locale,
		Status:         SessionActive,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := m.store.Save(ctx, session); err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "conversation session started",
		slog.String("session_id", sessionID),
		slog.String("tenant_id", tenantID),
		slog.String("channel", string(channel)))

	return session, nil
}

// Get returns the tenant's session by id, ended or not.
func (m *Manager) Get(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TenantID != tenantID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Append records turns on an active session and persists the refreshed
// record, which also resets the idle expiry.
func (m *Manager) Append(ctx context.Context, session *Session, turns ...Turn) error {
	if session.Status == SessionEnded {
		return ErrSessionEnded
	}

	session.Append(turns...)
	session.LastActivityAt = m.now()
	return m.store.Save(ctx, session)
}

// End marks the session ended and persists it under the retention window.
// Ending an already-ended session is a no-op so provider status callbacks
// can retry safely.
func (m *Manager) End(ctx context.Context, tenantID, sessionID, reason string) (*Session, error) {
	session, err := m.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == SessionEnded {
		return session, nil
	}

	if reason == "" {
		reason = "completed"
	}

	now := m.now()
	session.Status = SessionEnded
	session.EndReason = reason
	session.EndedAt = now
	session.LastActivityAt = now
	if err := m.store.Save(ctx, session); err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "conversation session ended",
		slog.String("session_id", sessionID),
		slog.String("tenant_id", tenantID),
		slog.String("reason", reason))

	return session, nil
}

// CountActive reports live sessions across all tenants.
func (m *Manager) CountActive(ctx context.Context) (int, error) {
	return m.store.CountActive(ctx)
}

// hashCallerID reduces a phone number or chat handle to a short digest for
// correlation. Transcripts never carry the raw identifier.
func hashCallerID(callerID string) string {
	if callerID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(callerID))
	return hex.EncodeToString(sum[:])[:16]
}
