// Package attendance tracks clock-in/clock-out work sessions.
package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/database"
)

// Domain errors
var (
	ErrAlreadyClockedIn = errors.New("user already has an active session")
	ErrNoActiveSession  = errors.New("user has no active session")
	ErrInvalidUser      = errors.New("session must belong to a user")
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// Manager handles business logic for attendance.
type Manager struct {
	ds  *Datastore
	now func() time.Time
}

// NewManager creates a new attendance manager.
func NewManager(ds *Datastore) *Manager {
	return &Manager{ds: ds, now: time.Now}
}

// ClockIn opens a session for userID. A user has at most one active session.
func (m *Manager) ClockIn(ctx context.Context, userID, imageURL string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}

	s := &Session{
		UserID:       userID,
		ClockInAt:    m.now(),
		ClockInImage: imageURL,
		Status:       StatusActive,
	}
	if err := m.ds.Open(ctx, s); err != nil {
		if database.IsUniqueViolation(err, ActiveIndex) {
			return nil, ErrAlreadyClockedIn
		}
		return nil, fmt.Errorf("failed to clock in: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "session_id": s.ID}).Info("clocked in")
	return s, nil
}

// ClockOut completes userID's active session.
func (m *Manager) ClockOut(ctx context.Context, userID, imageURL string) (*Session, error) {
	s, err := m.ds.CloseActive(ctx, userID, m.now(), imageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to clock out: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "session_id": s.ID}).Info("clocked out")
	return s, nil
}

// Active returns userID's open session, or nil when not clocked in.
func (m *Manager) Active(ctx context.Context, userID string) (*Session, error) {
	s, err := m.ds.Active(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return s, nil
}

// History returns userID's sessions, newest first.
func (m *Manager) History(ctx context.Context, userID string, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	sessions, err := m.ds.History(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Elapsed is how long s has run as of now.
func (m *Manager) Elapsed(s *Session) time.Duration {
	return s.Duration(m.now())
}
