// Package profile resolves principals to dashboard profiles and keeps their
// platform role.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/jwtauth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/realtime"
)

// Domain errors
var (
	ErrNotFound         = errors.New("profile not found")
	ErrInvalidPrincipal = errors.New("principal has no id")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidName      = errors.New("name cannot be empty")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Topic is the realtime topic that carries changes to one profile.
func Topic(id string) string {
	return "profile:" + id
}

// Manager handles business logic for profiles.
type Manager struct {
	ds  *Datastore
	bus realtime.Bus
}

// NewManager creates a new profile manager.
func NewManager(ds *Datastore, bus realtime.Bus) *Manager {
	return &Manager{ds: ds, bus: bus}
}

// Resolve returns the profile for principal, provisioning one with the
// default role on first sign-in. Concurrent first sign-ins provision once.
func (m *Manager) Resolve(ctx context.Context, principal jwtauth.Principal) (*Profile, error) {
	if principal.ID == "" {
		return nil, ErrInvalidPrincipal
	}

	p, err := m.ds.GetByID(ctx, principal.ID)
	if errors.Is(err, sql.ErrNoRows) {
		p, err = m.provision(ctx, principal)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if p.TeamIDs, err = m.ds.ListTeamIDs(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return p, nil
}

func (m *Manager) provision(ctx context.Context, principal jwtauth.Principal) (*Profile, error) {
	created, err := m.ds.InsertIfAbsent(ctx, &Profile{
		ID:       principal.ID,
		Name:     principal.Name,
		Email:    principal.Email,
		PhotoURL: principal.PhotoURL,
		Role:     access.DefaultRole,
	})
	if err != nil {
		return nil, err
	}
	if created > 0 {
		log.WithField("user_id", principal.ID).Info("provisioned profile")
	}
	return m.ds.GetByID(ctx, principal.ID)
}

// Get retrieves a profile, including its team ids.
func (m *Manager) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p.TeamIDs, err = m.ds.ListTeamIDs(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return p, nil
}

// SetRole changes a profile's platform role. The change applies to the
// user's next request.
func (m *Manager) SetRole(ctx context.Context, id string, role access.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	rowsAffected, err := m.ds.SetRole(ctx, id, string(role))
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	m.publish(ctx, id)
	return nil
}

// Update applies a partial profile edit and returns the updated profile.
func (m *Manager) Update(ctx context.Context, id string, c Changes) (*Profile, error) {
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		c.Name = &name
	}

	rowsAffected, err := m.ds.Update(ctx, id, c)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	m.publish(ctx, id)
	return m.Get(ctx, id)
}

// List returns a page of profiles for user management.
func (m *Manager) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	profiles, err := m.ds.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// Watch delivers the current profile to fn and then every later change until
// the returned follower is stopped or ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, id string, fn func(*Profile)) (*realtime.Follower, error) {
	return realtime.Follow(ctx, m.bus, Topic(id), func(ctx context.Context) (*Profile, error) {
		return m.Get(ctx, id)
	}, fn)
}

func (m *Manager) publish(ctx context.Context, id string) {
	if err := m.bus.Publish(ctx, Topic(id), nil); err != nil {
		log.WithError(err).WithField("user_id", id).Warn("failed to publish profile change")
	}
}
