// Package invite runs the invitation workflow: pending invites addressed to
// an email, accepted by the principal that owns that email.
package invite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/database"
	"github.com/thakuramit5464/Personal-Dashboard/internal/jwtauth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/profile"
	"github.com/thakuramit5464/Personal-Dashboard/internal/realtime"
	"github.com/thakuramit5464/Personal-Dashboard/internal/team"
)

// Domain errors
var (
	ErrNotFound         = errors.New("invite not found")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidInviter   = errors.New("invite must have an inviter")
	ErrDuplicateInvite  = errors.New("a pending invite already exists for this email and team")
	ErrEmailMismatch    = errors.New("invite is addressed to a different email")
	ErrEmailNotVerified = errors.New("email address is not verified")
	ErrNotPending       = errors.New("invite is no longer pending")
	ErrTeamNotFound     = errors.New("team not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrTeamInviteRole   = errors.New("team invites grant a team role, not a platform role")
)

// DefaultTTL is how long an invite stays acceptable.
const DefaultTTL = 7 * 24 * time.Hour

// Manager handles business logic for invites.
type Manager struct {
	db  database.TxBeginner
	ds  *Datastore
	bus realtime.Bus
	ttl time.Duration
	now func() time.Time
}

// NewManager creates a new invite manager. A ttl of zero uses DefaultTTL.
func NewManager(db database.TxBeginner, ds *Datastore, bus realtime.Bus, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{db: db, ds: ds, bus: bus, ttl: ttl, now: time.Now}
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a pending invite. At most one pending invite may exist per
// (email, team); stale ones are expired first.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*Invite, error) {
	email := NormalizeEmail(in.Email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if in.InvitedBy == "" {
		return nil, ErrInvalidInviter
	}

	role := in.Role
	if in.TeamID != nil && role != "" {
		return nil, ErrTeamInviteRole
	}
	if role == "" {
		role = access.DefaultRole
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	now := m.now()
	inv := &Invite{
		Email:     email,
		TeamID:    in.TeamID,
		ProjectID: in.ProjectID,
		Role:      role,
		InvitedBy: in.InvitedBy,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if in.TeamID != nil {
		teamRole, err := access.ParseTeamRole(string(in.TeamRole))
		if err != nil {
			return nil, ErrInvalidRole
		}
		inv.TeamRole = &teamRole
	}

	err := database.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		ds := NewDatastore(tx)
		if _, err := ds.ExpireStale(ctx, email, in.TeamID, now); err != nil {
			return err
		}
		exists, err := ds.HasPending(ctx, email, in.TeamID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateInvite
		}
		return ds.Insert(ctx, inv)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateInvite), database.IsUniqueViolation(err, PendingIndex):
			return nil, ErrDuplicateInvite
		case database.IsForeignKeyViolation(err, ProjectForeignKey):
			return nil, ErrProjectNotFound
		case database.IsForeignKeyViolation(err, ""):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	log.WithFields(log.Fields{"invite_id": inv.ID, "team_id": in.TeamID, "invited_by": in.InvitedBy}).Info("invite created")
	return inv, nil
}

// ListPendingForEmail returns the live invites addressed to email.
func (m *Manager) ListPendingForEmail(ctx context.Context, email string) ([]*Invite, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return []*Invite{}, nil
	}

	invites, err := m.ds.ListPending(ctx, email, m.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// Accept grants what the invite offers to principal and marks it accepted,
// in one transaction. Team invites add a membership; platform invites set
// the principal's platform role.
func (m *Manager) Accept(ctx context.Context, id uuid.UUID, principal jwtauth.Principal) (*Invite, error) {
	var accepted *Invite

	err := database.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		ds := NewDatastore(tx)
		inv, err := ds.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if NormalizeEmail(inv.Email) != NormalizeEmail(principal.Email) {
			return ErrEmailMismatch
		}
		if !principal.EmailVerified {
			return ErrEmailNotVerified
		}

		now := m.now()
		if !inv.Live(now) {
			return ErrNotPending
		}
		n, err := ds.MarkAccepted(ctx, id, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotPending
		}

		if inv.TeamID != nil {
			role := access.TeamRoleMember
			if inv.TeamRole != nil {
				role = *inv.TeamRole
			}
			if _, err := team.NewDatastore(tx).InsertMemberIfAbsent(ctx, *inv.TeamID, &team.Member{
				UserID: principal.ID,
				Role:   role,
				Email:  NormalizeEmail(principal.Email),
			}); err != nil {
				return err
			}
		} else {
			n, err := profile.NewDatastore(tx).SetRole(ctx, principal.ID, string(inv.Role))
			if err != nil {
				return err
			}
			if n == 0 {
				return profile.ErrNotFound
			}
		}

		inv.Status = StatusAccepted
		inv.AcceptedAt = &now
		accepted = inv
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmailMismatch),
			errors.Is(err, ErrEmailNotVerified), errors.Is(err, ErrNotPending),
			errors.Is(err, profile.ErrNotFound):
			return nil, err
		case database.IsForeignKeyViolation(err, ""):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}

	if err := m.bus.Publish(ctx, profile.Topic(principal.ID), nil); err != nil {
		log.WithError(err).WithField("user_id", principal.ID).Warn("failed to publish profile change")
	}
	log.WithFields(log.Fields{"invite_id": id, "user_id": principal.ID}).Info("invite accepted")
	return accepted, nil
}
