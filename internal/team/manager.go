// Package team owns teams and their memberships.
//
// Membership is relational: a team's member ids are always derived from its
// team_members rows, so there is no second index to keep in step.
package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/database"
)

// Domain errors
var (
	ErrNotFound            = errors.New("team not found")
	ErrInvalidName         = errors.New("team name cannot be empty")
	ErrInvalidMember       = errors.New("member must have a user id")
	ErrInvalidRole         = errors.New("invalid team role")
	ErrNotMember           = errors.New("user is not a member of this team")
	ErrAlreadyMember       = errors.New("user is already a member of this team")
	ErrCannotRemoveCreator = errors.New("cannot remove the team creator")
)

// Manager handles business logic for teams.
type Manager struct {
	db database.TxBeginner
	ds *Datastore
}

// NewManager creates a new team manager. db starts the transactions that
// span more than one statement.
func NewManager(db database.TxBeginner, ds *Datastore) *Manager {
	return &Manager{db: db, ds: ds}
}

// Create inserts a team with its creator as the first admin member, atomically.
func (m *Manager) Create(ctx context.Context, name, creatorID, creatorEmail string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if creatorID == "" {
		return nil, ErrInvalidMember
	}

	t := &Team{Name: name, CreatedBy: creatorID}
	creator := Member{
		UserID: creatorID,
		Role:   access.TeamRoleAdmin,
		Email:  strings.ToLower(strings.TrimSpace(creatorEmail)),
	}

	err := database.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		ds := NewDatastore(tx)
		if err := ds.InsertTeam(ctx, t); err != nil {
			return err
		}
		return ds.InsertMember(ctx, t.ID, &creator)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	t.Members = []Member{creator}
	log.WithFields(log.Fields{"team_id": t.ID, "user_id": creatorID}).Info("team created")
	return t, nil
}

// Get returns the team with its members, or nil when no such team exists.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Team, error) {
	t, err := m.ds.GetTeam(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	members, err := m.ds.ListMembers(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	t.Members = nonNil(members[id])
	return t, nil
}

// ListForUser returns every team userID belongs to, newest first, with members.
func (m *Manager) ListForUser(ctx context.Context, userID string) ([]*Team, error) {
	teams, err := m.ds.ListTeamsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if len(teams) == 0 {
		return teams, nil
	}

	ids := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	members, err := m.ds.ListMembers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	for _, t := range teams {
		t.Members = nonNil(members[t.ID])
	}
	return teams, nil
}

// AddMember adds member to the team. An empty role means member.
func (m *Manager) AddMember(ctx context.Context, teamID uuid.UUID, member Member) (*Member, error) {
	member.UserID = strings.TrimSpace(member.UserID)
	if member.UserID == "" {
		return nil, ErrInvalidMember
	}
	role, err := access.ParseTeamRole(string(member.Role))
	if err != nil {
		return nil, ErrInvalidRole
	}
	member.Role = role
	member.Email = strings.ToLower(strings.TrimSpace(member.Email))

	if err := m.ds.InsertMember(ctx, teamID, &member); err != nil {
		switch {
		case database.IsUniqueViolation(err, ""):
			return nil, ErrAlreadyMember
		case database.IsForeignKeyViolation(err, ""):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	log.WithFields(log.Fields{"team_id": teamID, "user_id": member.UserID, "role": member.Role}).Info("team member added")
	return &member, nil
}

// RemoveMember removes userID from the team. The creator cannot be removed.
func (m *Manager) RemoveMember(ctx context.Context, teamID uuid.UUID, userID string) error {
	t, err := m.ds.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get team: %w", err)
	}
	if t.CreatedBy == userID {
		return ErrCannotRemoveCreator
	}

	rowsAffected, err := m.ds.DeleteMember(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotMember
	}

	log.WithFields(log.Fields{"team_id": teamID, "user_id": userID}).Info("team member removed")
	return nil
}

// MemberRole returns userID's team-scoped role.
func (m *Manager) MemberRole(ctx context.Context, teamID uuid.UUID, userID string) (access.TeamRole, error) {
	member, err := m.ds.GetMember(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotMember
		}
		return "", fmt.Errorf("failed to get membership: %w", err)
	}
	return member.Role, nil
}

// IsMember reports whether userID belongs to the team.
func (m *Manager) IsMember(ctx context.Context, teamID uuid.UUID, userID string) (bool, error) {
	_, err := m.MemberRole(ctx, teamID, userID)
	if errors.Is(err, ErrNotMember) {
		return false, nil
	}
	return err == nil, err
}

func nonNil(members []Member) []Member {
	if members == nil {
		return []Member{}
	}
	return members
}
