// Package project registers projects against their owning team.
package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/database"
)

// Domain errors
var (
	ErrNotFound      = errors.New("project not found")
	ErrInvalidName   = errors.New("project name cannot be empty")
	ErrInvalidTeam   = errors.New("project must belong to a team")
	ErrTeamNotFound  = errors.New("team not found")
	ErrInvalidStatus = errors.New("invalid project status")
)

// DefaultQueryChunk is the number of team ids sent per membership query.
const DefaultQueryChunk = 10

// Manager handles business logic for projects.
type Manager struct {
	ds    *Datastore
	chunk int
}

// NewManager creates a new project manager. chunk bounds the number of team
// ids per query; values below 1 use DefaultQueryChunk.
func NewManager(ds *Datastore, chunk int) *Manager {
	if chunk < 1 {
		chunk = DefaultQueryChunk
	}
	return &Manager{ds: ds, chunk: chunk}
}

// Create registers a new active project for teamID.
func (m *Manager) Create(ctx context.Context, name, description string, teamID uuid.UUID, creatorID string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if teamID == uuid.Nil {
		return nil, ErrInvalidTeam
	}

	p := &Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		TeamID:      teamID,
		Status:      StatusActive,
		CreatedBy:   creatorID,
	}
	if err := m.ds.Create(ctx, p); err != nil {
		if database.IsForeignKeyViolation(err, "") {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.WithFields(log.Fields{"project_id": p.ID, "team_id": teamID}).Info("project created")
	return p, nil
}

// Get retrieves a project by id.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	p, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListForTeam returns the team's projects. Archived projects are excluded.
func (m *Manager) ListForTeam(ctx context.Context, teamID uuid.UUID) ([]*Project, error) {
	projects, err := m.ds.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// ListForUser returns the projects of every team in teamIDs, newest first.
// No query is issued for an empty set. Large sets are split into chunks so
// none are dropped.
func (m *Manager) ListForUser(ctx context.Context, teamIDs []uuid.UUID) ([]*Project, error) {
	ids := dedupe(teamIDs)
	if len(ids) == 0 {
		return []*Project{}, nil
	}

	all := make([]*Project, 0, len(ids))
	for chunk := range slices.Chunk(ids, m.chunk) {
		projects, err := m.ds.ListByTeams(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		all = append(all, projects...)
	}

	slices.SortStableFunc(all, func(a, b *Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return all, nil
}

// UpdateStatus moves a project to status. Any known status may follow any other.
func (m *Manager) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	rowsAffected, err := m.ds.UpdateStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
