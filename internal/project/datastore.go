package project

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DBTX is the interface for database operations.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore handles database operations for projects.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new project datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const projectColumns = `id, name, description, team_id, status, created_by, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	p := &Project{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.TeamID, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProjects(rows *sql.Rows) ([]*Project, error) {
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Create inserts a project.
func (ds *Datastore) Create(ctx context.Context, p *Project) error {
	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO projects (id, name, description, team_id, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	return ds.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.TeamID, p.Status, p.CreatedBy, now, now,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID retrieves a project by id.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(ds.db.QueryRowContext(ctx, query, id))
}

// ListByTeam returns the team's non-archived projects, newest first.
func (ds *Datastore) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE team_id = $1 AND status <> 'archived'
		ORDER BY created_at DESC`

	rows, err := ds.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	return scanProjects(rows)
}

// ListByTeams returns the projects of any of the given teams, newest first.
func (ds *Datastore) ListByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]*Project, error) {
	ids := make([]string, len(teamIDs))
	for i, id := range teamIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE team_id = ANY($1::uuid[])
		ORDER BY created_at DESC`

	rows, err := ds.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanProjects(rows)
}

// UpdateStatus sets a project's status.
func (ds *Datastore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (int64, error) {
	query := `UPDATE projects SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := ds.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
