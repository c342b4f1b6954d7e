package profile

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTX is the interface for database operations.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore handles database operations for profiles.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new profile datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const profileColumns = `id, name, email, photo_url, role, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*Profile, error) {
	p := &Profile{}
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PhotoURL, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// InsertIfAbsent provisions a profile. An existing row with the same id wins.
func (ds *Datastore) InsertIfAbsent(ctx context.Context, p *Profile) (int64, error) {
	now := time.Now()
	query := `
		INSERT INTO users (id, name, email, photo_url, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	result, err := ds.db.ExecContext(ctx, query, p.ID, p.Name, p.Email, p.PhotoURL, p.Role, now, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetByID retrieves a profile by principal id.
func (ds *Datastore) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`
	return scanProfile(ds.db.QueryRowContext(ctx, query, id))
}

// ListTeamIDs returns the ids of the teams the user belongs to, oldest membership first.
func (ds *Datastore) ListTeamIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	query := `SELECT team_id FROM team_members WHERE user_id = $1 ORDER BY joined_at`

	rows, err := ds.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetRole sets the platform role for a profile.
func (ds *Datastore) SetRole(ctx context.Context, id string, role string) (int64, error) {
	query := `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`
	result, err := ds.db.ExecContext(ctx, query, id, role, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Update applies the non-nil fields of c.
func (ds *Datastore) Update(ctx context.Context, id string, c Changes) (int64, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name), photo_url = COALESCE($3, photo_url), updated_at = $4
		WHERE id = $1`
	result, err := ds.db.ExecContext(ctx, query, id, c.Name, c.PhotoURL, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// List returns profiles ordered by creation time.
func (ds *Datastore) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`

	rows, err := ds.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []*Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
