package team

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

// Datastore handles database operations for teams and their members.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new team datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

// InsertTeam creates the team row. Members are inserted separately.
func (ds *Datastore) InsertTeam(ctx context.Context, t *Team) error {
	now := time.Now()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	query := `
		INSERT INTO teams (id, name, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	return ds.db.QueryRowContext(ctx, query, t.ID, t.Name, t.CreatedBy, now, now).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

// InsertMember adds a membership row.
func (ds *Datastore) InsertMember(ctx context.Context, teamID uuid.UUID, m *Member) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role, email, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING joined_at`

	return ds.db.QueryRowContext(ctx, query, teamID, m.UserID, m.Role, m.Email, time.Now()).
		Scan(&m.JoinedAt)
}

// InsertMemberIfAbsent adds a membership row unless the user already belongs
// to the team. It reports whether a row was inserted.
func (ds *Datastore) InsertMemberIfAbsent(ctx context.Context, teamID uuid.UUID, m *Member) (bool, error) {
	query := `
		INSERT INTO team_members (team_id, user_id, role, email, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id, user_id) DO NOTHING`

	result, err := ds.db.ExecContext(ctx, query, teamID, m.UserID, m.Role, m.Email, time.Now())
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// GetTeam retrieves a team without its members.
func (ds *Datastore) GetTeam(ctx context.Context, id uuid.UUID) (*Team, error) {
	query := `SELECT id, name, created_by, created_at, updated_at FROM teams WHERE id = $1`

	t := &Team{}
	err := ds.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTeamsForUser returns the teams userID belongs to, newest first, without members.
func (ds *Datastore) ListTeamsForUser(ctx context.Context, userID string) ([]*Team, error) {
	query := `
		SELECT t.id, t.name, t.created_by, t.created_at, t.updated_at
		FROM teams t
		INNER JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.created_at DESC`

	rows, err := ds.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []*Team{}
	for rows.Next() {
		t := &Team{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ListMembers returns the members of the given teams keyed by team id, in join order.
func (ds *Datastore) ListMembers(ctx context.Context, teamIDs []uuid.UUID) (map[uuid.UUID][]Member, error) {
	ids := make([]string, len(teamIDs))
	for i, id := range teamIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT team_id, user_id, role, email, joined_at
		FROM team_members
		WHERE team_id = ANY($1::uuid[])
		ORDER BY joined_at, user_id`

	rows, err := ds.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[uuid.UUID][]Member, len(teamIDs))
	for rows.Next() {
		var teamID uuid.UUID
		var m Member
		if err := rows.Scan(&teamID, &m.UserID, &m.Role, &m.Email, &m.JoinedAt); err != nil {
			return nil, err
		}
		members[teamID] = append(members[teamID], m)
	}
	return members, rows.Err()
}

// GetMember retrieves one membership.
func (ds *Datastore) GetMember(ctx context.Context, teamID uuid.UUID, userID string) (*Member, error) {
	query := `
		SELECT user_id, role, email, joined_at
		FROM team_members WHERE team_id = $1 AND user_id = $2`

	m := &Member{}
	err := ds.db.QueryRowContext(ctx, query, teamID, userID).Scan(&m.UserID, &m.Role, &m.Email, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMember removes a membership.
func (ds *Datastore) DeleteMember(ctx context.Context, teamID uuid.UUID, userID string) (int64, error) {
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	result, err := ds.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
