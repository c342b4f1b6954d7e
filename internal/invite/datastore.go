package invite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
)

// DBTX is the interface for database operations.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore handles database operations for invites.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new invite datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const inviteColumns = `id, email, team_id, project_id, role, team_role, invited_by, status, created_at, expires_at, accepted_at`

// PendingIndex is the partial unique index allowing one pending invite per (email, team).
const PendingIndex = "invites_pending_unique"

// Foreign keys on invites, named as Postgres generates them.
const (
	TeamForeignKey    = "invites_team_id_fkey"
	ProjectForeignKey = "invites_project_id_fkey"
)

func scanInvite(row interface{ Scan(...any) error }) (*Invite, error) {
	inv := &Invite{}
	var teamID, projectID uuid.NullUUID
	var teamRole sql.NullString
	var acceptedAt sql.NullTime

	err := row.Scan(&inv.ID, &inv.Email, &teamID, &projectID, &inv.Role, &teamRole,
		&inv.InvitedBy, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt, &acceptedAt)
	if err != nil {
		return nil, err
	}

	if teamID.Valid {
		inv.TeamID = &teamID.UUID
	}
	if projectID.Valid {
		inv.ProjectID = &projectID.UUID
	}
	if teamRole.Valid {
		r := access.TeamRole(teamRole.String)
		inv.TeamRole = &r
	}
	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Time
	}
	return inv, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// ExpireStale marks pending invites for (email, team) whose deadline has passed as expired.
func (ds *Datastore) ExpireStale(ctx context.Context, email string, teamID *uuid.UUID, now time.Time) (int64, error) {
	query := `
		UPDATE invites SET status = 'expired'
		WHERE lower(email) = $1 AND team_id IS NOT DISTINCT FROM $2
		  AND status = 'pending' AND expires_at <= $3`

	result, err := ds.db.ExecContext(ctx, query, email, nullUUID(teamID), now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// HasPending reports whether a pending invite exists for (email, team).
func (ds *Datastore) HasPending(ctx context.Context, email string, teamID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM invites
			WHERE lower(email) = $1 AND team_id IS NOT DISTINCT FROM $2 AND status = 'pending'
		)`

	var exists bool
	err := ds.db.QueryRowContext(ctx, query, email, nullUUID(teamID)).Scan(&exists)
	return exists, err
}

// Insert stores a new invite.
func (ds *Datastore) Insert(ctx context.Context, inv *Invite) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	var teamRole sql.NullString
	if inv.TeamRole != nil {
		teamRole = sql.NullString{String: string(*inv.TeamRole), Valid: true}
	}

	query := `
		INSERT INTO invites (id, email, team_id, project_id, role, team_role, invited_by, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := ds.db.ExecContext(ctx, query,
		inv.ID, inv.Email, nullUUID(inv.TeamID), nullUUID(inv.ProjectID), inv.Role, teamRole,
		inv.InvitedBy, inv.Status, inv.CreatedAt, inv.ExpiresAt,
	)
	return err
}

// GetForUpdate retrieves an invite and locks it for the rest of the transaction.
func (ds *Datastore) GetForUpdate(ctx context.Context, id uuid.UUID) (*Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1 FOR UPDATE`
	return scanInvite(ds.db.QueryRowContext(ctx, query, id))
}

// ListPending returns the live pending invites addressed to email, newest first.
func (ds *Datastore) ListPending(ctx context.Context, email string, now time.Time) ([]*Invite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE lower(email) = $1 AND status = 'pending' AND expires_at > $2
		ORDER BY created_at DESC`

	rows, err := ds.db.QueryContext(ctx, query, email, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []*Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// MarkAccepted flips a live pending invite to accepted.
func (ds *Datastore) MarkAccepted(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	query := `
		UPDATE invites SET status = 'accepted', accepted_at = $2
		WHERE id = $1 AND status = 'pending' AND expires_at > $2`

	result, err := ds.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
