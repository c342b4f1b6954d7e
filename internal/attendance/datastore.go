package attendance

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

// Datastore handles database operations for attendance sessions.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new attendance datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

// ActiveIndex is the partial unique index allowing one active session per user.
const ActiveIndex = "attendance_one_active_per_user"

const sessionColumns = `id, user_id, clock_in_at, clock_in_image, clock_out_at, clock_out_image, status`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	s := &Session{}
	var outAt sql.NullTime
	var outImage sql.NullString
	if err := row.Scan(&s.ID, &s.UserID, &s.ClockInAt, &s.ClockInImage, &outAt, &outImage, &s.Status); err != nil {
		return nil, err
	}
	if outAt.Valid {
		s.ClockOutAt = &outAt.Time
	}
	if outImage.Valid {
		s.ClockOutImage = &outImage.String
	}
	return s, nil
}

// Open inserts an active session.
func (ds *Datastore) Open(ctx context.Context, s *Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	query := `
		INSERT INTO attendance_sessions (id, user_id, clock_in_at, clock_in_image, status)
		VALUES ($1, $2, $3, $4, 'active')`

	_, err := ds.db.ExecContext(ctx, query, s.ID, s.UserID, s.ClockInAt, s.ClockInImage)
	return err
}

// CloseActive completes the user's active session and returns it.
func (ds *Datastore) CloseActive(ctx context.Context, userID string, at time.Time, image string) (*Session, error) {
	query := `
		UPDATE attendance_sessions
		SET clock_out_at = $2, clock_out_image = $3, status = 'completed'
		WHERE user_id = $1 AND status = 'active'
		RETURNING ` + sessionColumns

	return scanSession(ds.db.QueryRowContext(ctx, query, userID, at, image))
}

// Active returns the user's active session.
func (ds *Datastore) Active(ctx context.Context, userID string) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE user_id = $1 AND status = 'active'`
	return scanSession(ds.db.QueryRowContext(ctx, query, userID))
}

// History returns the user's sessions, newest first.
func (ds *Datastore) History(ctx context.Context, userID string, limit int) ([]*Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE user_id = $1
		ORDER BY clock_in_at DESC
		LIMIT $2`

	rows, err := ds.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
