package task

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

// Datastore handles database operations for tasks.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new task datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const taskColumns = `id, title, description, status, priority, due_date, assigned_to, created_by, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*Task, error) {
	t := &Task{}
	var due sql.NullTime
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &due,
		pq.Array(&t.AssignedTo), &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	return t, nil
}

func scanTasks(rows *sql.Rows) ([]*Task, error) {
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Create inserts a task.
func (ds *Datastore) Create(ctx context.Context, t *Task) error {
	now := time.Now()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	query := `
		INSERT INTO tasks (id, title, description, status, priority, due_date, assigned_to, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	return ds.db.QueryRowContext(ctx, query,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate,
		pq.Array(t.AssignedTo), t.CreatedBy, now, now,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a task by id.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(ds.db.QueryRowContext(ctx, query, id))
}

// ListForAssignee returns the tasks assigned to userID, newest first.
func (ds *Datastore) ListForAssignee(ctx context.Context, userID string) ([]*Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE $1 = ANY(assigned_to)
		ORDER BY created_at DESC`

	rows, err := ds.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// ListAll returns every task, newest first.
func (ds *Datastore) ListAll(ctx context.Context, limit, offset int) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := ds.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// UpdateStatus sets the status and returns the task's assignees.
func (ds *Datastore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) ([]string, error) {
	query := `UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1 RETURNING assigned_to`

	var assignees []string
	err := ds.db.QueryRowContext(ctx, query, id, status, time.Now()).Scan(pq.Array(&assignees))
	return assignees, err
}

// ReplaceAssignees sets the assignee list and returns the previous one.
func (ds *Datastore) ReplaceAssignees(ctx context.Context, id uuid.UUID, assignees []string) ([]string, error) {
	query := `
		UPDATE tasks t
		SET assigned_to = $2, updated_at = $3
		FROM (SELECT id, assigned_to FROM tasks WHERE id = $1 FOR UPDATE) old
		WHERE t.id = old.id
		RETURNING old.assigned_to`

	var previous []string
	err := ds.db.QueryRowContext(ctx, query, id, pq.Array(assignees), time.Now()).Scan(pq.Array(&previous))
	return previous, err
}

// Delete removes a task and returns the assignees it had.
func (ds *Datastore) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	query := `DELETE FROM tasks WHERE id = $1 RETURNING assigned_to`

	var assignees []string
	err := ds.db.QueryRowContext(ctx, query, id).Scan(pq.Array(&assignees))
	return assignees, err
}
