// Package todo stores personal todo items.
package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("todo not found")
	ErrInvalidText = errors.New("todo text cannot be empty")
)

type Todo struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DBTX is the interface for database operations.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store reads and writes todos. Every operation is scoped to the owner.
type Store struct {
	db DBTX
}

func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, userID, text string) (*Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidText
	}

	now := time.Now()
	t := &Todo{ID: uuid.New(), UserID: userID, Text: text, CreatedAt: now, UpdatedAt: now}

	query := `
		INSERT INTO todos (id, user_id, text, completed, created_at, updated_at)
		VALUES ($1, $2, $3, false, $4, $5)`
	if _, err := s.db.ExecContext(ctx, query, t.ID, userID, text, now, now); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return t, nil
}

// List returns the owner's todos, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]*Todo, error) {
	query := `
		SELECT id, user_id, text, completed, created_at, updated_at
		FROM todos WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []*Todo{}
	for rows.Next() {
		t := &Todo{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Text, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// Toggle flips completed in one statement and returns the new value.
func (s *Store) Toggle(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	query := `
		UPDATE todos SET completed = NOT completed, updated_at = $3
		WHERE id = $1 AND user_id = $2
		RETURNING completed`

	var completed bool
	err := s.db.QueryRowContext(ctx, query, id, userID, time.Now()).Scan(&completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to toggle todo: %w", err)
	}
	return completed, nil
}

func (s *Store) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
