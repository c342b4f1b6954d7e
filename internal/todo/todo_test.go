package todo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestStore_Create(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(`INSERT INTO todos`).
		WithArgs(sqlmock.AnyArg(), "u1", "buy milk", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	todo, err := store.Create(context.Background(), "u1", "  buy milk ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if todo.Completed {
		t.Error("new todo should not be completed")
	}

	if _, err := store.Create(context.Background(), "u1", " "); err != ErrInvalidText {
		t.Errorf("expected ErrInvalidText, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	store, mock := newTestStore(t)
	now := time.Now()

	mock.ExpectQuery(`FROM todos WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "text", "completed", "created_at", "updated_at"}).
			AddRow(uuid.NewString(), "u1", "b", false, now, now).
			AddRow(uuid.NewString(), "u1", "a", true, now.Add(-time.Hour), now))

	todos, err := store.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(todos) != 2 || todos[0].Text != "b" || !todos[1].Completed {
		t.Errorf("unexpected todos %+v", todos)
	}
}

func TestStore_Toggle(t *testing.T) {
	store, mock := newTestStore(t)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE todos SET completed = NOT completed`).
		WithArgs(id, "u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"completed"}).AddRow(true))
	completed, err := store.Toggle(context.Background(), "u1", id)
	if err != nil || !completed {
		t.Errorf("Toggle() = %v, %v", completed, err)
	}

	mock.ExpectQuery(`UPDATE todos`).WillReturnError(sql.ErrNoRows)
	if _, err := store.Toggle(context.Background(), "u2", id); err != ErrNotFound {
		t.Errorf("other user's todo should be not found, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store, mock := newTestStore(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM todos WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Delete(context.Background(), "u1", id); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	mock.ExpectExec(`DELETE FROM todos`).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.Delete(context.Background(), "u1", id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
