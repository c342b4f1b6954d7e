package task

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/thakuramit5464/Personal-Dashboard/internal/realtime"
)

var taskCols = []string{"id", "title", "description", "status", "priority", "due_date", "assigned_to", "created_by", "created_at", "updated_at"}

func newTestManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	bus := realtime.NewMemoryBus()
	t.Cleanup(func() {
		bus.Close()
		db.Close()
	})
	return NewManager(NewDatastore(db), bus), mock
}

func taskRows(tasks ...*Task) *sqlmock.Rows {
	rows := sqlmock.NewRows(taskCols)
	for _, t := range tasks {
		assigned, _ := pq.Array(t.AssignedTo).Value()
		rows.AddRow(t.ID.String(), t.Title, t.Description, string(t.Status), string(t.Priority), nil,
			assigned, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	}
	return rows
}

func TestStatus_NextPrev(t *testing.T) {
	tests := []struct {
		s          Status
		next, prev Status
	}{
		{StatusBacklog, StatusTodo, StatusBacklog},
		{StatusTodo, StatusInProgress, StatusBacklog},
		{StatusInProgress, StatusDone, StatusTodo},
		{StatusDone, StatusDone, StatusInProgress},
	}
	for _, tt := range tests {
		if got := tt.s.Next(); got != tt.next {
			t.Errorf("%s.Next() = %s, want %s", tt.s, got, tt.next)
		}
		if got := tt.s.Prev(); got != tt.prev {
			t.Errorf("%s.Prev() = %s, want %s", tt.s, got, tt.prev)
		}
	}
	if Status("blocked").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestManager_Create_DefaultsAssigneeToCreator(t *testing.T) {
	mgr, mock := newTestManager(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(sqlmock.AnyArg(), "Write docs", "", StatusBacklog, PriorityMedium, nil,
			pq.Array([]string{"U1"}), "U1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	task, err := mgr.Create(context.Background(), CreateInput{Title: "Write docs", CreatorID: "U1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(task.AssignedTo) != 1 || task.AssignedTo[0] != "U1" {
		t.Errorf("AssignedTo = %v, want [U1]", task.AssignedTo)
	}
	if task.Status != StatusBacklog {
		t.Errorf("Status = %q, want backlog", task.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestManager_Create_NormalizesAssignees(t *testing.T) {
	mgr, mock := newTestManager(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(sqlmock.AnyArg(), "t", "", StatusBacklog, PriorityHigh, nil,
			pq.Array([]string{"U2", "U3"}), "U1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	_, err := mgr.Create(context.Background(), CreateInput{
		Title:     "t",
		CreatorID: "U1",
		Assignees: []string{" U2", "", "U3", "U2"},
		Priority:  PriorityHigh,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestManager_Create_Validation(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := mgr.Create(ctx, CreateInput{CreatorID: "U1"}); err != ErrInvalidTitle {
		t.Errorf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := mgr.Create(ctx, CreateInput{Title: "t"}); err != ErrInvalidCreator {
		t.Errorf("expected ErrInvalidCreator, got %v", err)
	}
	if _, err := mgr.Create(ctx, CreateInput{Title: "t", CreatorID: "U1", Priority: "urgent"}); err != ErrInvalidPriority {
		t.Errorf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestManager_UpdateStatus(t *testing.T) {
	mgr, mock := newTestManager(t)
	id := uuid.New()

	if err := mgr.UpdateStatus(context.Background(), id, "blocked"); err != ErrInvalidStatus {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}

	// Jumping straight from backlog to done is accepted.
	mock.ExpectQuery(`UPDATE tasks SET status = \$2, updated_at = \$3 WHERE id = \$1 RETURNING assigned_to`).
		WithArgs(id, StatusDone, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"assigned_to"}).AddRow("{U1}"))
	if err := mgr.UpdateStatus(context.Background(), id, StatusDone); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	mock.ExpectQuery(`UPDATE tasks SET status`).WillReturnError(sql.ErrNoRows)
	if err := mgr.UpdateStatus(context.Background(), id, StatusTodo); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_Assign(t *testing.T) {
	mgr, mock := newTestManager(t)
	id := uuid.New()

	if err := mgr.Assign(context.Background(), id, []string{" ", ""}); err != ErrNoAssignees {
		t.Errorf("expected ErrNoAssignees, got %v", err)
	}

	mock.ExpectQuery(`UPDATE tasks t\s+SET assigned_to = \$2`).
		WithArgs(id, pq.Array([]string{"U2"}), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"assigned_to"}).AddRow("{U1}"))
	if err := mgr.Assign(context.Background(), id, []string{"U2"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	mgr, mock := newTestManager(t)
	id := uuid.New()

	mock.ExpectQuery(`DELETE FROM tasks WHERE id = \$1 RETURNING assigned_to`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"assigned_to"}).AddRow("{U1}"))
	if err := mgr.Delete(context.Background(), id); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	mock.ExpectQuery(`DELETE FROM tasks`).WillReturnError(sql.ErrNoRows)
	if err := mgr.Delete(context.Background(), id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_SubscribeForUser_InitialEmptySnapshot(t *testing.T) {
	mgr, mock := newTestManager(t)

	mock.ExpectQuery(`WHERE \$1 = ANY\(assigned_to\)\s+ORDER BY created_at DESC`).
		WithArgs("U1").
		WillReturnRows(sqlmock.NewRows(taskCols))

	var calls [][]*Task
	sub, err := mgr.SubscribeForUser(context.Background(), "U1", func(tasks []*Task) {
		calls = append(calls, tasks)
	})
	if err != nil {
		t.Fatalf("SubscribeForUser() error = %v", err)
	}
	defer sub.Stop()

	if len(calls) != 1 {
		t.Fatalf("expected one callback before any mutation, got %d", len(calls))
	}
	if calls[0] == nil || len(calls[0]) != 0 {
		t.Errorf("expected empty snapshot, got %v", calls[0])
	}
}

func TestManager_SubscribeForUser_DeliversAfterCreate(t *testing.T) {
	mgr, mock := newTestManager(t)
	now := time.Now()
	created := &Task{ID: uuid.New(), Title: "Write docs", Status: StatusBacklog, Priority: PriorityMedium,
		AssignedTo: []string{"U1"}, CreatedBy: "U1", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(`WHERE \$1 = ANY\(assigned_to\)`).WithArgs("U1").WillReturnRows(sqlmock.NewRows(taskCols))
	mock.ExpectQuery(`INSERT INTO tasks`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery(`WHERE \$1 = ANY\(assigned_to\)`).WithArgs("U1").WillReturnRows(taskRows(created))

	snapshots := make(chan []*Task, 4)
	sub, err := mgr.SubscribeForUser(context.Background(), "U1", func(tasks []*Task) { snapshots <- tasks })
	if err != nil {
		t.Fatalf("SubscribeForUser() error = %v", err)
	}
	defer sub.Stop()
	<-snapshots

	if _, err := mgr.Create(context.Background(), CreateInput{Title: "Write docs", CreatorID: "U1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	select {
	case tasks := <-snapshots:
		if len(tasks) != 1 || tasks[0].Title != "Write docs" {
			t.Errorf("unexpected snapshot %v", tasks)
		}
		if tasks[0].AssignedTo[0] != "U1" {
			t.Errorf("AssignedTo = %v", tasks[0].AssignedTo)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot after create")
	}
}

func TestManager_SubscribeForUser_StopEndsDelivery(t *testing.T) {
	mgr, mock := newTestManager(t)

	mock.ExpectQuery(`WHERE \$1 = ANY\(assigned_to\)`).WillReturnRows(sqlmock.NewRows(taskCols))

	calls := 0
	sub, err := mgr.SubscribeForUser(context.Background(), "U1", func([]*Task) { calls++ })
	if err != nil {
		t.Fatalf("SubscribeForUser() error = %v", err)
	}
	sub.Stop()

	mgr.notify(context.Background(), []string{"U1"})
	time.Sleep(20 * time.Millisecond)

	if calls != 1 {
		t.Errorf("callback ran after Stop: %d calls", calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no reload expected after Stop: %v", err)
	}
}
