package task

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status is a task's position on the board.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// board is the left-to-right column order.
var board = []Status{StatusBacklog, StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(board, s)
}

// Next returns the column after s, or s itself at the end of the board.
func (s Status) Next() Status {
	i := slices.Index(board, s)
	if i < 0 || i == len(board)-1 {
		return s
	}
	return board[i+1]
}

// Prev returns the column before s, or s itself at the start of the board.
func (s Status) Prev() Status {
	i := slices.Index(board, s)
	if i <= 0 {
		return s
	}
	return board[i-1]
}

// Priority orders tasks for the assignee.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is visible to every user in AssignedTo. AssignedTo is never empty.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssignedTo  []string   `json:"assigned_to"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Involves reports whether userID created the task or is assigned to it.
func (t *Task) Involves(userID string) bool {
	return t.CreatedBy == userID || slices.Contains(t.AssignedTo, userID)
}

// CreateInput describes a new task.
type CreateInput struct {
	Title       string
	Description string
	CreatorID   string
	Assignees   []string
	Priority    Priority
	DueDate     *time.Time
}
