// Package task stores board tasks and feeds live per-assignee snapshots.
package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/realtime"
)

// Domain errors
var (
	ErrNotFound        = errors.New("task not found")
	ErrInvalidTitle    = errors.New("task title cannot be empty")
	ErrInvalidCreator  = errors.New("task must have a creator")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrNoAssignees     = errors.New("task must have at least one assignee")
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Topic is the realtime topic that signals changes to userID's tasks.
func Topic(userID string) string {
	return "tasks:" + userID
}

// Manager handles business logic for tasks.
type Manager struct {
	ds  *Datastore
	bus realtime.Bus
}

// NewManager creates a new task manager.
func NewManager(ds *Datastore, bus realtime.Bus) *Manager {
	return &Manager{ds: ds, bus: bus}
}

// Create stores a new backlog task. With no assignees the creator is assigned.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	creator := strings.TrimSpace(in.CreatorID)
	if creator == "" {
		return nil, ErrInvalidCreator
	}

	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	assignees := normalizeIDs(in.Assignees)
	if len(assignees) == 0 {
		assignees = []string{creator}
	}

	t := &Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      StatusBacklog,
		Priority:    priority,
		DueDate:     in.DueDate,
		AssignedTo:  assignees,
		CreatedBy:   creator,
	}
	if err := m.ds.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	m.notify(ctx, t.AssignedTo)
	return t, nil
}

// Get retrieves a task by id.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListForUser returns the tasks assigned to userID, newest first.
func (m *Manager) ListForUser(ctx context.Context, userID string) ([]*Task, error) {
	tasks, err := m.ds.ListForAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListAll returns a page of every task, newest first.
func (m *Manager) ListAll(ctx context.Context, limit, offset int) ([]*Task, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	tasks, err := m.ds.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateStatus moves the task to status. Any known status may follow any
// other; the board's forward/back moves use Status.Next and Status.Prev.
func (m *Manager) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	assignees, err := m.ds.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update task status: %w", err)
	}

	m.notify(ctx, assignees)
	return nil
}

// Assign replaces the task's assignees. Both the old and new assignees are notified.
func (m *Manager) Assign(ctx context.Context, id uuid.UUID, userIDs []string) error {
	assignees := normalizeIDs(userIDs)
	if len(assignees) == 0 {
		return ErrNoAssignees
	}

	previous, err := m.ds.ReplaceAssignees(ctx, id, assignees)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to assign task: %w", err)
	}

	m.notify(ctx, append(previous, assignees...))
	return nil
}

// Delete removes the task permanently.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	assignees, err := m.ds.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	m.notify(ctx, assignees)
	return nil
}

// Subscription is a live feed of one user's tasks.
type Subscription struct {
	follower *realtime.Follower
}

// Stop ends the feed. After Stop returns the callback is never invoked again.
// It must not be called from inside the callback.
func (s *Subscription) Stop() {
	s.follower.Stop()
}

// SubscribeForUser calls fn with userID's tasks, newest first, before
// returning, and again after every change that touches them. The feed ends
// on Stop or when ctx is cancelled.
func (m *Manager) SubscribeForUser(ctx context.Context, userID string, fn func([]*Task)) (*Subscription, error) {
	f, err := realtime.Follow(ctx, m.bus, Topic(userID), func(ctx context.Context) ([]*Task, error) {
		return m.ListForUser(ctx, userID)
	}, fn)
	if err != nil {
		return nil, err
	}
	return &Subscription{follower: f}, nil
}

func (m *Manager) notify(ctx context.Context, userIDs []string) {
	for _, uid := range normalizeIDs(userIDs) {
		if err := m.bus.Publish(ctx, Topic(uid), nil); err != nil {
			log.WithError(err).WithField("user_id", uid).Warn("failed to publish task change")
		}
	}
}

// normalizeIDs trims, drops empties and removes duplicates, keeping order.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
