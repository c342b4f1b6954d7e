package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/task"
)

// dueDateLayout is the wire format of task due dates.
const dueDateLayout = "2006-01-02"

// TasksHandler handles task endpoints.
type TasksHandler struct {
	tasks    *task.Manager
	upgrader *websocket.Upgrader
}

// NewTasksHandler creates a new tasks handler. allowedOrigins restricts
// websocket origins; when empty only same-host origins are accepted.
func NewTasksHandler(tasks *task.Manager, allowedOrigins []string) *TasksHandler {
	return &TasksHandler{tasks: tasks, upgrader: newUpgrader(allowedOrigins)}
}

// List handles GET /api/v1/tasks. With ?scope=all a view_all_tasks holder
// gets every task, paged by limit and offset.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var (
		tasks []*task.Task
		err   error
	)
	if r.URL.Query().Get("scope") == "all" {
		if !sess.Capabilities().ViewAllTasks {
			auth.WriteForbidden(w)
			return
		}
		tasks, err = h.tasks.ListAll(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	} else {
		tasks, err = h.tasks.ListForUser(r.Context(), sess.UserID())
	}
	if err != nil {
		writeInternalError(w, r, err, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

type createTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	AssignedTo  []string `json:"assigned_to" validate:"omitempty,dive,required"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     string   `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// Create handles POST /api/v1/tasks
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		CreatorID:   sess.UserID(),
		Assignees:   req.AssignedTo,
		Priority:    task.Priority(req.Priority),
	}
	if req.DueDate != "" {
		due, err := time.Parse(dueDateLayout, req.DueDate)
		if err != nil {
			writeBadRequest(w, "due_date must be YYYY-MM-DD")
			return
		}
		in.DueDate = &due
	}

	t, err := h.tasks.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, task.ErrInvalidTitle), errors.Is(err, task.ErrInvalidPriority):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, r, err, "failed to create task")
		}
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type updateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=backlog todo in_progress done"`
}

// UpdateStatus handles PUT /api/v1/tasks/{id}/status
func (h *TasksHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateTaskStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, ok := h.authorizeMutation(w, r)
	if !ok {
		return
	}

	if err := h.tasks.UpdateStatus(r.Context(), t.ID, task.Status(req.Status)); err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	t.Status = task.Status(req.Status)
	writeJSON(w, http.StatusOK, t)
}

type assignTaskRequest struct {
	AssignedTo []string `json:"assigned_to" validate:"required,min=1,dive,required"`
}

// Assign handles PUT /api/v1/tasks/{id}/assignees
func (h *TasksHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, ok := h.authorizeMutation(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Assign(r.Context(), t.ID, req.AssignedTo); err != nil {
		h.writeMutationError(w, r, err)
		return
	}

	updated, err := h.tasks.Get(r.Context(), t.ID)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/tasks/{id}
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.authorizeMutation(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), t.ID); err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeMutation loads the task named by the path and admits its
// creator, its assignees and view_all_tasks holders.
func (h *TasksHandler) authorizeMutation(w http.ResponseWriter, r *http.Request) (*task.Task, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return nil, false
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid task ID")
		return nil, false
	}

	t, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		h.writeMutationError(w, r, err)
		return nil, false
	}

	uid := sess.UserID()
	if !t.Involves(uid) && !sess.Capabilities().ViewAllTasks {
		auth.WriteForbidden(w)
		return nil, false
	}
	return t, true
}

func (h *TasksHandler) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		writeNotFound(w, "task not found")
	case errors.Is(err, task.ErrInvalidStatus), errors.Is(err, task.ErrNoAssignees):
		writeBadRequest(w, err.Error())
	default:
		writeInternalError(w, r, err, "failed to update task")
	}
}
