package handler

import (
	"errors"
	"net/http"

	"github.com/thakuramit5464/Personal-Dashboard/internal/todo"
)

// TodosHandler serves the caller's personal todo list.
type TodosHandler struct {
	todos *todo.Store
}

func NewTodosHandler(todos *todo.Store) *TodosHandler {
	return &TodosHandler{todos: todos}
}

// List handles GET /api/v1/todos
func (h *TodosHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	todos, err := h.todos.List(r.Context(), sess.UserID())
	if err != nil {
		writeInternalError(w, r, err, "failed to list todos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"todos": todos, "count": len(todos)})
}

type createTodoRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// Create handles POST /api/v1/todos
func (h *TodosHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.todos.Create(r.Context(), sess.UserID(), req.Text)
	if err != nil {
		if errors.Is(err, todo.ErrInvalidText) {
			writeBadRequest(w, "text is required")
			return
		}
		writeInternalError(w, r, err, "failed to create todo")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Toggle handles PUT /api/v1/todos/{id}/toggle
func (h *TodosHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid todo ID")
		return
	}

	completed, err := h.todos.Toggle(r.Context(), sess.UserID(), id)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			writeNotFound(w, "todo not found")
			return
		}
		writeInternalError(w, r, err, "failed to toggle todo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "completed": completed})
}

// Delete handles DELETE /api/v1/todos/{id}
func (h *TodosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid todo ID")
		return
	}

	if err := h.todos.Delete(r.Context(), sess.UserID(), id); err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			writeNotFound(w, "todo not found")
			return
		}
		writeInternalError(w, r, err, "failed to delete todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
