package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/project"
	"github.com/thakuramit5464/Personal-Dashboard/internal/team"
)

// ProjectsHandler handles project endpoints.
type ProjectsHandler struct {
	projects *project.Manager
	teams    *team.Manager
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projects *project.Manager, teams *team.Manager) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, teams: teams}
}

// List handles GET /api/v1/projects
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var teamIDs []uuid.UUID
	if sess.Profile != nil {
		teamIDs = sess.Profile.TeamIDs
	}

	projects, err := h.projects.ListForUser(r.Context(), teamIDs)
	if err != nil {
		writeInternalError(w, r, err, "failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"count":    len(projects),
	})
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	TeamID      string `json:"team_id" validate:"required,uuid"`
}

// Create handles POST /api/v1/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		writeBadRequest(w, "team_id must be a UUID")
		return
	}

	level, err := teamAccessFor(r.Context(), h.teams, sess, teamID, access.ManageProjects)
	if err != nil {
		writeInternalError(w, r, err, "failed to check membership")
		return
	}
	if level == teamNone {
		auth.WriteForbidden(w)
		return
	}

	p, err := h.projects.Create(r.Context(), req.Name, req.Description, teamID, sess.UserID())
	if err != nil {
		switch {
		case errors.Is(err, project.ErrInvalidName), errors.Is(err, project.ErrInvalidTeam):
			writeBadRequest(w, err.Error())
		case errors.Is(err, project.ErrTeamNotFound):
			writeNotFound(w, "team not found")
		default:
			writeInternalError(w, r, err, "failed to create project")
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Get handles GET /api/v1/projects/{id}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	p, ok := h.load(w, r)
	if !ok {
		return
	}

	level, err := teamAccessFor(r.Context(), h.teams, sess, p.TeamID, access.ManageProjects)
	if err != nil {
		writeInternalError(w, r, err, "failed to check membership")
		return
	}
	if level == teamNone {
		auth.WriteForbidden(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateProjectStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active archived completed"`
}

// UpdateStatus handles PUT /api/v1/projects/{id}/status
func (h *ProjectsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req updateProjectStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, ok := h.load(w, r)
	if !ok {
		return
	}

	level, err := teamAccessFor(r.Context(), h.teams, sess, p.TeamID, access.ManageProjects)
	if err != nil {
		writeInternalError(w, r, err, "failed to check membership")
		return
	}
	if level != teamManager {
		auth.WriteForbidden(w)
		return
	}

	if err := h.projects.UpdateStatus(r.Context(), p.ID, project.Status(req.Status)); err != nil {
		switch {
		case errors.Is(err, project.ErrNotFound):
			writeNotFound(w, "project not found")
		case errors.Is(err, project.ErrInvalidStatus):
			writeBadRequest(w, "invalid project status")
		default:
			writeInternalError(w, r, err, "failed to update project")
		}
		return
	}

	p.Status = project.Status(req.Status)
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectsHandler) load(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid project ID")
		return nil, false
	}
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			writeNotFound(w, "project not found")
			return nil, false
		}
		writeInternalError(w, r, err, "failed to get project")
		return nil, false
	}
	return p, true
}
