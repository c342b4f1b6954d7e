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

// TeamsHandler handles team and membership endpoints.
type TeamsHandler struct {
	teams    *team.Manager
	projects *project.Manager
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(teams *team.Manager, projects *project.Manager) *TeamsHandler {
	return &TeamsHandler{teams: teams, projects: projects}
}

// List handles GET /api/v1/teams
func (h *TeamsHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	teams, err := h.teams.ListForUser(r.Context(), sess.UserID())
	if err != nil {
		writeInternalError(w, r, err, "failed to list teams")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"teams": teams,
		"count": len(teams),
	})
}

type createTeamRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// Create handles POST /api/v1/teams
func (h *TeamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.teams.Create(r.Context(), req.Name, sess.UserID(), sess.Principal.Email)
	if err != nil {
		if errors.Is(err, team.ErrInvalidName) {
			writeBadRequest(w, "name is required")
			return
		}
		writeInternalError(w, r, err, "failed to create team")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Get handles GET /api/v1/teams/{id}
func (h *TeamsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid team ID")
		return
	}

	t, err := h.teams.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err, "failed to get team")
		return
	}
	if t == nil {
		writeNotFound(w, "team not found")
		return
	}
	if _, member := t.Member(sess.UserID()); !member && !sess.Capabilities().ManageUsers {
		auth.WriteForbidden(w)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Role   string `json:"role" validate:"omitempty,oneof=admin manager member"`
}

// AddMember handles POST /api/v1/teams/{id}/members
func (h *TeamsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid team ID")
		return
	}

	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !h.authorizeManage(w, r, sess, id) {
		return
	}

	m, err := h.teams.AddMember(r.Context(), id, team.Member{
		UserID: req.UserID,
		Email:  req.Email,
		Role:   access.TeamRole(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, team.ErrAlreadyMember):
			writeConflict(w, "user is already a member of this team")
		case errors.Is(err, team.ErrNotFound):
			writeNotFound(w, "team not found")
		case errors.Is(err, team.ErrInvalidMember), errors.Is(err, team.ErrInvalidRole):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, r, err, "failed to add member")
		}
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// RemoveMember handles DELETE /api/v1/teams/{id}/members/{userId}
func (h *TeamsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid team ID")
		return
	}
	userID := r.PathValue("userId")
	if userID == "" {
		writeBadRequest(w, "invalid user ID")
		return
	}

	if !h.authorizeManage(w, r, sess, id) {
		return
	}

	if err := h.teams.RemoveMember(r.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, team.ErrNotFound):
			writeNotFound(w, "team not found")
		case errors.Is(err, team.ErrNotMember):
			writeNotFound(w, "user is not a member of this team")
		case errors.Is(err, team.ErrCannotRemoveCreator):
			writeConflict(w, "cannot remove the team creator")
		default:
			writeInternalError(w, r, err, "failed to remove member")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProjects handles GET /api/v1/teams/{id}/projects
func (h *TeamsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid team ID")
		return
	}

	level, err := teamAccessFor(r.Context(), h.teams, sess, id, access.ManageProjects)
	if err != nil {
		writeInternalError(w, r, err, "failed to check membership")
		return
	}
	if level == teamNone {
		auth.WriteForbidden(w)
		return
	}

	projects, err := h.projects.ListForTeam(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err, "failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"count":    len(projects),
	})
}

// authorizeManage admits team admins and managers, members holding
// manage_teams, and manage_users holders.
func (h *TeamsHandler) authorizeManage(w http.ResponseWriter, r *http.Request, sess *auth.Session, teamID uuid.UUID) bool {
	level, err := teamAccessFor(r.Context(), h.teams, sess, teamID, access.ManageTeams)
	if err != nil {
		writeInternalError(w, r, err, "failed to check membership")
		return false
	}
	if level != teamManager {
		auth.WriteForbidden(w)
		return false
	}
	return true
}
