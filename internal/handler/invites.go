package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/invite"
	"github.com/thakuramit5464/Personal-Dashboard/internal/profile"
	"github.com/thakuramit5464/Personal-Dashboard/internal/team"
)

// InvitesHandler handles the invite workflow.
type InvitesHandler struct {
	invites *invite.Manager
	teams   *team.Manager
}

// NewInvitesHandler creates a new invites handler.
func NewInvitesHandler(invites *invite.Manager, teams *team.Manager) *InvitesHandler {
	return &InvitesHandler{invites: invites, teams: teams}
}

// List handles GET /api/v1/invites: the live invites addressed to the caller.
func (h *InvitesHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	invites, err := h.invites.ListPendingForEmail(r.Context(), sess.Principal.Email)
	if err != nil {
		writeInternalError(w, r, err, "failed to list invites")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invites": invites,
		"count":   len(invites),
	})
}

type createInviteRequest struct {
	Email     string `json:"email" validate:"required,email"`
	TeamID    string `json:"team_id" validate:"omitempty,uuid"`
	ProjectID string `json:"project_id" validate:"omitempty,uuid"`
	Role      string `json:"role" validate:"omitempty,oneof=admin manager employee partner"`
	TeamRole  string `json:"team_role" validate:"omitempty,oneof=admin manager member"`
}

// Create handles POST /api/v1/invites. Platform invites need manage_users;
// team invites need team admin/manager access and carry no platform role.
func (h *InvitesHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req createInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := invite.CreateInput{
		Email:     req.Email,
		Role:      access.Role(req.Role),
		TeamRole:  access.TeamRole(req.TeamRole),
		InvitedBy: sess.UserID(),
	}
	if req.ProjectID != "" {
		pid, err := uuid.Parse(req.ProjectID)
		if err != nil {
			writeBadRequest(w, "project_id must be a UUID")
			return
		}
		in.ProjectID = &pid
	}

	if req.TeamID == "" {
		if !sess.Capabilities().ManageUsers {
			auth.WriteForbidden(w)
			return
		}
	} else {
		tid, err := uuid.Parse(req.TeamID)
		if err != nil {
			writeBadRequest(w, "team_id must be a UUID")
			return
		}
		in.TeamID = &tid

		level, err := teamAccessFor(r.Context(), h.teams, sess, tid, access.ManageTeams)
		if err != nil {
			writeInternalError(w, r, err, "failed to check membership")
			return
		}
		if level != teamManager {
			auth.WriteForbidden(w)
			return
		}
	}

	inv, err := h.invites.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, invite.ErrDuplicateInvite):
			writeConflict(w, "a pending invite already exists for this email")
		case errors.Is(err, invite.ErrTeamNotFound):
			writeNotFound(w, "team not found")
		case errors.Is(err, invite.ErrProjectNotFound):
			writeNotFound(w, "project not found")
		case errors.Is(err, invite.ErrInvalidEmail), errors.Is(err, invite.ErrInvalidRole),
			errors.Is(err, invite.ErrTeamInviteRole):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, r, err, "failed to create invite")
		}
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Accept handles POST /api/v1/invites/{id}/accept
func (h *InvitesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid invite ID")
		return
	}

	inv, err := h.invites.Accept(r.Context(), id, sess.Principal)
	if err != nil {
		switch {
		case errors.Is(err, invite.ErrNotFound):
			writeNotFound(w, "invite not found")
		case errors.Is(err, invite.ErrEmailMismatch):
			auth.WriteJSONError(w, http.StatusForbidden, "invite is addressed to a different email", auth.TypePermission)
		case errors.Is(err, invite.ErrEmailNotVerified):
			auth.WriteJSONError(w, http.StatusForbidden, "verify your email address before accepting", auth.TypePermission)
		case errors.Is(err, invite.ErrNotPending):
			writeConflict(w, "invite is no longer pending")
		case errors.Is(err, profile.ErrNotFound):
			writeNotFound(w, "profile not found")
		default:
			writeInternalError(w, r, err, "failed to accept invite")
		}
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
