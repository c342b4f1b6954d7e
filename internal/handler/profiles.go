package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/imagehost"
	"github.com/thakuramit5464/Personal-Dashboard/internal/profile"
)

// ProfilesHandler serves the caller's profile and admin user management.
type ProfilesHandler struct {
	profiles *profile.Manager
	images   ImageUploader
	upgrader *websocket.Upgrader
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(profiles *profile.Manager, images ImageUploader, allowedOrigins []string) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, images: images, upgrader: newUpgrader(allowedOrigins)}
}

// meResponse describes the session. Profile and Role are null when the
// caller's profile could not be resolved.
type meResponse struct {
	ID            string              `json:"id"`
	Email         string              `json:"email"`
	EmailVerified bool                `json:"email_verified"`
	Role          *access.Role        `json:"role"`
	Capabilities  access.Capabilities `json:"capabilities"`
	Profile       *profile.Profile    `json:"profile"`
}

// Me handles GET /api/v1/me
func (h *ProfilesHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		ID:            sess.UserID(),
		Email:         sess.Principal.Email,
		EmailVerified: sess.Principal.EmailVerified,
		Role:          sess.Role(),
		Capabilities:  sess.Capabilities(),
		Profile:       sess.Profile,
	})
}

// profileSnapshot is the message pushed on the profile stream. Role and
// capabilities are recomputed from each fresh read.
type profileSnapshot struct {
	Type         string              `json:"type"`
	Role         access.Role         `json:"role"`
	Capabilities access.Capabilities `json:"capabilities"`
	Profile      *profile.Profile    `json:"profile"`
}

// Stream handles GET /api/v1/me/stream. The connection receives the caller's
// profile on connect and again whenever it changes, so a role change reaches
// an open session without a reload.
func (h *ProfilesHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	uid := sess.UserID()

	serveSnapshots(w, r, h.upgrader, "profile", uid,
		func(ctx context.Context, push func(*profile.Profile)) (stopper, error) {
			return h.profiles.Watch(ctx, uid, push)
		},
		func(p *profile.Profile) any {
			return profileSnapshot{Type: "profile", Role: p.Role, Capabilities: access.For(&p.Role), Profile: p}
		})
}

type updateMeRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	PhotoURL *string `json:"photo_url" validate:"omitempty,url"`
}

// UpdateMe handles PATCH /api/v1/me
func (h *ProfilesHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req updateMeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.profiles.Update(r.Context(), sess.UserID(), profile.Changes{Name: req.Name, PhotoURL: req.PhotoURL})
	if err != nil {
		h.writeUpdateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UploadPhoto handles POST /api/v1/me/photo (multipart field "file").
func (h *ProfilesHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeBadRequest(w, "expected a multipart form")
		return
	}

	url, err := uploadFormImage(r.Context(), r, h.images, "file", imagehost.FolderProfiles)
	if err != nil {
		if writeImageHostError(w, err) {
			return
		}
		writeInternalError(w, r, err, "failed to upload photo")
		return
	}
	if url == "" {
		writeBadRequest(w, "file is required")
		return
	}

	p, err := h.profiles.Update(r.Context(), sess.UserID(), profile.Changes{PhotoURL: &url})
	if err != nil {
		h.writeUpdateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfilesHandler) writeUpdateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, profile.ErrInvalidName):
		writeBadRequest(w, "name cannot be empty")
	case errors.Is(err, profile.ErrNotFound):
		writeNotFound(w, "profile not found")
	default:
		writeInternalError(w, r, err, "failed to update profile")
	}
}

// ListUsers handles GET /api/v1/users
func (h *ProfilesHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.profiles.List(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeInternalError(w, r, err, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// SetRole handles PUT /api/v1/users/{id}/role
func (h *ProfilesHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeBadRequest(w, "invalid user ID")
		return
	}

	var req setRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		writeBadRequest(w, "role must be one of: admin, manager, employee, partner")
		return
	}

	if err := h.profiles.SetRole(r.Context(), id, role); err != nil {
		switch {
		case errors.Is(err, profile.ErrNotFound):
			writeNotFound(w, "user not found")
		case errors.Is(err, profile.ErrInvalidRole):
			writeBadRequest(w, "invalid role")
		default:
			writeInternalError(w, r, err, "failed to set role")
		}
		return
	}

	p, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err, "failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
