package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/thakuramit5464/Personal-Dashboard/internal/attendance"
	"github.com/thakuramit5464/Personal-Dashboard/internal/imagehost"
)

// AttendanceHandler handles clock-in/out endpoints.
type AttendanceHandler struct {
	attendance *attendance.Manager
	images     ImageUploader
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(m *attendance.Manager, images ImageUploader) *AttendanceHandler {
	return &AttendanceHandler{attendance: m, images: images}
}

type activeSessionResponse struct {
	*attendance.Session
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

// Get handles GET /api/v1/attendance
func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	uid := sess.UserID()

	active, err := h.attendance.Active(r.Context(), uid)
	if err != nil {
		writeInternalError(w, r, err, "failed to get attendance")
		return
	}
	history, err := h.attendance.History(r.Context(), uid, queryInt(r, "limit"))
	if err != nil {
		writeInternalError(w, r, err, "failed to get attendance")
		return
	}

	var activeResp *activeSessionResponse
	if active != nil {
		activeResp = &activeSessionResponse{
			Session:        active,
			ElapsedSeconds: int64(h.attendance.Elapsed(active).Seconds()),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":  activeResp,
		"history": history,
	})
}

// ClockIn handles POST /api/v1/attendance/clock-in
func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	image, ok := h.image(w, r)
	if !ok {
		return
	}

	s, err := h.attendance.ClockIn(r.Context(), sess.UserID(), image)
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyClockedIn) {
			writeConflict(w, "already clocked in")
			return
		}
		writeInternalError(w, r, err, "failed to clock in")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// ClockOut handles POST /api/v1/attendance/clock-out
func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	image, ok := h.image(w, r)
	if !ok {
		return
	}

	s, err := h.attendance.ClockOut(r.Context(), sess.UserID(), image)
	if err != nil {
		if errors.Is(err, attendance.ErrNoActiveSession) {
			writeConflict(w, "not clocked in")
			return
		}
		writeInternalError(w, r, err, "failed to clock out")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type clockRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

// image takes the capture from a multipart "image" file, which is uploaded
// to the image host, or from an image_url given as a form or JSON field.
func (h *AttendanceHandler) image(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !isMultipart(r) {
		var req clockRequest
		if !decodeJSON(w, r, &req) {
			return "", false
		}
		return req.ImageURL, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeBadRequest(w, "invalid multipart form")
		return "", false
	}

	url, err := uploadFormImage(r.Context(), r, h.images, "image", imagehost.FolderAttendance)
	if err != nil {
		if !writeImageHostError(w, err) {
			writeInternalError(w, r, err, "failed to upload image")
		}
		return "", false
	}
	if url == "" {
		url = strings.TrimSpace(r.FormValue("image_url"))
	}
	if url == "" {
		writeBadRequest(w, "image or image_url is required")
		return "", false
	}
	return url, true
}
