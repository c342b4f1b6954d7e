package handler

import (
	"net/http"

	"github.com/thakuramit5464/Personal-Dashboard/internal/imagehost"
)

// UploadsHandler signs direct browser uploads to the image host.
type UploadsHandler struct {
	images ImageUploader
}

func NewUploadsHandler(images ImageUploader) *UploadsHandler {
	return &UploadsHandler{images: images}
}

type signUploadRequest struct {
	Folder string `json:"folder" validate:"omitempty,oneof=user_profiles attendance"`
}

// Sign handles POST /api/v1/uploads/sign. An empty body signs a profile upload.
func (h *UploadsHandler) Sign(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}

	var req signUploadRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	folder := req.Folder
	if folder == "" {
		folder = imagehost.FolderProfiles
	}

	signed, err := h.images.SignUpload(h.images.Folder(folder))
	if err != nil {
		if writeImageHostError(w, err) {
			return
		}
		writeInternalError(w, r, err, "failed to sign upload")
		return
	}
	writeJSON(w, http.StatusOK, signed)
}
