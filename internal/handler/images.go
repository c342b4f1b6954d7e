package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/imagehost"
)

// maxUploadBytes caps multipart image uploads.
const maxUploadBytes = 10 << 20

// ImageUploader signs and performs image host uploads.
type ImageUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader, folder string) (string, error)
	SignUpload(folder string) (*imagehost.SignedUpload, error)
	Folder(sub string) string
}

// writeImageHostError maps image host failures to responses. It reports
// false when err is not an image host failure.
func writeImageHostError(w http.ResponseWriter, err error) bool {
	var hostErr *imagehost.HostError
	switch {
	case errors.Is(err, imagehost.ErrNotConfigured):
		auth.WriteJSONError(w, http.StatusServiceUnavailable, "image uploads are not configured", auth.TypeUnavailable)
	case errors.Is(err, imagehost.ErrMissingSignature):
		auth.WriteJSONError(w, http.StatusServiceUnavailable, "upload could not be signed", auth.TypeUnavailable)
	case errors.As(err, &hostErr):
		auth.WriteJSONError(w, http.StatusBadGateway, "image host rejected the upload: "+hostErr.Message, auth.TypeUpstream)
	default:
		return false
	}
	return true
}

// isMultipart reports whether r carries a multipart form body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// uploadFormImage uploads the multipart file field to folder. It returns ""
// with no error when the field is absent.
func uploadFormImage(ctx context.Context, r *http.Request, images ImageUploader, field, folder string) (string, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	return images.Upload(ctx, header.Filename, f, images.Folder(folder))
}
