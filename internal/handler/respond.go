package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/middleware"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to encode JSON response")
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	auth.WriteJSONError(w, http.StatusBadRequest, message, auth.TypeInvalidRequest)
}

func writeNotFound(w http.ResponseWriter, message string) {
	auth.WriteJSONError(w, http.StatusNotFound, message, auth.TypeNotFound)
}

func writeConflict(w http.ResponseWriter, message string) {
	auth.WriteJSONError(w, http.StatusConflict, message, auth.TypeConflict)
}

// writeInternalError logs err with the request id and writes a generic 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	log.WithError(err).WithFields(log.Fields{
		"request_id": chimw.GetReqID(r.Context()),
		"path":       r.URL.Path,
	}).Error(message)
	auth.WriteJSONError(w, http.StatusInternalServerError, message, auth.TypeServer)
}

// requireSession returns the request session or writes 401.
func requireSession(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		auth.WriteUnauthorized(w)
		return nil, false
	}
	return sess, true
}

// decodeJSON decodes the request body into dst and validates it. It writes
// a 400 and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeBadRequest(w, "invalid JSON")
		return false
	}
	if err := ValidateStruct(dst); err != nil {
		writeBadRequest(w, err.Error())
		return false
	}
	return true
}

// pathUUID parses the named path value as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	s := r.PathValue(name)
	if s == "" {
		return uuid.Nil, errors.New("missing " + name)
	}
	return uuid.Parse(s)
}

// queryInt reads an integer query parameter, returning 0 when absent or malformed.
func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
