package auth

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// ErrorType classifies an error body for clients.
type ErrorType string

const (
	TypeAuthentication ErrorType = "authentication_error"
	TypePermission     ErrorType = "permission_error"
	TypeInvalidRequest ErrorType = "invalid_request_error"
	TypeNotFound       ErrorType = "not_found_error"
	TypeConflict       ErrorType = "conflict_error"
	TypeUnavailable    ErrorType = "unavailable_error"
	TypeUpstream       ErrorType = "upstream_error"
	TypeServer         ErrorType = "server_error"
)

// APIError is the JSON error body returned by every endpoint.
type APIError struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string    `json:"message"`
	Type    ErrorType `json:"type"`
}

// WriteJSONError writes {"error": {"message": ..., "type": ...}} with status.
func WriteJSONError(w http.ResponseWriter, status int, message string, errType ErrorType) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := APIError{Error: ErrorDetail{Message: message, Type: errType}}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to write JSON error response")
	}
}

// WriteUnauthorized is the 401 for a missing or malformed credential.
func WriteUnauthorized(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusUnauthorized, "unauthorized", TypeAuthentication)
}

// WriteInvalidToken is the 401 for a token that failed verification.
func WriteInvalidToken(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusUnauthorized, "invalid token", TypeAuthentication)
}

// WriteForbidden is the 403 for an authenticated caller lacking authority.
func WriteForbidden(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusForbidden, "forbidden", TypePermission)
}
