// Package auth resolves bearer tokens into request sessions and writes
// the service's JSON error bodies.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Token extraction failures. They are for logs only; clients get a plain 401.
var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthScheme = errors.New("invalid authorization scheme: expected Bearer")
	ErrEmptyToken        = errors.New("empty bearer token")
)

// QueryTokenParam carries the token on websocket handshakes.
const QueryTokenParam = "access_token"

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found && strings.EqualFold(scheme, "Bearer") {
		return "", ErrEmptyToken
	}
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidAuthScheme
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// TokenFromRequest extracts the bearer token. A websocket handshake without
// an Authorization header may carry the token in the access_token query
// parameter, since browsers cannot set headers on it. Plain requests never
// read the query.
func TokenFromRequest(r *http.Request) (string, error) {
	token, err := ExtractBearerToken(r)
	if err == nil || !errors.Is(err, ErrMissingAuthHeader) || !websocket.IsWebSocketUpgrade(r) {
		return token, err
	}

	if q := strings.TrimSpace(r.URL.Query().Get(QueryTokenParam)); q != "" {
		return q, nil
	}
	return "", err
}
