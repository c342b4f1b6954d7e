// Package middleware provides HTTP middleware for the dashboard API.
package middleware

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionContextKey is the context key for storing the request session.
const SessionContextKey contextKey = "session"

// GetSession retrieves the authenticated session from the request context.
func GetSession(ctx context.Context) (*auth.Session, bool) {
	sess, ok := ctx.Value(SessionContextKey).(*auth.Session)
	return sess, ok && sess != nil
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *auth.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, sess)
}

// RequireAuth returns middleware that authenticates requests using store and
// attaches the resulting session to the request context.
//
// Error responses:
//   - 401 Unauthorized: missing or malformed Authorization header, or a
//     token that fails verification
//   - 500 Internal Server Error: any other store failure
//
// Websocket handshakes may pass the token as the access_token query parameter.
func RequireAuth(store auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromRequest(r)
			if err != nil {
				auth.WriteUnauthorized(w)
				return
			}

			sess, err := store.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					auth.WriteInvalidToken(w)
					return
				}
				log.WithError(err).Error("failed to authenticate request")
				auth.WriteJSONError(w, http.StatusInternalServerError, "internal error", auth.TypeServer)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireCapability returns middleware that admits only sessions whose role
// grants c. It must run after RequireAuth. A session without a resolved
// role is refused.
func RequireCapability(c access.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok {
				auth.WriteUnauthorized(w)
				return
			}
			if !sess.Capabilities().Allows(c) {
				auth.WriteForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
