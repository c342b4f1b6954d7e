package auth

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/jwtauth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/profile"
)

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Session is the authenticated caller of one request.
// Profile is nil when the principal could not be resolved; such a session
// has no role and therefore no capabilities.
type Session struct {
	Principal jwtauth.Principal
	Profile   *profile.Profile
}

// UserID returns the principal id.
func (s *Session) UserID() string {
	return s.Principal.ID
}

// Role returns the caller's platform role, or nil when unresolved.
func (s *Session) Role() *access.Role {
	if s == nil || s.Profile == nil {
		return nil
	}
	role := s.Profile.Role
	return &role
}

// Capabilities returns the capability set for the caller's role.
func (s *Session) Capabilities() access.Capabilities {
	return access.For(s.Role())
}

// TokenVerifier verifies bearer tokens issued by the auth provider.
type TokenVerifier interface {
	VerifyPrincipal(ctx context.Context, token string) (jwtauth.Principal, error)
}

// ProfileResolver maps a verified principal to its profile.
type ProfileResolver interface {
	Resolve(ctx context.Context, principal jwtauth.Principal) (*profile.Profile, error)
}

// SessionStore turns a raw bearer token into a session.
// Implementations return ErrInvalidToken for tokens that do not verify.
type SessionStore interface {
	Authenticate(ctx context.Context, token string) (*Session, error)
}

// Authenticator verifies the token then resolves the profile.
type Authenticator struct {
	verifier TokenVerifier
	profiles ProfileResolver
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(verifier TokenVerifier, profiles ProfileResolver) *Authenticator {
	return &Authenticator{verifier: verifier, profiles: profiles}
}

// Authenticate verifies token and resolves the caller's profile. A resolve
// failure is logged and yields a session without a profile.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Session, error) {
	principal, err := a.verifier.VerifyPrincipal(ctx, token)
	if err != nil {
		log.WithError(err).Debug("bearer token rejected")
		return nil, ErrInvalidToken
	}

	sess := &Session{Principal: principal}
	p, err := a.profiles.Resolve(ctx, principal)
	if err != nil {
		log.WithError(err).WithField("user_id", principal.ID).Error("failed to resolve profile")
		return sess, nil
	}
	sess.Profile = p
	return sess, nil
}
