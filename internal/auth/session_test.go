package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/jwtauth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/profile"
)

type stubVerifier struct {
	principal jwtauth.Principal
	err       error
}

func (s stubVerifier) VerifyPrincipal(ctx context.Context, token string) (jwtauth.Principal, error) {
	return s.principal, s.err
}

type stubResolver struct {
	profile *profile.Profile
	err     error
	calls   int
}

func (s *stubResolver) Resolve(ctx context.Context, p jwtauth.Principal) (*profile.Profile, error) {
	s.calls++
	return s.profile, s.err
}

func TestAuthenticator_ValidToken(t *testing.T) {
	principal := jwtauth.Principal{ID: "uid-1", Email: "a@example.com"}
	resolver := &stubResolver{profile: &profile.Profile{ID: "uid-1", Role: access.RoleManager}}
	a := NewAuthenticator(stubVerifier{principal: principal}, resolver)

	sess, err := a.Authenticate(context.Background(), "token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.UserID() != "uid-1" {
		t.Errorf("UserID() = %q", sess.UserID())
	}
	if r := sess.Role(); r == nil || *r != access.RoleManager {
		t.Errorf("Role() = %v, want manager", r)
	}
	if !sess.Capabilities().ManageTeams || sess.Capabilities().ManageUsers {
		t.Errorf("unexpected capabilities %+v", sess.Capabilities())
	}
}

func TestAuthenticator_InvalidToken(t *testing.T) {
	resolver := &stubResolver{}
	a := NewAuthenticator(stubVerifier{err: errors.New("token is expired")}, resolver)

	sess, err := a.Authenticate(context.Background(), "token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if sess != nil {
		t.Error("expected nil session")
	}
	if resolver.calls != 0 {
		t.Error("resolver should not be called for an invalid token")
	}
}

func TestAuthenticator_ResolveFailureFailsClosed(t *testing.T) {
	principal := jwtauth.Principal{ID: "uid-1"}
	a := NewAuthenticator(stubVerifier{principal: principal}, &stubResolver{err: errors.New("db down")})

	sess, err := a.Authenticate(context.Background(), "token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Profile != nil || sess.Role() != nil {
		t.Error("expected session without profile or role")
	}
	if sess.Capabilities() != (access.Capabilities{}) {
		t.Errorf("expected no capabilities, got %+v", sess.Capabilities())
	}
	if sess.UserID() != "uid-1" {
		t.Errorf("principal should still be carried, got %q", sess.UserID())
	}
}

func TestSession_NilRole(t *testing.T) {
	var s *Session
	if s.Role() != nil {
		t.Error("nil session should have nil role")
	}
}
