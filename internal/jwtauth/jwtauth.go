// Package jwtauth verifies bearer tokens issued by the external auth provider
// against its published JWKS and turns them into principals.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the dashboard reads.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// Principal is an authenticated identity issued by the auth provider.
type Principal struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PhotoURL      string `json:"photo_url"`
	EmailVerified bool   `json:"email_verified"`
}

// Principal extracts the identity carried by the claims.
func (c *Claims) Principal() Principal {
	return Principal{
		ID:            c.Subject,
		Name:          strings.TrimSpace(c.Name),
		Email:         strings.ToLower(strings.TrimSpace(c.Email)),
		PhotoURL:      c.Picture,
		EmailVerified: c.EmailVerified,
	}
}

// Config holds token verification settings.
type Config struct {
	Domain   string // e.g., "your-tenant.auth.example.com"
	Audience string // e.g., "https://api.dashboard.example.com"
}

// Verifier checks RS256 tokens for one issuer and audience.
type Verifier struct {
	domain   string
	audience string
	jwks     *JWKSCache
	parser   *jwt.Parser
}

// NewVerifier creates a verifier that fetches keys from the domain's JWKS endpoint.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Domain == "" {
		return nil, errors.New("domain is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}

	domain := strings.TrimPrefix(cfg.Domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimSuffix(domain, "/")

	return newVerifier(domain, cfg.Audience, NewJWKSCache("https://"+domain+"/.well-known/jwks.json")), nil
}

func newVerifier(domain, audience string, jwks *JWKSCache) *Verifier {
	return &Verifier{
		domain:   domain,
		audience: audience,
		jwks:     jwks,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithAudience(audience),
			jwt.WithIssuer("https://"+domain+"/"),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify checks tokenString's signature, expiry, audience and issuer and
// returns its claims. Tokens without a subject are rejected.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid in token header")
		}
		return v.jwks.GetKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// VerifyPrincipal verifies tokenString and returns the principal it names.
func (v *Verifier) VerifyPrincipal(ctx context.Context, tokenString string) (Principal, error) {
	claims, err := v.Verify(ctx, tokenString)
	if err != nil {
		return Principal{}, err
	}
	return claims.Principal(), nil
}
