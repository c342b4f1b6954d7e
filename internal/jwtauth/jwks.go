package jwtauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrKeyNotFound is returned when no signing key matches a token's kid.
var ErrKeyNotFound = errors.New("signing key not found")

const (
	jwksCacheTTL = 10 * time.Minute
	// An unknown kid forces a refetch at most this often.
	jwksMinRefetch = 30 * time.Second
)

// JWKS is a JSON Web Key Set document.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is one entry of a key set. Only RSA signing keys are used.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
}

// RSAPublicKey decodes the key's base64url modulus and exponent.
func (k JWK) RSAPublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	if len(n) == 0 {
		return nil, errors.New("empty modulus")
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil || len(e) == 0 || len(e) > 4 {
		return nil, errors.New("invalid exponent")
	}

	exp := int(new(big.Int).SetBytes(e).Int64())
	if exp < 3 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exp}, nil
}

// signing reports whether the key may verify signatures. Absent "use" means any.
func (k JWK) signing() bool {
	return k.Use == "" || k.Use == "sig"
}

// JWKSCache holds the provider's signing keys by kid.
type JWKSCache struct {
	url        string
	httpClient *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewJWKSCache creates a cache for the key set published at jwksURL.
func NewJWKSCache(jwksURL string) *JWKSCache {
	return &JWKSCache{
		url:        jwksURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// GetKey returns the key for kid. The set is refetched when it is older than
// the cache TTL, or when kid is unknown and the last fetch is not too recent.
// A failed refetch falls back to a cached key when one exists.
func (c *JWKSCache) GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	age := time.Since(c.fetchedAt)
	c.mu.RUnlock()

	switch {
	case ok && age < jwksCacheTTL:
		return key, nil
	case !ok && !c.fetchedAt.IsZero() && age < jwksMinRefetch:
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}

	if err := c.refresh(ctx); err != nil {
		if ok {
			log.WithError(err).Warn("JWKS refresh failed, using cached key")
			return key, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	c.mu.RLock()
	key, ok = c.keys[kid]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}
	return key, nil
}

func (c *JWKSCache) refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refetched while this one waited.
	if time.Since(c.fetchedAt) < jwksMinRefetch {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if !k.signing() || k.Kid == "" {
			continue
		}
		pub, err := k.RSAPublicKey()
		if err != nil {
			log.WithError(err).WithField("kid", k.Kid).Warn("skipping unusable JWKS key")
			continue
		}
		keys[k.Kid] = pub
	}

	c.keys = keys
	c.fetchedAt = time.Now()
	return nil
}
