// Package imagehost signs and performs uploads to the hosted image service.
//
// The host authenticates uploads with a SHA-1 signature over the sorted
// upload parameters followed by the account's API secret.
package imagehost

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/thakuramit5464/Personal-Dashboard/internal/config"
)

// DefaultBaseURL is the host's upload API root.
const DefaultBaseURL = "https://api.cloudinary.com/v1_1"

// Sub-folders under the configured root folder.
const (
	FolderProfiles   = "user_profiles"
	FolderAttendance = "attendance"
)

var (
	ErrNotConfigured    = errors.New("image host credentials are not configured")
	ErrMissingSignature = errors.New("upload signature is missing")
)

// HostError is a rejection reported by the image host.
type HostError struct {
	StatusCode int
	Message    string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("image host returned %d: %s", e.StatusCode, e.Message)
}

// Signer computes upload signatures.
type Signer struct {
	secret string
}

// NewSigner creates a signer for the given API secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex SHA-1 of the params sorted by key, joined as k=v
// pairs with '&', with the secret appended. Empty values are skipped.
func (s *Signer) Sign(params map[string]string) string {
	if s.secret == "" {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.secret))
	return hex.EncodeToString(sum[:])
}

// SignedUpload is what a browser needs to upload directly to the host.
type SignedUpload struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

// Client talks to the image host.
type Client struct {
	cfg        config.ImageHostConfig
	signer     *Signer
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client for cfg. Methods fail with ErrNotConfigured
// when any credential is missing.
func NewClient(cfg config.ImageHostConfig) *Client {
	return &Client{
		cfg:        cfg,
		signer:     NewSigner(cfg.APISecret),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Configured reports whether uploads can be signed.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// Folder returns the full folder path for sub under the configured root.
func (c *Client) Folder(sub string) string {
	root := strings.Trim(c.cfg.Folder, "/")
	sub = strings.Trim(sub, "/")
	switch {
	case root == "":
		return sub
	case sub == "":
		return root
	}
	return root + "/" + sub
}

// SignUpload signs an upload into folder at the current time.
func (c *Client) SignUpload(folder string) (*SignedUpload, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ts := c.now().Unix()
	sig := c.signer.Sign(map[string]string{
		"folder":    folder,
		"timestamp": strconv.FormatInt(ts, 10),
	})
	if sig == "" {
		return nil, ErrMissingSignature
	}

	return &SignedUpload{
		Signature: sig,
		Timestamp: ts,
		APIKey:    c.cfg.APIKey,
		CloudName: c.cfg.CloudName,
		Folder:    folder,
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image in r to folder and returns its stable https URL.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, folder string) (string, error) {
	signed, err := c.SignUpload(folder)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"api_key":   signed.APIKey,
		"timestamp": strconv.FormatInt(signed.Timestamp, 10),
		"signature": signed.Signature,
		"folder":    signed.Folder,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("failed to write form field: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", strings.TrimSuffix(c.baseURL, "/"), c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach image host: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", &HostError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", decodeErr)
	}
	if out.SecureURL == "" {
		return "", errors.New("image host response has no secure_url")
	}
	return out.SecureURL, nil
}
