package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/websocket"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/imagehost"
)

var profileCols = []string{"id", "name", "email", "photo_url", "role", "created_at", "updated_at"}

func expectProfileGet(mock sqlmock.Sqlmock, id, role string) {
	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(id, "Alice", id+"@example.com", "https://img/a.png", role, now, now))
	mock.ExpectQuery(`SELECT team_id FROM team_members WHERE user_id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"team_id"}))
}

func TestHealthCheck(t *testing.T) {
	h := newHarness(t, nil)

	h.mock.ExpectPing()
	rec := h.send(httptest.NewRequest(http.MethodGet, "/health", nil))
	expectStatus(t, rec, http.StatusOK)

	h.mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	rec = h.send(httptest.NewRequest(http.MethodGet, "/health", nil))
	expectStatus(t, rec, http.StatusServiceUnavailable)

	h.verify(t)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.send(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	expectStatus(t, rec, http.StatusOK)

	var resp map[string]any
	decode(t, rec, &resp)
	if resp["service"] != "personal-dashboard" {
		t.Errorf("unexpected service %v", resp["service"])
	}
}

func TestMe_RequiresToken(t *testing.T) {
	h := newHarness(t, newSession("u1", rolePtr(access.RoleAdmin)))

	rec := h.send(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	expectStatus(t, rec, http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	expectStatus(t, h.send(req), http.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	h := newHarness(t, newSession("u1", rolePtr(access.RoleManager)))

	rec := h.do(t, http.MethodGet, "/api/v1/me", nil)
	expectStatus(t, rec, http.StatusOK)

	var resp meResponse
	decode(t, rec, &resp)
	if resp.ID != "u1" || resp.Role == nil || *resp.Role != access.RoleManager {
		t.Errorf("unexpected me response %+v", resp)
	}
	if !resp.Capabilities.ManageTeams || resp.Capabilities.ManageUsers {
		t.Errorf("unexpected capabilities %+v", resp.Capabilities)
	}
}

func TestMe_UnresolvedProfileHasNoRole(t *testing.T) {
	h := newHarness(t, newSession("u1", nil))

	rec := h.do(t, http.MethodGet, "/api/v1/me", nil)
	expectStatus(t, rec, http.StatusOK)

	var resp meResponse
	decode(t, rec, &resp)
	if resp.Role != nil || resp.Profile != nil {
		t.Errorf("expected null role and profile, got %+v", resp)
	}
	if resp.Capabilities != (access.Capabilities{}) {
		t.Errorf("expected no capabilities, got %+v", resp.Capabilities)
	}
}

func TestUpdateMe(t *testing.T) {
	h := newHarness(t, newSession("u1", rolePtr(access.RoleEmployee)))

	h.mock.ExpectExec(`UPDATE users\s+SET name = COALESCE\(\$2, name\)`).
		WithArgs("u1", "Alice B", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectProfileGet(h.mock, "u1", "employee")

	rec := h.do(t, http.MethodPatch, "/api/v1/me", map[string]any{"name": "  Alice B "})
	expectStatus(t, rec, http.StatusOK)
	h.verify(t)
}

func TestUpdateMe_Validation(t *testing.T) {
	h := newHarness(t, newSession("u1", rolePtr(access.RoleEmployee)))

	rec := h.do(t, http.MethodPatch, "/api/v1/me", map[string]any{"photo_url": "not a url"})
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := errorMessage(t, rec); msg != "photo_url must be a URL" {
		t.Errorf("unexpected message %q", msg)
	}

	rec = h.do(t, http.MethodPatch, "/api/v1/me", map[string]any{"name": "   "})
	expectStatus(t, rec, http.StatusBadRequest)
	h.verify(t)
}

func multipartRequest(t *testing.T, path, field, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write([]byte(content))
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestUploadPhoto(t *testing.T) {
	h := newHarness(t, newSession("u1", rolePtr(access.RoleEmployee)))

	h.mock.ExpectExec(`UPDATE users`).
		WithArgs("u1", nil, "https://res.example.com/img.png", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectProfileGet(h.mock, "u1", "employee")

	rec := h.send(multipartRequest(t, "/api/v1/me/photo", "file", "me.png", "png-bytes", nil))
	expectStatus(t, rec, http.StatusOK)

	if len(h.images.uploaded) != 1 || h.images.uploaded[0] != "me.png:png-bytes" {
		t.Errorf("unexpected uploads %v", h.images.uploaded)
	}
	if h.images.folders[0] != "dashboard/"+imagehost.FolderProfiles {
		t.Errorf("unexpected folder %q", h.images.folders[0])
	}
	h.verify(t)
}

func TestUploadPhoto_NotConfigured(t *testing.T) {
	h := newHarness(t, newSession("u1", rolePtr(access.RoleEmployee)))
	h.images.err = imagehost.ErrNotConfigured

	rec := h.send(multipartRequest(t, "/api/v1/me/photo", "file", "me.png", "x", nil))
	expectStatus(t, rec, http.StatusServiceUnavailable)
	h.verify(t)
}

func TestUploadPhoto_MissingFile(t *testing.T) {
	h := newHarness(t, newSession("u1", rolePtr(access.RoleEmployee)))

	rec := h.send(multipartRequest(t, "/api/v1/me/photo", "", "", "", map[string]string{"note": "x"}))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestListUsers_RequiresManageUsers(t *testing.T) {
	tests := []struct {
		name string
		role *access.Role
		want int
	}{
		{"manager refused", rolePtr(access.RoleManager), http.StatusForbidden},
		{"employee refused", rolePtr(access.RoleEmployee), http.StatusForbidden},
		{"unresolved refused", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, newSession("u1", tt.role))

			rec := h.do(t, http.MethodGet, "/api/v1/users", nil)
			expectStatus(t, rec, tt.want)
			h.verify(t)
		})
	}
}

func TestListUsers(t *testing.T) {
	h := newHarness(t, newSession("admin", rolePtr(access.RoleAdmin)))
	now := time.Now()

	h.mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at, id LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("u1", "A", "a@example.com", "", "employee", now, now).
			AddRow("u2", "B", "b@example.com", "", "partner", now, now))

	rec := h.do(t, http.MethodGet, "/api/v1/users", nil)
	expectStatus(t, rec, http.StatusOK)

	var resp struct {
		Count int `json:"count"`
	}
	decode(t, rec, &resp)
	if resp.Count != 2 {
		t.Errorf("expected 2 users, got %d", resp.Count)
	}
	h.verify(t)
}

func TestSetRole(t *testing.T) {
	h := newHarness(t, newSession("admin", rolePtr(access.RoleAdmin)))

	h.mock.ExpectExec(`UPDATE users SET role = \$2`).
		WithArgs("u2", "manager", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectProfileGet(h.mock, "u2", "manager")

	rec := h.do(t, http.MethodPut, "/api/v1/users/u2/role", map[string]string{"role": "Manager"})
	expectStatus(t, rec, http.StatusOK)
	h.verify(t)
}

func TestSetRole_Errors(t *testing.T) {
	h := newHarness(t, newSession("admin", rolePtr(access.RoleAdmin)))

	rec := h.do(t, http.MethodPut, "/api/v1/users/u2/role", map[string]string{"role": "owner"})
	expectStatus(t, rec, http.StatusBadRequest)

	h.mock.ExpectExec(`UPDATE users SET role`).WillReturnResult(sqlmock.NewResult(0, 0))
	rec = h.do(t, http.MethodPut, "/api/v1/users/ghost/role", map[string]string{"role": "partner"})
	expectStatus(t, rec, http.StatusNotFound)
	h.verify(t)
}

func TestMe_Stream_PushesRoleChange(t *testing.T) {
	h := newHarness(t, newSession("a1", rolePtr(access.RoleAdmin)))
	// The stream's re-read and the handler's read race after the update.
	h.mock.MatchExpectationsInOrder(false)
	expectProfileGet(h.mock, "a1", "admin")

	server := httptest.NewServer(h.mux)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/me/stream?access_token=" + testToken
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v (response %v)", err, resp)
	}
	defer conn.Close()

	type snapshot struct {
		Type         string              `json:"type"`
		Role         access.Role         `json:"role"`
		Capabilities access.Capabilities `json:"capabilities"`
	}
	read := func() snapshot {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg snapshot
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		return msg
	}

	if msg := read(); msg.Type != "profile" || msg.Role != access.RoleAdmin || !msg.Capabilities.ManageUsers {
		t.Fatalf("unexpected initial snapshot %+v", msg)
	}

	h.mock.ExpectExec(`UPDATE users SET role = \$2`).
		WithArgs("a1", "manager", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectProfileGet(h.mock, "a1", "manager")
	expectProfileGet(h.mock, "a1", "manager")

	rec := h.do(t, http.MethodPut, "/api/v1/users/a1/role", map[string]string{"role": "manager"})
	expectStatus(t, rec, http.StatusOK)

	msg := read()
	if msg.Role != access.RoleManager || msg.Capabilities.ManageUsers || !msg.Capabilities.ManageTeams {
		t.Errorf("unexpected snapshot after role change %+v", msg)
	}
}

func TestMe_Stream_RequiresToken(t *testing.T) {
	h := newHarness(t, newSession("u1", rolePtr(access.RoleEmployee)))
	server := httptest.NewServer(h.mux)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/me/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 response, got %v", resp)
	}
}
