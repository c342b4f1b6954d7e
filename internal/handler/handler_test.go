package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/attendance"
	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/config"
	"github.com/thakuramit5464/Personal-Dashboard/internal/database"
	"github.com/thakuramit5464/Personal-Dashboard/internal/imagehost"
	"github.com/thakuramit5464/Personal-Dashboard/internal/invite"
	"github.com/thakuramit5464/Personal-Dashboard/internal/jwtauth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/profile"
	"github.com/thakuramit5464/Personal-Dashboard/internal/project"
	"github.com/thakuramit5464/Personal-Dashboard/internal/realtime"
	"github.com/thakuramit5464/Personal-Dashboard/internal/task"
	"github.com/thakuramit5464/Personal-Dashboard/internal/team"
	"github.com/thakuramit5464/Personal-Dashboard/internal/todo"
)

const testToken = "good-token"

// stubSessions accepts testToken and returns a fixed session.
type stubSessions struct {
	sess *auth.Session
}

func (s stubSessions) Authenticate(ctx context.Context, token string) (*auth.Session, error) {
	if token != testToken {
		return nil, auth.ErrInvalidToken
	}
	return s.sess, nil
}

// stubImages records uploads and returns canned results.
type stubImages struct {
	url      string
	err      error
	uploaded []string
	folders  []string
}

func (s *stubImages) Upload(ctx context.Context, filename string, r io.Reader, folder string) (string, error) {
	data, _ := io.ReadAll(r)
	s.uploaded = append(s.uploaded, filename+":"+string(data))
	s.folders = append(s.folders, folder)
	return s.url, s.err
}

func (s *stubImages) SignUpload(folder string) (*imagehost.SignedUpload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &imagehost.SignedUpload{Signature: "sig", Timestamp: 1700000000, APIKey: "key", CloudName: "demo", Folder: folder}, nil
}

func (s *stubImages) Folder(sub string) string {
	return "dashboard/" + sub
}

type harness struct {
	mux    *http.ServeMux
	mock   sqlmock.Sqlmock
	images *stubImages
}

func newSession(uid string, role *access.Role) *auth.Session {
	sess := &auth.Session{Principal: jwtauth.Principal{
		ID:            uid,
		Email:         uid + "@example.com",
		EmailVerified: true,
	}}
	if role != nil {
		sess.Profile = &profile.Profile{ID: uid, Email: uid + "@example.com", Role: *role}
	}
	return sess
}

func rolePtr(r access.Role) *access.Role { return &r }

func newHarness(t *testing.T, sess *auth.Session) *harness {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	bus := realtime.NewMemoryBus()
	t.Cleanup(func() {
		bus.Close()
		db.Close()
	})

	images := &stubImages{url: "https://res.example.com/img.png"}
	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Config:     &config.Config{Environment: "development"},
		DB:         &database.DB{DB: db},
		Sessions:   stubSessions{sess: sess},
		Profiles:   profile.NewManager(profile.NewDatastore(db), bus),
		Teams:      team.NewManager(db, team.NewDatastore(db)),
		Projects:   project.NewManager(project.NewDatastore(db), 10),
		Tasks:      task.NewManager(task.NewDatastore(db), bus),
		Invites:    invite.NewManager(db, invite.NewDatastore(db), bus, 0),
		Attendance: attendance.NewManager(attendance.NewDatastore(db)),
		Todos:      todo.NewStore(db),
		Images:     images,
	})
	return &harness{mux: mux, mock: mock, images: images}
}

// do sends an authenticated request with an optional JSON body.
func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(req)
}

func (h *harness) send(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func (h *harness) verify(t *testing.T) {
	t.Helper()
	if err := h.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp auth.APIError
	decode(t, rec, &resp)
	return resp.Error.Message
}
