package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := chimw.RequestID(RequestLogger(logger)(next))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != log.WarnLevel {
		t.Errorf("level = %v, want warn", entry.Level)
	}
	if entry.Data["status"] != http.StatusTeapot {
		t.Errorf("status = %v", entry.Data["status"])
	}
	if entry.Data["path"] != "/api/v1/me" || entry.Data["method"] != http.MethodGet {
		t.Errorf("unexpected fields %v", entry.Data)
	}
	if id, _ := entry.Data["request_id"].(string); id == "" {
		t.Error("expected request_id field")
	}
}

func TestRequestLogger_DefaultStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	RequestLogger(logger)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if entry := hook.LastEntry(); entry == nil || entry.Data["status"] != http.StatusOK {
		t.Errorf("expected status 200 entry, got %+v", entry)
	}
}
