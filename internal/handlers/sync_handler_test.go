package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "invtrack/internal/errors"
	"invtrack/internal/syncstatus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- mocks ---

type mockTrigger struct {
	startCycleFn func(ctx context.Context) error
	running      bool
}

var _ SyncTrigger = (*mockTrigger)(nil)

func (m *mockTrigger) StartCycle(ctx context.Context) error {
	if m.startCycleFn != nil {
		return m.startCycleFn(ctx)
	}
	return nil
}

func (m *mockTrigger) Running() bool { return m.running }

type mockStatusStore struct {
	readFn func(ctx context.Context) (*syncstatus.Status, error)
}

var _ syncstatus.Store = (*mockStatusStore)(nil)

func (m *mockStatusStore) Write(_ context.Context, _ syncstatus.Status) error { return nil }

func (m *mockStatusStore) Read(ctx context.Context) (*syncstatus.Status, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, apperrors.ErrSyncStatusNotFound
}

// --- helpers ---

func setupSyncRouter(handler *SyncHandler) *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, handler)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestHealth(t *testing.T) {
	r := setupSyncRouter(NewSyncHandler(&mockTrigger{}, &mockStatusStore{}))

	rec := doRequest(r, "GET", "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if parseJSON(t, rec)["status"] != "ok" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestSyncHandler_GetStatus(t *testing.T) {
	t.Run("returns_200_with_marker", func(t *testing.T) {
		est := time.FixedZone("EST", -5*60*60)
		store := &mockStatusStore{readFn: func(_ context.Context) (*syncstatus.Status, error) {
			return &syncstatus.Status{LastCompletedAt: time.Date(2024, 5, 1, 13, 0, 0, 0, est)}, nil
		}}
		r := setupSyncRouter(NewSyncHandler(&mockTrigger{running: true}, store))

		rec := doRequest(r, "GET", "/api/v1/sync/status", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["status"] != "Database was last updated at 2024-05-01 13:00:00 EST" {
			t.Errorf("unexpected status %v", result["status"])
		}
		if result["last_completed_at"] != "2024-05-01T13:00:00-05:00" {
			t.Errorf("unexpected timestamp %v", result["last_completed_at"])
		}
		if result["running"] != true {
			t.Errorf("expected running=true, got %v", result["running"])
		}
	})

	t.Run("returns_404_before_first_sync", func(t *testing.T) {
		r := setupSyncRouter(NewSyncHandler(&mockTrigger{}, &mockStatusStore{}))

		rec := doRequest(r, "GET", "/api/v1/sync/status", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SYNC_STATUS_NOT_FOUND")
	})

	t.Run("returns_500_on_unexpected_error", func(t *testing.T) {
		store := &mockStatusStore{readFn: func(_ context.Context) (*syncstatus.Status, error) {
			return nil, errors.New("connection refused")
		}}
		r := setupSyncRouter(NewSyncHandler(&mockTrigger{}, store))

		rec := doRequest(r, "GET", "/api/v1/sync/status", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}

func TestSyncHandler_TriggerSync(t *testing.T) {
	t.Run("returns_202_when_started", func(t *testing.T) {
		started := 0
		trigger := &mockTrigger{startCycleFn: func(_ context.Context) error {
			started++
			return nil
		}}
		r := setupSyncRouter(NewSyncHandler(trigger, &mockStatusStore{}))

		rec := doRequest(r, "POST", "/api/v1/sync/run", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
		if started != 1 {
			t.Errorf("expected one cycle started, got %d", started)
		}
	})

	t.Run("returns_409_when_running", func(t *testing.T) {
		trigger := &mockTrigger{startCycleFn: func(_ context.Context) error {
			return apperrors.ErrSyncInProgress
		}}
		r := setupSyncRouter(NewSyncHandler(trigger, &mockStatusStore{}))

		rec := doRequest(r, "POST", "/api/v1/sync/run", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SYNC_IN_PROGRESS")
	})
}
