package demo_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gymovoo/gymovoo/internal/app/features/demo"
	uierrors "github.com/gymovoo/gymovoo/internal/app/features/errors"
	"github.com/gymovoo/gymovoo/internal/domain/models"
	"github.com/gymovoo/gymovoo/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *demo.Handler {
	t.Helper()
	logger := zap.NewNop()
	return demo.NewHandler(testutil.NewManager(t), uierrors.NewErrorLogger(logger), logger)
}

func TestServeLevels(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeLevels(rec, testutil.NewRequest(t, http.MethodGet, "/demo", "device-1", nil))

	var resp struct {
		Levels []string `json:"levels"`
	}
	testutil.DecodeBody(t, rec, &resp)

	want := []string{"advanced", "beginner", "intermediate"}
	if len(resp.Levels) != len(want) {
		t.Fatalf("levels = %v, want %v", resp.Levels, want)
	}
	for i := range want {
		if resp.Levels[i] != want[i] {
			t.Errorf("levels[%d] = %q, want %q", i, resp.Levels[i], want[i])
		}
	}
}

func TestServeActivate(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewRequest(t, http.MethodPost, "/demo", "device-1",
		map[string]string{"level": "intermediate"})
	rec := httptest.NewRecorder()

	h.ServeActivate(rec, req)

	var sess models.Session
	testutil.DecodeBody(t, rec, &sess)
	if sess.Mode != models.ModeDemo {
		t.Fatalf("identity_mode = %q, want %q", sess.Mode, models.ModeDemo)
	}
	if sess.User.ID != "demo-intermediate" {
		t.Errorf("user id = %q, want %q", sess.User.ID, "demo-intermediate")
	}
}

func TestServeActivate_UnknownLevel(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewRequest(t, http.MethodPost, "/demo", "device-1",
		map[string]string{"level": "expert"})
	rec := httptest.NewRecorder()

	h.ServeActivate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var sess models.Session
	testutil.DecodeBody(t, rec, &sess)
	if sess.LastError == nil || sess.LastError.Kind != models.ErrNotFound {
		t.Errorf("last_error = %+v, want not_found", sess.LastError)
	}
}

func TestServeActivate_MissingLevel(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewRequest(t, http.MethodPost, "/demo", "device-1", map[string]string{})
	rec := httptest.NewRecorder()

	h.ServeActivate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
