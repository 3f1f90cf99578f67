package logout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/gymovoo/gymovoo/internal/app/features/errors"
	"github.com/gymovoo/gymovoo/internal/app/features/logout"
	"github.com/gymovoo/gymovoo/internal/app/session"
	"github.com/gymovoo/gymovoo/internal/domain/models"
	"github.com/gymovoo/gymovoo/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*logout.Handler, *session.Manager) {
	t.Helper()
	logger := zap.NewNop()
	mgr := testutil.NewManager(t)
	return logout.NewHandler(mgr, uierrors.NewErrorLogger(logger), logger), mgr
}

func TestServeLogout(t *testing.T) {
	h, mgr := newHandler(t)
	testutil.GetStore(t, mgr, "device-1").
		LoginWithCredentials(context.Background(), "alex@example.com", "secret123")

	rec := httptest.NewRecorder()
	h.ServeLogout(rec, testutil.NewRequest(t, http.MethodPost, "/logout", "device-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var sess models.Session
	testutil.DecodeBody(t, rec, &sess)
	if sess.Mode != models.ModeUnauthenticated || sess.User != nil {
		t.Errorf("session = %+v, want signed out", sess)
	}
}

func TestServeLogout_Idempotent(t *testing.T) {
	h, _ := newHandler(t)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeLogout(rec, testutil.NewRequest(t, http.MethodPost, "/logout", "device-1", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("logout %d status = %d, want 200", i+1, rec.Code)
		}
		var sess models.Session
		testutil.DecodeBody(t, rec, &sess)
		if sess.Mode != models.ModeUnauthenticated || sess.LastError != nil {
			t.Errorf("logout %d session = %+v, want clean unauthenticated", i+1, sess)
		}
	}
}
