package guest_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/gymovoo/gymovoo/internal/app/features/errors"
	"github.com/gymovoo/gymovoo/internal/app/features/guest"
	"github.com/gymovoo/gymovoo/internal/domain/models"
	"github.com/gymovoo/gymovoo/internal/testutil"
	"go.uber.org/zap"
)

func TestServeBecomeGuest(t *testing.T) {
	logger := zap.NewNop()
	h := guest.NewHandler(testutil.NewManager(t), uierrors.NewErrorLogger(logger), logger)

	rec := httptest.NewRecorder()
	h.ServeBecomeGuest(rec, testutil.NewRequest(t, http.MethodPost, "/guest", "device-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var sess models.Session
	testutil.DecodeBody(t, rec, &sess)
	if sess.Mode != models.ModeGuest {
		t.Fatalf("identity_mode = %q, want %q", sess.Mode, models.ModeGuest)
	}
	if !strings.HasPrefix(sess.User.ID, "guest-") {
		t.Errorf("user id = %q, want guest- prefix", sess.User.ID)
	}
}
