package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func initTestStore(t *testing.T) {
	t.Helper()
	prev := Store
	prevName := SessionName
	t.Cleanup(func() {
		Store = prev
		SessionName = prevName
	})
	if err := InitSessionStore(strings.Repeat("k", 32), "test-device", "", false, zap.NewNop()); err != nil {
		t.Fatalf("InitSessionStore() error = %v", err)
	}
}

func TestInitSessionStoreRequiresKey(t *testing.T) {
	if err := InitSessionStore("", "", "", false, zap.NewNop()); err == nil {
		t.Error("InitSessionStore(\"\") error = nil, want error")
	}
}

func TestEnsureDeviceMintsKey(t *testing.T) {
	initTestStore(t)

	var gotKey string
	h := EnsureDevice(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey, _ = DeviceKey(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))

	if gotKey == "" {
		t.Fatal("no device key assigned on first contact")
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("no device cookie set on first contact")
	}
}

func TestEnsureDeviceKeyStableAcrossRequests(t *testing.T) {
	initTestStore(t)

	var keys []string
	h := EnsureDevice(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k, _ := DeviceKey(r)
		keys = append(keys, k)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))

	// Replay the issued cookie on a second request.
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(keys) != 2 {
		t.Fatalf("handler ran %d times, want 2", len(keys))
	}
	if keys[0] != keys[1] {
		t.Errorf("device key changed across requests: %q then %q", keys[0], keys[1])
	}
}

func TestEnsureDeviceTamperedCookieGetsFreshKey(t *testing.T) {
	initTestStore(t)

	var keys []string
	h := EnsureDevice(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k, _ := DeviceKey(r)
		keys = append(keys, k)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "forged-value"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(keys) != 2 {
		t.Fatalf("handler ran %d times, want 2", len(keys))
	}
	if keys[0] == keys[1] {
		t.Error("forged cookie kept the original device key")
	}
}

func TestWithTestDevice(t *testing.T) {
	req := WithTestDevice(httptest.NewRequest(http.MethodGet, "/", nil), "device-42")
	k, ok := DeviceKey(req)
	if !ok || k != "device-42" {
		t.Errorf("DeviceKey() = %q, %v, want device-42, true", k, ok)
	}
}
