package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gymovoo/gymovoo/internal/app/system/timeouts"
	"github.com/gymovoo/gymovoo/internal/domain/models"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewHTTPClient(srv.URL, "test-api-key", zap.NewNop())
	t.Cleanup(func() {
		c.Close()
		srv.Close()
	})
	return c
}

func TestHTTPClientSignIn(t *testing.T) {
	var gotAPIKey string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"user": map[string]any{
				"id":            "user-1",
				"email":         body["email"],
				"user_metadata": map[string]string{"display_name": "Alex"},
			},
		})
	})
	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "user-1", "email": "alex@example.com"})
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	acct, err := c.SignIn(ctx, "alex@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if acct.ID != "user-1" || acct.DisplayName != "Alex" {
		t.Errorf("account = %+v", acct)
	}
	if acct.Role != models.RoleUser {
		t.Errorf("Role = %q, want default %q", acct.Role, models.RoleUser)
	}
	if gotAPIKey != "test-api-key" {
		t.Errorf("apikey header = %q, want %q", gotAPIKey, "test-api-key")
	}

	// The token from sign-in authenticates the session lookup.
	sess, err := c.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess == nil || sess.ID != "user-1" {
		t.Errorf("GetSession() = %+v, want user-1", sess)
	}
}

func TestHTTPClientSignInRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	c := newTestClient(t, mux)

	_, err := c.SignIn(context.Background(), "alex@example.com", "wrong")
	se, ok := err.(*models.SessionError)
	if !ok || se.Kind != models.ErrInvalidCredentials {
		t.Errorf("SignIn() error = %v, want invalid_credentials", err)
	}
}

func TestHTTPClientSignUpDuplicate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	c := newTestClient(t, mux)

	_, err := c.SignUp(context.Background(), "taken@example.com", "password1", "X")
	se, ok := err.(*models.SessionError)
	if !ok || se.Kind != models.ErrRemoteValidation {
		t.Errorf("SignUp() error = %v, want remote_validation", err)
	}
}

func TestHTTPClientGetSessionWithoutToken(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())

	sess, err := c.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess != nil {
		t.Errorf("GetSession() = %+v, want nil with no token", sess)
	}
}

func TestHTTPClientGetProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.RawQuery {
		case "id=eq.user-1":
			_ = json.NewEncoder(w).Encode([]map[string]string{{"display_name": "Alex"}})
		default:
			_ = json.NewEncoder(w).Encode([]map[string]string{})
		}
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	prof, err := c.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if prof.DisplayName != "Alex" {
		t.Errorf("DisplayName = %q, want %q", prof.DisplayName, "Alex")
	}

	_, err = c.GetProfile(ctx, "user-2")
	se, ok := err.(*models.SessionError)
	if !ok || se.Kind != models.ErrNotFound {
		t.Errorf("GetProfile(missing) error = %v, want not_found", err)
	}
}

func TestHTTPClientUpdateProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("Prefer header = %q, want return=representation", r.Header.Get("Prefer"))
		}
		var upd map[string]string
		_ = json.NewDecoder(r.Body).Decode(&upd)
		_ = json.NewEncoder(w).Encode([]map[string]string{{"display_name": upd["display_name"]}})
	})

	c := newTestClient(t, mux)

	name := "Alexandra"
	prof, err := c.UpdateProfile(context.Background(), "user-1", ProfileUpdate{DisplayName: &name})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if prof.DisplayName != "Alexandra" {
		t.Errorf("DisplayName = %q, want %q", prof.DisplayName, "Alexandra")
	}
}

func TestHTTPClientTimeoutIsNetworkError(t *testing.T) {
	timeouts.Configure(timeouts.Config{Identity: 50 * time.Millisecond})
	t.Cleanup(timeouts.Reset)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	})

	c := newTestClient(t, mux)

	_, err := c.SignIn(context.Background(), "alex@example.com", "secret123")
	se, ok := err.(*models.SessionError)
	if !ok || se.Kind != models.ErrNetwork {
		t.Fatalf("SignIn() error = %v, want network", err)
	}
	if se.Message != "the request timed out" {
		t.Errorf("Message = %q, want timeout message", se.Message)
	}
}
