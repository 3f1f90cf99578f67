// Package testutil provides helpers shared by handler and store tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gymovoo/gymovoo/internal/app/identity"
	"github.com/gymovoo/gymovoo/internal/app/session"
	"github.com/gymovoo/gymovoo/internal/app/store/snapshots"
	"github.com/gymovoo/gymovoo/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// NewManager builds a session manager backed by the in-process identity
// provider and in-memory persistence. The seeded account signs in with
// alex@example.com / secret123.
func NewManager(t *testing.T) *session.Manager {
	t.Helper()

	mem := snapshots.NewMemory()
	mgr := session.NewManager(session.ManagerConfig{
		NewIdentity: func() identity.Service {
			svc := identity.NewLocalService(zap.NewNop())
			if err := svc.Seed("alex@example.com", "secret123", "Alex"); err != nil {
				t.Fatalf("seed local identity: %v", err)
			}
			return svc
		},
		NewPersist: func(deviceKey string) session.PersistenceAdapter {
			return mem.ForDevice(deviceKey)
		},
	})
	t.Cleanup(mgr.Close)
	return mgr
}

// GetStore fetches the session store for a device key, failing the test
// if the manager refuses.
func GetStore(t *testing.T, mgr *session.Manager, deviceKey string) *session.Store {
	t.Helper()
	st, err := mgr.Get(context.Background(), deviceKey)
	if err != nil {
		t.Fatalf("get store for %q: %v", deviceKey, err)
	}
	return st
}

// NewRequest creates a request bound to a test device key, with body
// marshaled as JSON when non-nil.
func NewRequest(t *testing.T, method, target, deviceKey string, body any) *http.Request {
	t.Helper()

	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		req = httptest.NewRequest(method, target, bytes.NewReader(buf))
		req.Header.Set("Content-Type", "application/json")
	}
	return auth.WithTestDevice(req, deviceKey)
}

// DecodeBody unmarshals a recorded JSON response body into dst.
func DecodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
}

// SetupTestDB connects to the Mongo instance named by
// GYMOVOO_TEST_MONGO_URI and returns a database scoped to this test,
// dropped on cleanup. Tests that need Mongo are skipped when the
// variable is unset.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("GYMOVOO_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GYMOVOO_TEST_MONGO_URI not set; skipping Mongo-backed test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect to test mongo: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		t.Fatalf("ping test mongo: %v", err)
	}

	db := client.Database("gymovoo_test_" + strings.ReplaceAll(t.Name(), "/", "_"))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}
