package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gymovoo/gymovoo/internal/app/identity"
	"github.com/gymovoo/gymovoo/internal/app/store/snapshots"
	"github.com/gymovoo/gymovoo/internal/domain/models"
)

func newTestManager(mem *snapshots.Memory) *Manager {
	return NewManager(ManagerConfig{
		NewIdentity: func() identity.Service { return newFakeIdentity() },
		NewPersist:  func(deviceKey string) PersistenceAdapter { return mem.ForDevice(deviceKey) },
	})
}

func mustGet(t *testing.T, m *Manager, deviceKey string) *Store {
	t.Helper()
	st, err := m.Get(context.Background(), deviceKey)
	if err != nil {
		t.Fatalf("Get(%q): %v", deviceKey, err)
	}
	return st
}

// gatedPersist holds Load until release is closed, simulating a slow
// snapshot backend during store initialization.
type gatedPersist struct {
	inner   PersistenceAdapter
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedPersist) Save(ctx context.Context, snap models.Snapshot) error {
	return p.inner.Save(ctx, snap)
}

func (p *gatedPersist) Load(ctx context.Context) (*models.Snapshot, error) {
	p.once.Do(func() { close(p.entered) })
	<-p.release
	return p.inner.Load(ctx)
}

func (p *gatedPersist) Clear(ctx context.Context) error {
	return p.inner.Clear(ctx)
}

func TestManagerReusesStorePerDevice(t *testing.T) {
	m := newTestManager(snapshots.NewMemory())
	t.Cleanup(m.Close)

	a := mustGet(t, m, "device-a")
	b := mustGet(t, m, "device-b")
	again := mustGet(t, m, "device-a")

	if a == b {
		t.Error("distinct devices received the same store")
	}
	if a != again {
		t.Error("same device received a new store on second Get")
	}
}

func TestManagerIsolatesDeviceSessions(t *testing.T) {
	m := newTestManager(snapshots.NewMemory())
	t.Cleanup(m.Close)

	ctx := context.Background()
	mustGet(t, m, "device-a").BecomeGuest(ctx)

	if got := mustGet(t, m, "device-b").State().Mode; got != models.ModeUnauthenticated {
		t.Errorf("device-b Mode = %q, want %q", got, models.ModeUnauthenticated)
	}
	if got := mustGet(t, m, "device-a").State().Mode; got != models.ModeGuest {
		t.Errorf("device-a Mode = %q, want %q", got, models.ModeGuest)
	}
}

func TestManagerRestoresSnapshotOnFirstGet(t *testing.T) {
	mem := snapshots.NewMemory()
	ctx := context.Background()

	m1 := newTestManager(mem)
	mustGet(t, m1, "device-a").BecomeGuest(ctx)
	m1.Close()

	m2 := newTestManager(mem)
	t.Cleanup(m2.Close)

	if got := mustGet(t, m2, "device-a").State().Mode; got != models.ModeGuest {
		t.Errorf("restored Mode = %q, want %q", got, models.ModeGuest)
	}
}

func TestManagerGetAfterCloseFails(t *testing.T) {
	m := newTestManager(snapshots.NewMemory())
	m.Close()

	if _, err := m.Get(context.Background(), "device-a"); err != ErrClosed {
		t.Errorf("Get after Close: err = %v, want %v", err, ErrClosed)
	}
}

func TestManagerSlowRestoreDoesNotResurrectSignOut(t *testing.T) {
	ctx := context.Background()

	seeded := snapshots.NewMemory().ForDevice("device-a")
	guest := models.Snapshot{
		SchemaVersion: models.SnapshotSchemaVersion,
		Mode:          models.ModeGuest,
		User:          newGuestUser(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := seeded.Save(ctx, guest); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	gated := &gatedPersist{
		inner:   seeded,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	m := NewManager(ManagerConfig{
		NewIdentity: func() identity.Service { return newFakeIdentity() },
		NewPersist:  func(deviceKey string) PersistenceAdapter { return gated },
	})
	t.Cleanup(m.Close)

	// First request hits the slow snapshot load.
	first := make(chan struct{})
	go func() {
		defer close(first)
		if _, err := m.Get(ctx, "device-a"); err != nil {
			t.Errorf("first Get: %v", err)
		}
	}()
	<-gated.entered

	// Second request for the same device signs out while the restore is
	// still in flight.
	second := make(chan struct{})
	go func() {
		defer close(second)
		st, err := m.Get(ctx, "device-a")
		if err != nil {
			t.Errorf("second Get: %v", err)
			return
		}
		st.SignOut(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	close(gated.release)
	<-first
	<-second

	if got := mustGet(t, m, "device-a").State().Mode; got != models.ModeUnauthenticated {
		t.Errorf("Mode = %q, want %q; restore must not overwrite the sign-out",
			got, models.ModeUnauthenticated)
	}
}
