// internal/app/session/manager.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gymovoo/gymovoo/internal/app/identity"
	"go.uber.org/zap"
)

// ErrClosed is returned by Get once the Manager has been shut down.
var ErrClosed = errors.New("session manager is closed")

// Manager hands out the per-device session Store. Each device key gets
// its own Store and its own identity.Service (the provider binding is
// per app instance, not shared); the Manager creates both lazily on
// first sight of a device and reuses them afterwards.
type Manager struct {
	newIdentity func() identity.Service
	newPersist  func(deviceKey string) PersistenceAdapter
	recorder    Recorder
	retention   time.Duration
	log         *zap.Logger

	mu     sync.Mutex
	stores map[string]*entry
	closed bool
}

type entry struct {
	store    *Store
	identity identity.Service
	init     sync.Once
}

// ManagerConfig assembles a Manager.
type ManagerConfig struct {
	NewIdentity    func() identity.Service
	NewPersist     func(deviceKey string) PersistenceAdapter
	Recorder       Recorder      // optional
	GuestRetention time.Duration // zero means DefaultGuestRetention
	Logger         *zap.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{
		newIdentity: cfg.NewIdentity,
		newPersist:  cfg.NewPersist,
		recorder:    cfg.Recorder,
		retention:   cfg.GuestRetention,
		log:         cfg.Logger,
		stores:      make(map[string]*entry),
	}
}

// Get returns the Store for a device key, creating and initializing it
// on first use. Initialization restores the device's persisted snapshot;
// every caller blocks until that restore has finished, so no request can
// transition a store whose snapshot is still loading. Returns ErrClosed
// after Close.
func (m *Manager) Get(ctx context.Context, deviceKey string) (*Store, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := m.stores[deviceKey]
	if !ok {
		svc := m.newIdentity()
		st := NewStore(Config{
			Identity:       svc,
			Persist:        m.newPersist(deviceKey),
			Recorder:       m.recorder,
			GuestRetention: m.retention,
			Logger:         m.log.With(zap.String("device_key", deviceKey)),
		})
		e = &entry{store: st, identity: svc}
		m.stores[deviceKey] = e
	}
	m.mu.Unlock()

	e.init.Do(func() { e.store.Init(ctx) })
	return e.store, nil
}

// Close tears down every Store and its identity service. Safe to call
// more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	entries := make([]*entry, 0, len(m.stores))
	for _, e := range m.stores {
		entries = append(entries, e)
	}
	m.stores = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		if err := e.identity.Close(); err != nil {
			m.log.Warn("close identity service", zap.Error(err))
		}
		e.store.Close()
	}
}
