// internal/app/store/snapshots/memory.go
package snapshots

import (
	"context"
	"sync"

	"github.com/gymovoo/gymovoo/internal/domain/models"
)

// Memory is an in-process snapshot store used when the gateway runs
// without MongoDB (persistence=memory) and in tests. Snapshots do not
// survive a process restart.
type Memory struct {
	mu    sync.Mutex
	snaps map[string]models.Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]models.Snapshot)}
}

// ForDevice scopes the store to one device key.
func (m *Memory) ForDevice(deviceKey string) *MemoryAdapter {
	return &MemoryAdapter{store: m, deviceKey: deviceKey}
}

// MemoryAdapter implements the per-device persistence contract over a
// shared Memory store.
type MemoryAdapter struct {
	store     *Memory
	deviceKey string
}

func (a *MemoryAdapter) Save(ctx context.Context, snap models.Snapshot) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	a.store.snaps[a.deviceKey] = snap
	return nil
}

func (a *MemoryAdapter) Load(ctx context.Context) (*models.Snapshot, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	snap, ok := a.store.snaps[a.deviceKey]
	if !ok {
		return nil, nil
	}
	out := snap
	return &out, nil
}

func (a *MemoryAdapter) Clear(ctx context.Context) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	delete(a.store.snaps, a.deviceKey)
	return nil
}
