// Package timeouts provides centralized timeout values for handler and
// identity-provider operations.
//
// These are used with context.WithTimeout so a slow backend fails a
// request instead of hanging it. Values start at sensible defaults and
// can be overridden once at startup with Configure.
//
// Tiers:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads and writes against the local store
//   - Medium: multi-step local operations
//   - Identity: calls to the remote identity provider (sign-in, profile
//     fetches). Deliberately generous because mobile clients ride slow
//     networks, but bounded so a dead backend surfaces as a network
//     error rather than a hang.
package timeouts

import (
	"sync"
	"time"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultMedium   = 10 * time.Second
	DefaultIdentity = 12 * time.Second
)

var mu sync.RWMutex

var (
	ping     = DefaultPing
	short    = DefaultShort
	medium   = DefaultMedium
	identity = DefaultIdentity
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for simple local-store operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for multi-step local operations.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Identity returns the caller-side timeout for identity-provider calls.
func Identity() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return identity
}

// Config holds timeout overrides. Zero values are ignored.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Medium   time.Duration
	Identity time.Duration
}

// Configure sets custom timeout values. Call once during startup before
// handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Identity > 0 {
		identity = cfg.Identity
	}
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	identity = DefaultIdentity
}
