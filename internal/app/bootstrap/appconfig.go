// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging, CORS); AppConfig is
// everything specific to the session gateway.
type AppConfig struct {
	// Snapshot persistence. "mongo" in production; "memory" runs the
	// gateway without a database for local development and tests.
	Persistence string

	// MongoDB connection configuration (used when Persistence is "mongo").
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Device-session cookie configuration.
	SessionKey    string // Secret key for signing device cookies (must be strong in production)
	SessionName   string // Cookie name (default: gymovoo-device)
	SessionDomain string // Cookie domain (blank means current host)

	// Identity provider. IdentityLocal swaps the hosted provider for the
	// in-process one (dev only).
	IdentityBaseURL string
	IdentityAPIKey  string
	IdentityLocal   bool
	IdentityTimeout time.Duration

	// How long guest/demo sessions survive without activity.
	GuestRetention time.Duration

	// Google OAuth configuration.
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks (e.g. "https://api.gymovoo.app").
	BaseURL string

	// Credential-endpoint rate limiting, per device.
	LoginRatePerMinute int
	LoginBurst         int
}
