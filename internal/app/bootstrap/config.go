// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the gateway.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: GYMOVOO_MONGO_URI, GYMOVOO_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "persistence", Default: "mongo", Desc: "Snapshot persistence backend: 'mongo' or 'memory'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "gymovoo", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Device cookie signing key (must be strong in production)"},
	{Name: "session_name", Default: "gymovoo-device", Desc: "Device cookie name"},
	{Name: "session_domain", Default: "", Desc: "Device cookie domain (blank means current host)"},

	// Identity provider
	{Name: "identity_base_url", Default: "", Desc: "Base URL of the hosted identity provider"},
	{Name: "identity_api_key", Default: "", Desc: "API key for the identity provider"},
	{Name: "identity_local", Default: false, Desc: "Use the in-process identity provider (dev only)"},
	{Name: "identity_timeout", Default: "12s", Desc: "Caller-side timeout for identity provider calls (e.g. 10s, 15s)"},

	// Guest/demo retention
	{Name: "guest_retention", Default: "720h", Desc: "How long guest/demo sessions survive without activity (default: 30 days)"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Base URL for OAuth callbacks
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for OAuth callbacks"},

	// Rate limiting for credential endpoints
	{Name: "login_rate_per_minute", Default: 10, Desc: "Credential attempts allowed per minute, per device"},
	{Name: "login_burst", Default: 5, Desc: "Credential attempt burst allowance, per device"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// GYMOVOO_* environment variables, and command-line flags, merged with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GYMOVOO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		Persistence: appValues.String("persistence"),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		IdentityBaseURL: appValues.String("identity_base_url"),
		IdentityAPIKey:  appValues.String("identity_api_key"),
		IdentityLocal:   appValues.Bool("identity_local"),
		IdentityTimeout: appValues.Duration("identity_timeout", 12*time.Second),

		GuestRetention: appValues.Duration("guest_retention", 720*time.Hour),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL: appValues.String("base_url"),

		LoginRatePerMinute: appValues.Int("login_rate_per_minute"),
		LoginBurst:         appValues.Int("login_burst"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The gateway needs exactly one identity backend and, unless running on
// in-memory persistence, a reachable-looking Mongo URI. Catching these
// here aborts startup before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.Persistence {
	case "mongo":
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	case "memory":
		// nothing to validate
	default:
		return fmt.Errorf("persistence must be 'mongo' or 'memory', got %q", appCfg.Persistence)
	}

	if !appCfg.IdentityLocal && appCfg.IdentityBaseURL == "" {
		return fmt.Errorf("identity_base_url is required unless identity_local is enabled")
	}

	if coreCfg.Env == "prod" && appCfg.IdentityLocal {
		return fmt.Errorf("identity_local cannot be used in prod")
	}

	return nil
}
