// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	authgooglefeature "github.com/gymovoo/gymovoo/internal/app/features/authgoogle"
	demofeature "github.com/gymovoo/gymovoo/internal/app/features/demo"
	errorsfeature "github.com/gymovoo/gymovoo/internal/app/features/errors"
	guestfeature "github.com/gymovoo/gymovoo/internal/app/features/guest"
	healthfeature "github.com/gymovoo/gymovoo/internal/app/features/health"
	loginfeature "github.com/gymovoo/gymovoo/internal/app/features/login"
	logoutfeature "github.com/gymovoo/gymovoo/internal/app/features/logout"
	profilefeature "github.com/gymovoo/gymovoo/internal/app/features/profile"
	sessioninfofeature "github.com/gymovoo/gymovoo/internal/app/features/sessioninfo"
	"github.com/gymovoo/gymovoo/internal/app/identity"
	"github.com/gymovoo/gymovoo/internal/app/metrics"
	"github.com/gymovoo/gymovoo/internal/app/session"
	"github.com/gymovoo/gymovoo/internal/app/store/snapshots"
	"github.com/gymovoo/gymovoo/internal/app/system/auth"
	"github.com/gymovoo/gymovoo/internal/app/system/ratelimit"
)

// Package-level handles for Shutdown.
var (
	manager *session.Manager
	limiter *ratelimit.Limiter
)

// BuildHandler constructs the root HTTP handler for the gateway.
//
// WAFFLE calls this after configuration, DB connection, schema setup,
// and Startup have completed. Every session route sits behind the
// device-cookie middleware so handlers can resolve their per-device
// session store.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("device session store init failed", zap.Error(err))
		return nil, err
	}

	collector := metrics.New()
	manager = newSessionManager(appCfg, deps, collector, logger)

	perMin := appCfg.LoginRatePerMinute
	if perMin <= 0 {
		perMin = 10
	}
	burst := appCfg.LoginBurst
	if burst <= 0 {
		burst = 5
	}
	limiter = ratelimit.New(rate.Every(time.Minute/time.Duration(perMin)), burst)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics(collector))

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus scrape endpoint.
	r.Handle("/metrics", collector.Handler())

	// Everything below is per-device.
	r.Group(func(r chi.Router) {
		r.Use(auth.EnsureDevice)

		sessionHandler := sessioninfofeature.NewHandler(manager, errLog, logger)
		r.Mount("/session", sessioninfofeature.Routes(sessionHandler))

		loginHandler := loginfeature.NewHandler(manager, errLog, logger)
		r.Mount("/login", loginfeature.Routes(loginHandler, limiter))

		guestHandler := guestfeature.NewHandler(manager, errLog, logger)
		r.Mount("/guest", guestfeature.Routes(guestHandler))

		demoHandler := demofeature.NewHandler(manager, errLog, logger)
		r.Mount("/demo", demofeature.Routes(demoHandler))

		profileHandler := profilefeature.NewHandler(manager, errLog, logger)
		r.Mount("/profile", profilefeature.Routes(profileHandler))

		logoutHandler := logoutfeature.NewHandler(manager, errLog, logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler))

		googleHandler := authgooglefeature.NewHandler(
			appCfg.GoogleClientID, appCfg.GoogleClientSecret,
			appCfg.BaseURL, appCfg.SessionKey, errLog, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	})

	return r, nil
}

// newSessionManager assembles the per-device session manager from the
// configured identity and persistence backends.
func newSessionManager(appCfg AppConfig, deps DBDeps, collector *metrics.Collector, logger *zap.Logger) *session.Manager {
	var newIdentity func() identity.Service
	if appCfg.IdentityLocal {
		newIdentity = func() identity.Service {
			svc := identity.NewLocalService(logger)
			// Dev convenience account.
			if err := svc.Seed("dev@gymovoo.app", "gymovoo-dev", "Dev"); err != nil {
				logger.Warn("seed local identity", zap.Error(err))
			}
			return svc
		}
	} else {
		newIdentity = func() identity.Service {
			return identity.NewHTTPClient(appCfg.IdentityBaseURL, appCfg.IdentityAPIKey, logger)
		}
	}

	var newPersist func(deviceKey string) session.PersistenceAdapter
	if deps.MongoDatabase != nil {
		store := snapshots.New(deps.MongoDatabase, appCfg.GuestRetention, logger)
		newPersist = func(deviceKey string) session.PersistenceAdapter {
			return store.ForDevice(deviceKey)
		}
	} else {
		mem := snapshots.NewMemory()
		newPersist = func(deviceKey string) session.PersistenceAdapter {
			return mem.ForDevice(deviceKey)
		}
	}

	return session.NewManager(session.ManagerConfig{
		NewIdentity:    newIdentity,
		NewPersist:     newPersist,
		Recorder:       collector,
		GuestRetention: appCfg.GuestRetention,
		Logger:         logger,
	})
}

// requestMetrics records request counts and latency per chi route
// pattern.
func requestMetrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(ww.Status()/100) + "xx"
			collector.ObserveRequest(route, status, time.Since(start).Seconds())
		})
	}
}
