// internal/app/features/login/routes.go
package login

import (
	"github.com/go-chi/chi/v5"
	"github.com/gymovoo/gymovoo/internal/app/system/ratelimit"
)

// Routes returns a subrouter for the credential endpoints, mounted
// under /login. Both routes sit behind the per-device rate limiter.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(limiter.Middleware)
	r.Post("/", h.ServeLogin)
	r.Post("/signup", h.ServeSignUp)
	return r
}
