// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /profile.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Put("/", h.ServeUpdate)
	r.Post("/refresh", h.ServeRefresh)
	return r
}
