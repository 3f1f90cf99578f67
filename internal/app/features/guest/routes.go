// internal/app/features/guest/routes.go
package guest

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /guest.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeBecomeGuest)
	return r
}
