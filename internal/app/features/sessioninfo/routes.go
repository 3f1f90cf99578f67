// internal/app/features/sessioninfo/routes.go
package sessioninfo

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the session endpoints, mounted under
// /session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeState)
	r.Post("/clear-error", h.ServeClearError)
	return r
}
