// internal/app/features/demo/routes.go
package demo

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /demo.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLevels)
	r.Post("/", h.ServeActivate)
	return r
}
