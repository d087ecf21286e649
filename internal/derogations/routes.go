package derogations

import "github.com/go-chi/chi/v5"

// MountRoutes registers the derogation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

// MountEmployeeRoutes registers the per-employee listing route.
func (h *Handler) MountEmployeeRoutes(r chi.Router) {
	r.Get("/{id}/derogations", h.listByEmployee)
}
