package accreditations

import "github.com/go-chi/chi/v5"

// MountRoutes registers the accreditation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.assign)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// MountEmployeeRoutes registers the per-employee listing route.
func (h *Handler) MountEmployeeRoutes(r chi.Router) {
	r.Get("/{id}/accreditations", h.listByEmployee)
}
