package catalog

import "github.com/go-chi/chi/v5"

// MountLevelRoutes registers the level catalog routes.
func (h *Handler) MountLevelRoutes(r chi.Router) {
	r.Get("/", h.listLevels)
	r.Get("/{id}", h.getLevel)
}

// MountPermissionRoutes registers the permission catalog routes.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
	r.Get("/{id}", h.getPermission)
}
