package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/oriventa/clearance/internal/accreditations"
	"github.com/oriventa/clearance/internal/auth"
	"github.com/oriventa/clearance/internal/catalog"
	"github.com/oriventa/clearance/internal/derogations"
	"github.com/oriventa/clearance/internal/employees"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	AuthHandler          *auth.Handler
	AuthMiddleware       auth.Middleware
	EmployeeHandler      *employees.Handler
	CatalogHandler       *catalog.Handler
	AccreditationHandler *accreditations.Handler
	DerogationHandler    *derogations.Handler
}

// NewRouter constructs the chi.Router with defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/employees", func(r chi.Router) {
		r.Use(params.AuthMiddleware.Authenticate)

		r.Route("/levels", params.CatalogHandler.MountLevelRoutes)
		r.Route("/authorizations", params.CatalogHandler.MountPermissionRoutes)
		r.Route("/accreditations", params.AccreditationHandler.MountRoutes)
		r.Route("/derogations", params.DerogationHandler.MountRoutes)

		params.AccreditationHandler.MountEmployeeRoutes(r)
		params.DerogationHandler.MountEmployeeRoutes(r)
		params.EmployeeHandler.MountRoutes(r)
	})

	return r
}
