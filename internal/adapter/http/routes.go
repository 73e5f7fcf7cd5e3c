package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/subete/internal/adapter/otel"
	"github.com/Strob0t/subete/internal/config"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", h.Version)
		r.Get("/summary", h.Summary)
		r.Get("/snapshot", h.Snapshot)
		r.Get("/letters", h.Letters)
		r.Get("/random", h.Random)

		r.Get("/languages", h.ListLanguages)
		r.Get("/languages/{language}", h.GetLanguage)
		r.Get("/languages/{language}/readme", h.GetReadme)
		r.Get("/languages/{language}/programs/{project}", h.GetProgram)
		r.Get("/languages/{language}/programs/{project}/code", h.GetProgramCode)

		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{key}", h.GetProject)
	})
}

// NewRouter builds the API router with the standard middleware stack.
func NewRouter(h *Handlers, cfg config.Server, serviceName string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Logger)
	r.Use(SecurityHeaders)
	r.Use(CORS(cfg.CORSOrigin))
	r.Use(otel.HTTPMiddleware(serviceName))
	MountRoutes(r, h)
	return r
}
