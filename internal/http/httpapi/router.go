package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mapforge/internal/http/handlers"
	"mapforge/internal/middleware"
)

// NewRouter wires the HTTP routes and the middleware chain.
func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
	)
	if len(app.Cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(app.Cfg.CORSOrigins))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/version", app.Version)

	r.Group(func(r chi.Router) {
		if app.Cfg.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute))
		}

		r.Route("/v1/maps", func(r chi.Router) {
			r.Post("/", app.MapsGenerate)
			r.Get("/{session}", app.MapStatus)
			r.Get("/{session}/download", app.MapDownload)
			r.Get("/{session}/previews", app.MapPreviews)
			r.Get("/{session}/previews/{name}", app.MapPreviewFile)
		})

		r.Post("/v1/osm", app.OSMUpload)
		r.Get("/v1/queue", app.QueueStatus)
		r.Get("/v1/defaults", app.Defaults)
		r.Get("/v1/settings/schema", app.SettingsSchema)
		r.Get("/v1/stats", app.StatsSummary)
	})

	return r
}
