package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campaignomatic/internal/domain"
	"campaignomatic/internal/http/handlers"
	"campaignomatic/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(app.Logger),
		middleware.Metrics,
		chimw.Recoverer,
		middleware.CORS(app.Config.CORSAllowedOrigins),
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.Health)
		r.Post("/generate", app.Generate)
		r.Route("/generations", func(r chi.Router) {
			r.Get("/", app.ListGenerations)
			r.Get("/{id}", app.GetGeneration)
			r.Get("/{id}/archive", app.GenerationArchive)
		})
	})

	r.Handle(domain.AssetsPrefix+"/*", http.StripPrefix(domain.AssetsPrefix, handlers.Assets(app.Config.AssetsDir)))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
