package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studio-server/internal/http/handlers"
	"studio-server/internal/infra"
	"studio-server/internal/middleware"
)

// NewRouter assembles the HTTP surface: the provider webhook, the submission
// and readback endpoints, and operational routes.
func NewRouter(app *handlers.App, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Metrics,
		middleware.Logger(logger),
		middleware.CORS(nil),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/webhooks", func(r chi.Router) {
		r.Post("/dream", app.DreamWebhook)
	})

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.GenerationsCreate)
		r.Post("/text", app.GenerationsText)
		r.Get("/{id}", app.GenerationsGet)
	})

	return r
}
