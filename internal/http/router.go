package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/preston-bernstein/footy-live-service/internal/http/handlers"
	"github.com/preston-bernstein/footy-live-service/internal/http/middleware"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
)

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Recorder
	AllowedOrigins []string
}

// NewRouter registers HTTP routes for the subscription API and live socket.
func NewRouter(h *handlers.Handler, cfg RouterConfig) nethttp.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(cfg.Logger, cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodDelete, nethttp.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", handlers.HeaderClientID},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/ws", h.Socket)

	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Subscribe)
		r.Delete("/{id}", h.Unsubscribe)
	})
	return r
}
