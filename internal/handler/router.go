package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/metrics"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter builds the middleware stack shared by both services.
func newRouter(log *slog.Logger, timeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(log))             // structured access log
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(metrics.Middleware)
	r.Use(cors.AllowAll().Handler)
	if timeout > 0 {
		r.Use(chimiddleware.Timeout(timeout))
	}

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// EventsDeps are the services behind the event API.
type EventsDeps struct {
	Log       *slog.Logger
	Events    *service.EventService
	Requests  *service.RequestService
	Directory *service.DirectoryService
	Timeout   time.Duration
}

// NewEventsRouter wires the event service API.
func NewEventsRouter(d EventsDeps) http.Handler {
	events := NewEventHandler(d.Log, d.Events)
	requests := NewRequestHandler(d.Log, d.Requests)
	admin := NewAdminHandler(d.Log, d.Events, d.Directory)

	r := newRouter(d.Log, d.Timeout)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/users", admin.CreateUser)
		r.Post("/categories", admin.CreateCategory)
		r.Get("/events", admin.ListEvents)
		r.Patch("/events/{eventId}", admin.UpdateEvent)
	})

	r.Route("/users/{userId}", func(r chi.Router) {
		r.Post("/events", events.CreateEvent)
		r.Get("/events", events.ListOwnEvents)
		r.Get("/events/{eventId}", events.GetOwnEvent)
		r.Patch("/events/{eventId}", events.UpdateOwnEvent)
		r.Get("/events/{eventId}/requests", requests.ListForEvent)
		r.Patch("/events/{eventId}/requests", requests.Resolve)

		r.Get("/requests", requests.ListOwn)
		r.Post("/requests", requests.Submit)
		r.Patch("/requests/{requestId}/cancel", requests.Cancel)
	})

	r.Get("/events", events.ListPublished)
	r.Get("/events/{eventId}", events.GetPublished)

	return r
}

// NewStatsRouter wires the analytics service API.
func NewStatsRouter(log *slog.Logger, svc *service.StatsService, timeout time.Duration) http.Handler {
	stats := NewStatsHandler(log, svc)

	r := newRouter(log, timeout)
	r.Post("/hit", stats.Hit)
	r.Get("/stats", stats.Stats)
	return r
}
