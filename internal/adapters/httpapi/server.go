package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/adapters/metrics"
	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/schedule"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/tide"
	"github.com/harborops/quayplan/internal/domain/vessel"
)

// Config tunes the HTTP surface
type Config struct {
	RateLimitPerIPPerMinute int
	SuggestTimeout          time.Duration
	AllocateTimeout         time.Duration
	DefaultPortCode         string
}

// Server is the REST and websocket surface over the planning core.
// Writes go through the mediator; reference-data CRUD hits the repositories.
type Server struct {
	mediator    common.Mediator
	vessels     vessel.Repository
	berths      berth.Repository
	maintenance berth.MaintenanceRepository
	schedules   schedule.Repository
	resources   resource.Repository
	tides       tide.Repository
	bus         *events.Bus
	clock       shared.Clock
	logger      common.Logger
	cfg         Config
	router      chi.Router
}

// NewServer wires the routes and middleware
func NewServer(
	mediator common.Mediator,
	vessels vessel.Repository,
	berths berth.Repository,
	maintenance berth.MaintenanceRepository,
	schedules schedule.Repository,
	resources resource.Repository,
	tides tide.Repository,
	bus *events.Bus,
	clock shared.Clock,
	logger common.Logger,
	cfg Config,
) *Server {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if cfg.SuggestTimeout <= 0 {
		cfg.SuggestTimeout = 5 * time.Second
	}
	if cfg.AllocateTimeout <= 0 {
		cfg.AllocateTimeout = 10 * time.Second
	}
	s := &Server{
		mediator:    mediator,
		vessels:     vessels,
		berths:      berths,
		maintenance: maintenance,
		schedules:   schedules,
		resources:   resources,
		tides:       tides,
		bus:         bus,
		clock:       clock,
		logger:      logger,
		cfg:         cfg,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root http handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(loggingMiddleware(s.logger))
	r.Use(rateLimitMiddleware(s.cfg.RateLimitPerIPPerMinute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics.IsEnabled() {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/vessels", func(r chi.Router) {
			r.Post("/", s.createVessel)
			r.Get("/", s.listVessels)
			r.Get("/{vesselId}", s.getVessel)
			r.Get("/{vesselId}/history", s.vesselHistory)
		})

		r.Route("/ports", func(r chi.Router) {
			r.Post("/", s.createPort)
			r.Get("/", s.listPorts)
			r.Post("/{portCode}/tides", s.addTideReading)
			r.Get("/{portCode}/tides", s.listTideReadings)
		})

		r.Route("/terminals", func(r chi.Router) {
			r.Post("/", s.createTerminal)
			r.Get("/", s.listTerminals)
		})

		r.Route("/berths", func(r chi.Router) {
			r.Post("/", s.createBerth)
			r.Get("/", s.listBerths)
			r.Get("/{berthId}", s.getBerth)
			r.Post("/{berthId}/maintenance", s.addMaintenanceWindow)
		})

		r.Route("/resources", func(r chi.Router) {
			r.Post("/", s.createResource)
			r.Get("/available", s.availableResources)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", s.allocateBerth)
			r.Get("/", s.listActiveSchedules)
			r.Get("/{scheduleId}", s.getSchedule)
			r.Put("/{scheduleId}/reschedule", s.reschedule)
			r.Post("/{scheduleId}/arrival", s.recordArrival)
			r.Post("/{scheduleId}/berthing", s.recordBerthing)
			r.Post("/{scheduleId}/departure", s.recordDeparture)
			r.Post("/{scheduleId}/cancel", s.cancelSchedule)
			r.Put("/{scheduleId}/eta", s.updateETA)
			r.Delete("/clear-all", s.clearAll)
		})

		r.Get("/suggestions/berth/{vesselId}", s.suggestBerths)
		r.Get("/predictions/eta/active", s.activeETAPredictions)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/metrics", s.dashboardMetrics)
			r.Get("/berth-status", s.berthStatus)
			r.Get("/alerts", s.activeAlerts)
		})

		r.Route("/conflicts", func(r chi.Router) {
			r.Get("/", s.activeConflicts)
			r.Post("/{conflictId}/resolve", s.resolveConflict)
		})

		r.Post("/alerts/{alertId}/read", s.markAlertRead)

		r.Get("/events", s.streamEvents)
	})

	return r
}
