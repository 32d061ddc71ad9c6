// Package httpapi exposes the timer, activity, aggregate and export use
// cases as a JSON HTTP API.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alexanderramin/timekeep/internal/app"
)

// Deps are the use cases served by the API. Identity defaults to
// HeaderIdentity, Clock to time.Now and Logger to a discarding logger.
type Deps struct {
	Timer     app.TimerUseCase
	Activity  app.ActivityUseCase
	Aggregate app.AggregateUseCase
	Export    app.ExportUseCase
	Identity  app.Identity
	Clock     func() time.Time
	Logger    *slog.Logger
}

type Server struct {
	router    *chi.Mux
	timer     app.TimerUseCase
	activity  app.ActivityUseCase
	aggregate app.AggregateUseCase
	export    app.ExportUseCase
	identity  app.Identity
	clock     func() time.Time
	logger    *slog.Logger
}

func NewServer(d Deps) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		timer:     d.Timer,
		activity:  d.Activity,
		aggregate: d.Aggregate,
		export:    d.Export,
		identity:  d.Identity,
		clock:     d.Clock,
		logger:    d.Logger,
	}
	if s.identity == nil {
		s.identity = HeaderIdentity{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/timer/start", s.handleStart)
		r.Post("/timer/pause", s.handlePause)
		r.Post("/timer/resume", s.handleResume)
		r.Post("/timer/stop", s.handleStop)
		r.Get("/timer/current", s.handleCurrent)

		r.With(requireAdmin).Post("/admin/timer/force-stop", s.handleForceStop)

		r.Get("/sessions/active", s.handleActive)
		r.Get("/aggregate", s.handleAggregate)
		r.Get("/export", s.handleExport)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
