// Package web fronts the clinic's record flows over HTTP: login, the
// patient registry, and prontuário compilation. It owns no data; every
// operation is one call against the remote records API.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/odontocare/prontuario/internal/audit"
	"github.com/odontocare/prontuario/internal/config"
	"github.com/odontocare/prontuario/internal/report"
	"github.com/odontocare/prontuario/internal/session"
)

// Server represents the API server.
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, api RecordsAPI, sessions session.Store, compiler *report.Compiler, auditLog *audit.Logger, log zerolog.Logger) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(api, sessions, compiler, auditLog, log),
	}

	s.setupMiddleware(log)
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware(log zerolog.Logger) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handlers.Login)
		r.Post("/logout", s.handlers.Logout)
		r.Post("/prontuario", s.handlers.Prontuario)

		// Registry routes require a live session.
		r.Group(func(r chi.Router) {
			r.Use(s.handlers.RequireSession)

			r.Route("/patients", func(r chi.Router) {
				r.Get("/", s.handlers.ListPatients)
				r.Post("/", s.handlers.RegisterPatient)
				r.Put("/{id}", s.handlers.UpdatePatient)
				r.Delete("/{id}", s.handlers.DeletePatient)
				r.Post("/{id}/procedures", s.handlers.AppendProcedure)
			})

			r.Get("/audit/events", s.handlers.ListAuditEvents)
		})
	})
}

// Router returns the chi router.
func (s *Server) Router() http.Handler {
	return s.router
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
