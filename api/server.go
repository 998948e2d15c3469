// Package api serves the encrypted assessment endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"assessment-backend/transport"
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type Server struct {
	svc            AssessmentService
	requestTimeout time.Duration
	router         chi.Router
	httpServer     *http.Server
}

// NewServer builds the router. Every route is served at the root and
// mirrored under transport.RoutePrefix.
func NewServer(svc AssessmentService, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	s := &Server{svc: svc, requestTimeout: opts.RequestTimeout}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Group(s.routes)
	r.Route(transport.RoutePrefix, s.routes)

	s.router = r
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: opts.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(r chi.Router) {
	r.Post(transport.PathAssess, s.handleAssess)
	r.Get(transport.PathModelInfo, s.handleModelInfo)
	r.Get(transport.PathHealth, s.handleHealth)
	r.Post(transport.PathInitialize, s.handleInitialize)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("Starting assessment API on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
