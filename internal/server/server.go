// Package server exposes simulation sessions over HTTP.
//
// A session is one engine built from an uploaded source. Every mutation
// of a session holds that session's lock, so concurrent requests against
// the same id are serialized while different sessions proceed in
// parallel.
//
// Routes:
//
//	GET    /healthz
//	POST   /sessions                     body: SVG or bitmap; ?name=&width=&height=&seed=
//	GET    /sessions/{id}
//	DELETE /sessions/{id}
//	POST   /sessions/{id}/kill?x=&y=
//	POST   /sessions/{id}/random
//	POST   /sessions/{id}/act            optional ?magnitude=
//	POST   /sessions/{id}/reset
//	POST   /sessions/{id}/resize?w=&h=
//	GET    /sessions/{id}/render.{format}  ?panel=true&groups=true&scale=
//
// Errors are JSON objects {"code": ..., "message": ...} with the status
// from [errors.HTTPStatus].
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/reefgrid/pkg/config"
	"github.com/matzehuels/reefgrid/pkg/errors"
	"github.com/matzehuels/reefgrid/pkg/observability"
	"github.com/matzehuels/reefgrid/pkg/pipeline"
	"github.com/matzehuels/reefgrid/pkg/store"
)

const (
	// DefaultMaxUpload caps the size of an uploaded source.
	DefaultMaxUpload = 8 << 20
	// DefaultMaxSessions caps the number of live sessions.
	DefaultMaxSessions = 256
)

// Server serves the session API.
type Server struct {
	runner      *pipeline.Runner
	cfg         config.Config
	logger      *log.Logger
	archive     store.Store
	maxUpload   int64
	maxSessions int

	sessions *sessions
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithArchive saves a run record for every deleted session.
func WithArchive(st store.Store) Option { return func(s *Server) { s.archive = st } }

// WithMaxUpload sets the largest accepted source in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithMaxSessions sets how many sessions may be live at once.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// New creates a server that builds engines through runner with cfg.
func New(runner *pipeline.Runner, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		runner:      runner,
		cfg:         cfg,
		logger:      log.New(io.Discard),
		maxUpload:   DefaultMaxUpload,
		maxSessions: DefaultMaxSessions,
		sessions:    newSessions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Len returns the number of live sessions.
func (s *Server) Len() int { return s.sessions.len() }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/kill", s.handleKill)
			r.Post("/random", s.handleRandom)
			r.Post("/act", s.handleAct)
			r.Post("/reset", s.handleReset)
			r.Post("/resize", s.handleResize)
			r.Get("/render.{format}", s.handleRender)
		})
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, route)
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))

		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.archiveAll(shutdownCtx)
	return nil
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}
