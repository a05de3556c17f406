package server

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/reefgrid/pkg/errors"
	"github.com/matzehuels/reefgrid/pkg/pipeline"
	"github.com/matzehuels/reefgrid/pkg/sim"
	"github.com/matzehuels/reefgrid/pkg/source"
)

// sessionView is the JSON form of a session.
type sessionView struct {
	ID        string      `json:"id"`
	Source    string      `json:"source,omitempty"`
	Strategy  string      `json:"strategy"`
	Parser    string      `json:"parser,omitempty"`
	Seed      uint64      `json:"seed"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Cols      int         `json:"cols,omitempty"`
	Rows      int         `json:"rows,omitempty"`
	Groups    []groupView `json:"groups,omitempty"`
	State     sim.State   `json:"state"`
	Overlay   float64     `json:"overlay"`
	Panel     sim.Panel   `json:"panel"`
	Banner    string      `json:"banner,omitempty"`
	Killed    *int        `json:"killed,omitempty"`
	Magnitude float64     `json:"magnitude,omitempty"`
}

type groupView struct {
	ID   string `json:"id"`
	Dead bool   `json:"dead"`
}

// view must be called with sess.mu held.
func view(sess *session) sessionView {
	e := sess.engine
	snap := e.Snapshot()
	w, h := e.Canvas()
	cols, rows := e.GridSize()
	v := sessionView{
		ID:       sess.id,
		Source:   sess.source,
		Strategy: string(e.Strategy()),
		Seed:     e.Seed(),
		Width:    w,
		Height:   h,
		Cols:     cols,
		Rows:     rows,
		State:    e.State(),
		Overlay:  snap.Overlay,
		Panel:    snap.Panel,
		Banner:   snap.BannerText,
	}
	if e.Strategy() == sim.StrategyVector {
		v.Parser = e.Document().Method
	}
	reg := e.Registry()
	for _, id := range reg.Groups() {
		v.Groups = append(v.Groups, groupView{ID: id, Dead: reg.GroupDead(id)})
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.len()})
}

// handleCreate builds a session from the request body. The body is the raw
// source file; name decides how it is decoded and defaults to sniffing.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err := floatParam(q.Get("width"), "width")
	if err != nil {
		s.writeError(w, err)
		return
	}
	height, err := floatParam(q.Get("height"), "height")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var seed uint64
	if v := q.Get("seed"); v != "" {
		if seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "seed must be an unsigned integer, got %q", v))
			return
		}
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if len(data) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body is empty"))
		return
	}

	name := q.Get("name")
	if name == "" {
		name = "upload"
	}
	src := source.Decode(name, data)
	if !src.IsVector() && src.Raster == nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeSourceUnavailable, src.RasterErr, "decode %s", name))
		return
	}

	cfg := s.cfg
	opts := pipeline.Options{
		Source: name,
		Width:  width,
		Height: height,
		Seed:   seed,
		Config: &cfg,
		Logger: s.logger,
	}
	// The engine outlives this request.
	e, _, err := s.runner.LoadSource(context.WithoutCancel(r.Context()), src, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := s.sessions.add(name, e, s.maxSessions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session created", "id", sess.id, "source", name, "tiles", e.State().Total)

	sess.mu.Lock()
	v := view(sess)
	sess.mu.Unlock()
	w.Header().Set("Location", "/sessions/"+sess.id)
	s.writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(*session) (*int, float64, error) { return nil, 0, nil })
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.remove(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.archiveSession(r.Context(), sess)
	s.logger.Info("session deleted", "id", sess.id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKill(w http.ResponseWriter, r *http.Request) {
	x, errX := requiredFloat(r, "x")
	y, errY := requiredFloat(r, "y")
	if err := firstErr(errX, errY); err != nil {
		s.writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) (*int, float64, error) {
		n := sess.engine.KillAt(x, y)
		return &n, 0, nil
	})
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (*int, float64, error) {
		n := sess.engine.KillRandom()
		return &n, 0, nil
	})
}

// handleAct runs one batch. Without ?magnitude= the magnitude is drawn
// from the configured unit range.
func (s *Server) handleAct(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("magnitude")
	mag, err := floatParam(raw, "magnitude")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if raw != "" && mag <= 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "magnitude must be positive, got %v", mag))
		return
	}
	s.withSession(w, r, func(sess *session) (*int, float64, error) {
		if raw == "" {
			m, n := sess.engine.Act()
			return &n, m, nil
		}
		n := sess.engine.Batch(mag)
		return &n, mag, nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (*int, float64, error) {
		sess.engine.Reset()
		return nil, 0, nil
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	width, errW := requiredFloat(r, "w")
	height, errH := requiredFloat(r, "h")
	if err := firstErr(errW, errH); err != nil {
		s.writeError(w, err)
		return
	}
	if width <= 0 || height <= 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidGeometry, "canvas must have positive size, got %gx%g", width, height))
		return
	}
	s.withSession(w, r, func(sess *session) (*int, float64, error) {
		sess.engine.Resize(width, height)
		return nil, 0, nil
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := errors.ValidateOutputFormat(format); err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	scale, err := floatParam(q.Get("scale"), "scale")
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	cfg := s.cfg
	opts := pipeline.Options{
		Source:  sess.source,
		Formats: []string{format},
		Scale:   scale,
		Panel:   boolParam(q.Get("panel")),
		Groups:  boolParam(q.Get("groups")),
		Config:  &cfg,
		Logger:  s.logger,
	}

	sess.mu.Lock()
	artifacts, err := s.runner.Render(r.Context(), sess.engine, opts)
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifacts[format]); err != nil {
		s.logger.Debug("write artifact", "err", err)
	}
}

// withSession runs fn under the session lock and responds with the
// session's state. fn may report how many tiles it removed and the
// magnitude it used.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session) (*int, float64, error)) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess.mu.Lock()
	killed, mag, err := fn(sess)
	v := view(sess)
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	v.Killed, v.Magnitude = killed, mag
	s.writeJSON(w, http.StatusOK, v)
}

// =============================================================================
// Parameters
// =============================================================================

func floatParam(v, name string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number, got %q", name, v)
	}
	return f, nil
}

func requiredFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "missing query parameter %q", name)
	}
	return floatParam(v, name)
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}
