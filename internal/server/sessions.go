package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/reefgrid/pkg/errors"
	"github.com/matzehuels/reefgrid/pkg/sim"
	"github.com/matzehuels/reefgrid/pkg/store"
)

// session is one engine plus the lock that serializes access to it.
type session struct {
	mu      sync.Mutex
	id      string
	source  string
	engine  *sim.Engine
	created time.Time
}

type sessions struct {
	mu   sync.RWMutex
	byID map[string]*session
}

func newSessions() *sessions {
	return &sessions{byID: make(map[string]*session)}
}

func (ss *sessions) len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.byID)
}

// add registers e under a new id unless limit sessions are already live.
func (ss *sessions) add(source string, e *sim.Engine, limit int) (*session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if len(ss.byID) >= limit {
		return nil, errors.New(errors.ErrCodeUnavailable, "session limit of %d reached", limit)
	}
	s := &session{id: uuid.NewString(), source: source, engine: e, created: time.Now()}
	ss.byID[s.id] = s
	return s, nil
}

func (ss *sessions) get(id string) (*session, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found: %s", id)
	}
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.byID[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found: %s", id)
	}
	return s, nil
}

func (ss *sessions) remove(id string) (*session, error) {
	s, err := ss.get(id)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.byID[id]; !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found: %s", id)
	}
	delete(ss.byID, id)
	return s, nil
}

func (ss *sessions) drain() []*session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]*session, 0, len(ss.byID))
	for id, s := range ss.byID {
		out = append(out, s)
		delete(ss.byID, id)
	}
	return out
}

// archiveSession records s in the run archive, if one is configured.
func (s *Server) archiveSession(ctx context.Context, sess *session) {
	if s.archive == nil {
		return
	}
	sess.mu.Lock()
	run := store.NewRun(sess.source, sess.engine, sess.created)
	sess.mu.Unlock()
	run.ID = sess.id

	if err := s.archive.Save(ctx, run); err != nil {
		s.logger.Warn("archive session", "id", sess.id, "err", err)
		return
	}
	s.logger.Debug("archived session", "id", sess.id, "removed", run.Panel.TilesRemoved)
}

func (s *Server) archiveAll(ctx context.Context) {
	for _, sess := range s.sessions.drain() {
		s.archiveSession(ctx, sess)
	}
}
