package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/matzehuels/reefgrid/pkg/errors"
)

// FileStore keeps each run in <dir>/<id>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create run dir")
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the directory runs are written to.
func (s *FileStore) Path() string { return s.dir }

func (s *FileStore) runPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Save(_ context.Context, run *Run) error {
	if err := errors.ValidateSessionID(run.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal run")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.runPath(run.ID), data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write run %s", run.ID)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, id string) (*Run, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %q not found", id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.runPath(id), id)
}

func (s *FileStore) read(path, id string) (*Run, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read run %s", id)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse run %s", id)
	}
	return &run, nil
}

// List skips files that do not parse.
func (s *FileStore) List(_ context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read run dir")
	}
	var runs []*Run
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		run, err := s.read(filepath.Join(s.dir, e.Name()), e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}

	slices.SortFunc(runs, func(a, b *Run) int { return b.StartedAt.Compare(a.StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
