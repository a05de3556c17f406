package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/reefgrid/pkg/config"
	"github.com/matzehuels/reefgrid/pkg/errors"
	"github.com/matzehuels/reefgrid/pkg/sim"
)

const testSVG = `<svg viewBox="0 0 100 50">
  <rect x="0" y="0" width="10" height="10" fill="#ffe100"/>
  <rect x="20" y="0" width="10" height="10" fill="#ffe100"/>
</svg>`

func TestNewRun(t *testing.T) {
	e := sim.NewEngine(config.Default(), sim.Inputs{Markup: testSVG}, sim.WithSeed(7))
	e.KillRandom()

	start := time.Now().Add(-time.Second)
	run := NewRun("reef.svg", e, start)

	if _, err := uuid.Parse(run.ID); err != nil {
		t.Errorf("ID = %q, not a uuid", run.ID)
	}
	if run.Seed != 7 || run.Strategy != "vector" || run.Source != "reef.svg" {
		t.Errorf("run = %+v", run)
	}
	if run.Panel.TilesRemoved != 1 || run.Panel.TilesTotal != 2 {
		t.Errorf("Panel = %+v, want 1 of 2 removed", run.Panel)
	}
	if run.Duration() < time.Second {
		t.Errorf("Duration() = %v, want >= 1s", run.Duration())
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer s.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		run := &Run{
			ID:        uuid.NewString(),
			Source:    "reef.svg",
			Seed:      uint64(i),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.Save(ctx, run); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		ids = append(ids, run.ID)
	}

	got, err := s.Get(ctx, ids[1])
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Seed != 1 {
		t.Errorf("Get().Seed = %d, want 1", got.Seed)
	}

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 3 || runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("List() order wrong: %v", runs)
	}

	runs, _ = s.List(ctx, 2)
	if len(runs) != 2 {
		t.Errorf("List(2) len = %d, want 2", len(runs))
	}
}

func TestFileStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())

	for _, id := range []string{uuid.NewString(), "../../etc/passwd"} {
		_, err := s.Get(ctx, id)
		if !errors.Is(err, errors.ErrCodeRunNotFound) {
			t.Errorf("Get(%q) error = %v, want RUN_NOT_FOUND", id, err)
		}
	}
}

func TestFileStoreRejectsBadID(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	if err := s.Save(context.Background(), &Run{ID: "x/y"}); err == nil {
		t.Error("Save() error = nil for malformed id")
	}
}

func TestFileStoreListSkipsCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, _ := NewFileStore(dir)

	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600)
	s.Save(ctx, &Run{ID: uuid.NewString()})

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("List() len = %d, want 1", len(runs))
	}
}
