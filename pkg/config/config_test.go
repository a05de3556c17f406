package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/reefgrid/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestDefaultCanvas(t *testing.T) {
	w, h := Default().DefaultCanvas()
	if w != 1728 || h != 1037 {
		t.Errorf("DefaultCanvas() = %v x %v, want 1728 x 1037", w, h)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() of missing file = %+v, want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reefgrid.toml")
	content := `
[simulation]
threshold = 0.8
target_actions = 20

[colors]
active = "#00FF88"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Simulation.Threshold != 0.8 {
		t.Errorf("Threshold = %v, want 0.8", cfg.Simulation.Threshold)
	}
	if cfg.Simulation.TargetActions != 20 {
		t.Errorf("TargetActions = %v, want 20", cfg.Simulation.TargetActions)
	}
	if cfg.Colors.Active != "#00ff88" {
		t.Errorf("Active = %q, want %q", cfg.Colors.Active, "#00ff88")
	}
	if cfg.Simulation.UnitMin != 3000 {
		t.Errorf("UnitMin = %v, want default 3000", cfg.Simulation.UnitMin)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", "[simulation\nthreshold = "},
		{"threshold above one", "[simulation]\nthreshold = 1.5"},
		{"inverted unit range", "[simulation]\nunit_min = 10\nunit_max = 5"},
		{"bad color", "[colors]\nactive = \"yellow\""},
		{"inverted overlay", "[overlay]\nstart = 0.9\nend = 0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "reefgrid.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) && !errors.Is(err, errors.ErrCodeInvalidColor) {
				t.Errorf("Load() error code = %v, want INVALID_CONFIG or INVALID_COLOR", errors.GetCode(err))
			}
		})
	}
}

func TestSaveLoadPreservesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Simulation.Threshold = 0.75
	cfg.Grid.MaxTiles = 5000

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != cfg {
		t.Errorf("Load(Save(cfg)) = %+v, want %+v", got, cfg)
	}
}
