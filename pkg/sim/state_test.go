package sim

import (
	"math"
	"testing"

	"github.com/matzehuels/reefgrid/pkg/config"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		state State
		want  float64
	}{
		{State{Total: 0}, 0},
		{State{Total: 4, Removed: 1}, 0.25},
		{State{Total: 4, Removed: 4}, 1},
	}
	for _, tt := range tests {
		if got := tt.state.Progress(); got != tt.want {
			t.Errorf("Progress(%+v) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestCollapseLatch(t *testing.T) {
	tiles, idx := row(100, nil)
	r := NewRegistry(tiles, idx, 0.5)

	for i := 0; i < 49; i++ {
		r.KillTile(i)
	}
	if r.State().Collapsed {
		t.Fatal("collapsed at 49%, want active")
	}
	r.KillTile(49)
	if !r.State().Collapsed {
		t.Fatal("not collapsed at 50%, want collapsed")
	}
	if r.State().Phase() != PhaseCollapsed {
		t.Errorf("Phase() = %v, want %v", r.State().Phase(), PhaseCollapsed)
	}
	if !r.takeCollapse() {
		t.Error("takeCollapse() = false on first call, want true")
	}
	if r.takeCollapse() {
		t.Error("takeCollapse() = true on second call, want false")
	}

	r.KillTile(50)
	r.KillTile(50)
	if !r.State().Collapsed {
		t.Error("collapse latch cleared by further kills")
	}
	if r.takeCollapse() {
		t.Error("takeCollapse() reported a second transition")
	}
}

func TestNoCollapseWithoutKill(t *testing.T) {
	r := NewRegistry(nil, nil, 0.5)
	r.KillTile(0)
	r.KillTileAt(0, 0)
	if r.State().Collapsed {
		t.Error("empty registry collapsed, want active")
	}
}

func TestOverlay(t *testing.T) {
	ramp := config.Default().Overlay

	tests := []struct {
		name  string
		state State
		want  float64
	}{
		{"below start", State{Total: 100, Removed: 59}, 0},
		{"at start", State{Total: 100, Removed: 60}, 8},
		{"midway", State{Total: 100, Removed: 70}, 20},
		{"at end", State{Total: 100, Removed: 80}, 32},
		{"past end", State{Total: 100, Removed: 95}, 50},
		{"all removed before latch", State{Total: 100, Removed: 100}, 56},
		{"collapsed", State{Total: 100, Removed: 100, Collapsed: true}, 0},
		{"empty", State{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.state.Overlay(ramp)
			if math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("Overlay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlayCappedAtFullAlpha(t *testing.T) {
	ramp := config.Overlay{Start: 0.1, End: 0.2, Min: 100, Max: 200}
	if got := (State{Total: 10, Removed: 9}).Overlay(ramp); got != 255 {
		t.Errorf("Overlay() = %v, want 255", got)
	}
}
