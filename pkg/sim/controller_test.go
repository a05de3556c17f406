package sim

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/reefgrid/pkg/config"
)

func TestTilesPerUnit(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		threshold     float64
		meanUnit      float64
		targetActions int
		want          float64
	}{
		{"reference", 100, 1.0, 15, 30, 100.0 / 450},
		{"partial threshold", 1000, 0.8, 10, 20, 4},
		{"no tiles", 0, 1, 15, 30, 0},
		{"zero mean", 100, 1, 0, 30, 0},
		{"zero actions", 100, 1, 15, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TilesPerUnit(tt.total, tt.threshold, tt.meanUnit, tt.targetActions)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TilesPerUnit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func newTestController(n int, sim config.Simulation) (*Registry, *Controller) {
	tiles, idx := row(n, nil)
	reg := NewRegistry(tiles, idx, sim.Threshold)
	return reg, NewController(reg, rand.New(rand.NewPCG(7, 7)), sim)
}

func TestBatch(t *testing.T) {
	sim := config.Default().Simulation
	reg, ctrl := newTestController(100, sim)

	if got := ctrl.BatchSize(15); got != 68 {
		t.Errorf("BatchSize(15) = %d, want 68", got)
	}
	if got := ctrl.Batch(15); got != 68 {
		t.Errorf("Batch(15) = %d, want 68", got)
	}
	st := reg.State()
	if st.Removed != 68 || st.Actions != 1 {
		t.Errorf("state = %+v, want 68 removed and 1 action", st)
	}

	// The second batch runs out of tiles.
	if got := ctrl.Batch(15); got != 32 {
		t.Errorf("Batch(15) second = %d, want 32", got)
	}
	if !reg.State().Collapsed {
		t.Error("Collapsed = false after removing every tile at threshold 1.0")
	}
	if got := ctrl.Batch(15); got != 0 {
		t.Errorf("Batch(15) on empty = %d, want 0", got)
	}
	if reg.State().Actions != 3 {
		t.Errorf("Actions = %d, want 3", reg.State().Actions)
	}
}

func TestBatchCap(t *testing.T) {
	sim := config.Default().Simulation
	sim.BatchCap = 5
	reg, ctrl := newTestController(100, sim)

	if got := ctrl.Batch(15); got != 5 {
		t.Errorf("Batch(15) with cap 5 = %d, want 5", got)
	}
	if reg.State().Removed != 5 {
		t.Errorf("Removed() = %d, want 5", reg.State().Removed)
	}
}

func TestBatchNoTiles(t *testing.T) {
	_, ctrl := newTestController(0, config.Default().Simulation)
	if ctrl.TilesPerUnit() != 0 {
		t.Errorf("TilesPerUnit() = %v, want 0", ctrl.TilesPerUnit())
	}
	if got := ctrl.Batch(3500); got != 0 {
		t.Errorf("Batch() = %d, want 0", got)
	}
}

func TestRandomMagnitude(t *testing.T) {
	sim := config.Default().Simulation
	_, ctrl := newTestController(10, sim)

	for i := 0; i < 200; i++ {
		m := ctrl.RandomMagnitude()
		if m < float64(sim.UnitMin) || m > float64(sim.UnitMax) || m != math.Trunc(m) {
			t.Fatalf("RandomMagnitude() = %v, want integer in [%d, %d]", m, sim.UnitMin, sim.UnitMax)
		}
	}

	sim.UnitMax = sim.UnitMin
	_, fixed := newTestController(10, sim)
	if got := fixed.RandomMagnitude(); got != float64(sim.UnitMin) {
		t.Errorf("RandomMagnitude() with empty range = %v, want %d", got, sim.UnitMin)
	}
}
