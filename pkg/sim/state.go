package sim

import (
	"github.com/tanema/gween/ease"

	"github.com/matzehuels/reefgrid/pkg/config"
)

// Phase is the coarse simulation state.
type Phase string

const (
	PhaseActive    Phase = "active"
	PhaseCollapsed Phase = "collapsed"
)

// State tracks removal progress for one generation of tiles.
//
// Removed never exceeds Total, and Collapsed, once set, stays set until the
// tile set is rebuilt.
type State struct {
	Total     int     `json:"tiles_total"`
	Removed   int     `json:"tiles_removed"`
	Actions   int     `json:"actions"`
	Collapsed bool    `json:"collapsed"`
	Threshold float64 `json:"threshold"`
}

// Progress is Removed/Total, or 0 when there are no tiles.
func (s State) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Removed) / float64(s.Total)
}

// Phase reports whether the collapse latch is set.
func (s State) Phase() Phase {
	if s.Collapsed {
		return PhaseCollapsed
	}
	return PhaseActive
}

// Overlay is the whitening intensity (0-255 alpha) drawn over the tiles.
// It is 0 below the ramp start and after collapse. From the start it rises
// linearly along the line through (Start, Min) and (End, Max), continuing
// past End until collapse, and is capped at full alpha.
func (s State) Overlay(ramp config.Overlay) float64 {
	p := s.Progress()
	if s.Collapsed || p < ramp.Start || ramp.End <= ramp.Start {
		return 0
	}
	v := ease.Linear(float32(p-ramp.Start), float32(ramp.Min), float32(ramp.Max-ramp.Min), float32(ramp.End-ramp.Start))
	return min(float64(v), 255)
}

// record applies a kill of n tiles and evaluates the collapse latch.
// It reports whether this call set the latch.
func (s *State) record(n int) bool {
	if n <= 0 {
		return false
	}
	s.Removed = min(s.Total, s.Removed+n)
	if s.Collapsed || s.Total == 0 {
		return false
	}
	if float64(s.Removed)/float64(s.Total) >= s.Threshold {
		s.Collapsed = true
		return true
	}
	return false
}
