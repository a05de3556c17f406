package sim

import (
	"fmt"
	"math"

	"github.com/matzehuels/reefgrid/pkg/grid"
)

// Panel is the numeric summary shown next to the canvas.
type Panel struct {
	TilesTotal      int     `json:"tiles_total"`
	TilesRemoved    int     `json:"tiles_removed"`
	ProgressPercent float64 `json:"progress_percent"`
	Actions         int     `json:"actions"`
	UnitMin         int     `json:"unit_min"`
	UnitMax         int     `json:"unit_max"`
}

// String formats the panel on one line.
func (p Panel) String() string {
	return fmt.Sprintf("tiles %d  removed %d  progress %.1f%%  actions %d  units %d-%d",
		p.TilesTotal, p.TilesRemoved, p.ProgressPercent, p.Actions, p.UnitMin, p.UnitMax)
}

// Snapshot is everything a renderer needs to draw one frame.
type Snapshot struct {
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Strategy  Strategy    `json:"strategy"`
	Tiles     []grid.Tile `json:"tiles"`
	Overlay   float64     `json:"overlay"`
	Collapsed bool        `json:"collapsed"`
	Threshold float64     `json:"threshold"`
	Panel     Panel       `json:"panel"`

	// Colors are #rrggbb.
	Background string `json:"background"`
	DeadColor  string `json:"dead_color"`
	BannerText string `json:"banner_text,omitempty"`
	BannerHex  string `json:"banner_color"`
}

// Panel returns the current numeric summary.
func (e *Engine) Panel() Panel {
	st := e.reg.State()
	return Panel{
		TilesTotal:      st.Total,
		TilesRemoved:    st.Removed,
		ProgressPercent: st.Progress() * 100,
		Actions:         st.Actions,
		UnitMin:         e.cfg.Simulation.UnitMin,
		UnitMax:         e.cfg.Simulation.UnitMax,
	}
}

// Snapshot captures the current frame. The tile slice is a copy.
func (e *Engine) Snapshot() Snapshot {
	st := e.reg.State()
	s := Snapshot{
		Width:      e.canvasW,
		Height:     e.canvasH,
		Strategy:   e.strategy,
		Tiles:      e.reg.Tiles(),
		Overlay:    st.Overlay(e.cfg.Overlay),
		Collapsed:  st.Collapsed,
		Threshold:  st.Threshold,
		Panel:      e.Panel(),
		Background: e.cfg.Colors.Desktop,
		DeadColor:  e.cfg.Colors.Dead,
		BannerHex:  e.cfg.Colors.Banner,
	}
	if st.Collapsed {
		s.BannerText = CollapseBanner(st.Threshold)
	}
	return s
}

// CollapseBanner is the text shown once the reef has collapsed.
func CollapseBanner(threshold float64) string {
	return fmt.Sprintf("REEF COLLAPSE (%d%% loss)", int(math.Round(threshold*100)))
}

func formatSize(w, h float64) string {
	return fmt.Sprintf("%gx%g", w, h)
}
