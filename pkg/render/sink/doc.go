// Package sink renders simulation snapshots to output formats.
//
// # Overview
//
// A "sink" transforms a [sim.Snapshot] into a final output format:
//
//   - SVG: one <rect> per tile, overlay and collapse banner as elements
//   - PNG: the same frame rasterized with fogleman/gg
//   - JSON: the snapshot data for external tools
//
// All formats draw the same frame. The background is the desktop color,
// live tiles use their own color and dead tiles the dead color. Each tile
// is widened by a small pad so adjacent tiles do not show hairline seams
// after anti-aliasing. While progress is inside the overlay ramp a white
// wash of the snapshot's overlay alpha covers everything; after collapse
// the banner text is drawn centered instead.
//
// Basic usage:
//
//	snap := engine.Snapshot()
//	svg := sink.RenderSVG(snap, sink.WithPanel())
//	png, err := sink.RenderPNG(snap, sink.WithScale(2))
//	data, err := sink.RenderJSON(snap, sink.WithJSONSeed(engine.Seed()))
//
// [sim.Snapshot]: github.com/matzehuels/reefgrid/pkg/sim.Snapshot
package sink

import (
	"github.com/matzehuels/reefgrid/pkg/grid"
	"github.com/matzehuels/reefgrid/pkg/sim"
	"github.com/matzehuels/reefgrid/pkg/vector"
)

// Formats lists the supported output formats.
var Formats = []string{"svg", "png", "json"}

// seamPad is added to tile width and height when drawing.
const seamPad = 0.5

// BannerSize is the collapse banner font size in canvas pixels.
const BannerSize = 48

// fillOf returns the color a tile is drawn with.
func fillOf(t grid.Tile, snap sim.Snapshot) vector.RGB {
	if t.Dead {
		return vector.MustColor(snap.DeadColor)
	}
	return t.Color
}
