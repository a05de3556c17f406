// Package pkg provides the core libraries of Reefgrid.
//
// # Overview
//
// Reefgrid turns a vector drawing into a grid of tiles and runs a removal
// simulation over them. Tiles die from point hits, random picks or batches
// sized from a magnitude; once the removed fraction reaches the configured
// threshold the reef collapses. The pkg directory is organized into:
//
//  1. Domain logic: [vector], [geom], [grid], [sim]
//  2. Inputs and outputs: [source], [render/sink]
//  3. Infrastructure: [cache], [store], [config], [errors], [observability]
//  4. Orchestration: [pipeline]
//
// # Architecture
//
// The typical data flow:
//
//	SVG markup or bitmap
//	         ↓
//	    [vector] package (rectangles, colors, groups)
//	         ↓
//	    [geom] package (view box, canvas scale)
//	         ↓
//	    [grid] package (tiles by vector or raster strategy)
//	         ↓
//	    [sim] package (registry, collapse latch, action controller)
//	         ↓
//	    SVG/PNG/JSON output
//
// # Quick Start
//
// Build an engine from markup, act once and render the frame:
//
//	import (
//	    "github.com/matzehuels/reefgrid/pkg/config"
//	    "github.com/matzehuels/reefgrid/pkg/render/sink"
//	    "github.com/matzehuels/reefgrid/pkg/sim"
//	)
//
//	e := sim.NewEngine(config.Default(), sim.Inputs{Markup: markup}, sim.WithSeed(42))
//	magnitude, killed := e.Act()
//	svg := sink.RenderSVG(e.Snapshot(), sink.WithPanel())
//
// # Main Packages
//
// [vector] parses SVG-like markup into filled rectangles. The XML parser
// resolves group ids from ancestors; a tolerant scan parser handles markup
// the decoder rejects. Only the active color survives the filter.
//
// [grid] builds tiles. The vector strategy maps each kept rectangle onto the
// canvas; the raster strategy samples a rendered image on a cell grid sized
// from the target tile size and tile cap.
//
// [sim] owns the tile registry, the group index, the progress state with its
// collapse latch and the controller that turns a magnitude into a batch of
// random removals.
//
// [pipeline] ties it together: read sources, parse through the document
// cache, simulate, render through the artifact cache.
//
// [vector]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/vector
// [geom]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/geom
// [grid]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/grid
// [sim]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/sim
// [source]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/source
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/render/sink
// [cache]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/reefgrid/pkg/pipeline
package pkg
