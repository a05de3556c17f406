// Package sim runs the tile removal simulation.
//
// An [Engine] owns the parsed source, the canvas size and the current
// generation of tiles. Every rebuild (explicit reset, resize, initial
// setup) replaces the [Registry] wholesale, so no state from a previous
// generation survives it.
//
// Removal goes through three entry points: a point hit (KillAt), a single
// random removal (KillRandom) and a batch sized from an abstract magnitude
// (Act, Batch). After every removal the collapse latch is re-evaluated.
//
// The engine performs no I/O and never blocks. It is not safe for
// concurrent use; callers that share one across goroutines must serialize
// access.
package sim

import (
	"context"
	"io"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reefgrid/pkg/config"
	"github.com/matzehuels/reefgrid/pkg/geom"
	"github.com/matzehuels/reefgrid/pkg/grid"
	"github.com/matzehuels/reefgrid/pkg/observability"
	"github.com/matzehuels/reefgrid/pkg/vector"
)

// Strategy names how tiles are built.
type Strategy string

const (
	StrategyVector Strategy = "vector"
	StrategyRaster Strategy = "raster"
	// StrategyNone means neither source produced anything; the grid is empty.
	StrategyNone Strategy = "none"
)

// Inputs are the sources an engine is built from. Any of them may be
// missing.
type Inputs struct {
	// Markup is vector text. When it yields rectangles the vector strategy
	// is used.
	Markup string
	// Document, when non-nil, is used instead of parsing Markup.
	Document *vector.Document
	// Raster feeds the raster strategy.
	Raster grid.Rasterizer
	// CanvasW and CanvasH fix the canvas size. Zero means derive it.
	CanvasW, CanvasH float64
}

// Engine is the simulation front door.
type Engine struct {
	cfg    config.Config
	ctx    context.Context
	logger *log.Logger
	seed   uint64
	rng    *rand.Rand

	doc      vector.Document
	space    vector.Space
	raster   grid.Rasterizer
	strategy Strategy

	canvasW, canvasH float64
	cols, rows       int
	scale            geom.Scale
	rasterFallback   bool

	reg  *Registry
	ctrl *Controller
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSeed makes random removal deterministic.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) { e.seed = seed }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithContext sets the context passed to observability hooks.
func WithContext(ctx context.Context) EngineOption {
	return func(e *Engine) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}

// NewEngine picks a strategy, sizes the canvas and builds the first
// generation of tiles.
func NewEngine(cfg config.Config, in Inputs, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:    cfg,
		ctx:    context.Background(),
		logger: log.New(io.Discard),
		seed:   rand.Uint64(),
		raster: in.Raster,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rng = rand.New(rand.NewPCG(e.seed, e.seed^0xdeadbeef))

	switch {
	case in.Document != nil:
		e.doc = *in.Document
	case in.Markup != "":
		e.doc = vector.Parse(in.Markup, vector.NewFilter(cfg.Colors.Active, cfg.Colors.Background))
	}
	if e.doc.Err != nil {
		e.logger.Debug("structured parse failed", "method", e.doc.Method, "err", e.doc.Err)
	}

	e.setup(in.CanvasW, in.CanvasH)
	e.Reset()
	return e
}

func (e *Engine) setup(canvasW, canvasH float64) {
	defW, defH := e.cfg.DefaultCanvas()

	switch {
	case len(e.doc.Rects) > 0:
		e.strategy = StrategyVector
		bounds, _ := geom.ComputeBounds(e.doc.Rects)
		e.space = geom.ResolveSpace(e.doc.Space, bounds)
		e.canvasW, e.canvasH = defW, defH
		e.logger.Debug("vector source", "rects", len(e.doc.Rects), "groups", len(e.doc.Groups()), "method", e.doc.Method)

	case e.raster != nil:
		e.strategy = StrategyRaster
		imgW, imgH := e.raster.Size()
		e.cols, e.rows = grid.GridSize(imgW, imgH, e.cfg.Grid.TargetTilePx, e.cfg.Grid.MaxTiles)
		e.canvasW, e.canvasH = imageCanvas(imgW, imgH, e.cfg.Canvas.MaxWidth)
		if e.canvasW <= 0 || e.canvasH <= 0 {
			e.canvasW, e.canvasH = defW, defH
		}
		e.logger.Debug("raster source", "width", imgW, "height", imgH, "cols", e.cols, "rows", e.rows)

	default:
		e.strategy = StrategyNone
		e.canvasW, e.canvasH = defW, defH
		e.logger.Warn("no usable source, grid is empty")
	}

	if canvasW > 0 {
		e.canvasW = canvasW
	}
	if canvasH > 0 {
		e.canvasH = canvasH
	}
}

// imageCanvas fits an image into maxW pixels of width, keeping its aspect.
func imageCanvas(imgW, imgH, maxW int) (float64, float64) {
	if imgW <= 0 || imgH <= 0 {
		return 0, 0
	}
	w := float64(min(maxW, imgW))
	return w, math.Round(float64(imgH) * w / float64(imgW))
}

// Reset rebuilds all tiles from the source at the current canvas size and
// discards all removal state, including the collapse latch.
func (e *Engine) Reset() {
	var (
		tiles  []grid.Tile
		groups *grid.GroupIndex
	)
	switch e.strategy {
	case StrategyVector:
		e.scale = geom.ComputeScale(e.space, e.canvasW, e.canvasH)
		tiles, groups = grid.BuildFromVectors(e.doc.Rects, e.space, e.scale)
	case StrategyRaster:
		tiles, e.rasterFallback = grid.BuildFromRaster(e.raster, grid.RasterOptions{
			Cols:           e.cols,
			Rows:           e.rows,
			CanvasW:        e.canvasW,
			CanvasH:        e.canvasH,
			WhiteThreshold: e.cfg.Grid.WhiteThreshold,
		})
		if e.rasterFallback {
			e.logger.Debug("no non-white cells, sampled again including white")
		}
	}

	e.reg = NewRegistry(tiles, groups, e.cfg.Simulation.Threshold)
	e.ctrl = NewController(e.reg, e.rng, e.cfg.Simulation)
	if len(tiles) == 0 && e.strategy != StrategyNone {
		e.logger.Warn("grid is empty", "strategy", e.strategy)
	}
	e.logger.Info("built grid", "strategy", e.strategy, "tiles", len(tiles), "groups", groups.Len(),
		"canvas", formatSize(e.canvasW, e.canvasH))
	observability.Simulation().OnReset(e.ctx, string(e.strategy), len(tiles), groups.Len())
}

// Resize changes the canvas and rebuilds. Non-positive dimensions keep
// their current value.
func (e *Engine) Resize(w, h float64) {
	if w > 0 {
		e.canvasW = w
	}
	if h > 0 {
		e.canvasH = h
	}
	e.Reset()
}

// KillAt removes the tile (or group) under a canvas point.
func (e *Engine) KillAt(x, y float64) int {
	return e.after("point", e.reg.KillTileAt(x, y))
}

// KillRandom removes one random live tile (or its group).
func (e *Engine) KillRandom() int {
	return e.after("random", e.reg.KillRandomTile(e.rng))
}

// Batch removes tiles for an action of the given magnitude.
func (e *Engine) Batch(magnitude float64) int {
	return e.after("batch", e.ctrl.Batch(magnitude))
}

// Act performs one action of random magnitude from the configured unit
// range. It returns the magnitude drawn and the tiles killed.
func (e *Engine) Act() (magnitude float64, killed int) {
	magnitude = e.ctrl.RandomMagnitude()
	killed = e.Batch(magnitude)
	e.logger.Debug("action", "magnitude", magnitude, "killed", killed)
	return magnitude, killed
}

func (e *Engine) after(cause string, killed int) int {
	st := e.reg.State()
	if killed > 0 {
		observability.Simulation().OnKill(e.ctx, cause, killed, st.Removed, st.Total)
	}
	if e.reg.takeCollapse() {
		e.logger.Warn("reef collapsed", "removed", st.Removed, "total", st.Total, "actions", st.Actions)
		observability.Simulation().OnCollapse(e.ctx, st.Removed, st.Total, st.Actions)
	}
	return killed
}

// State returns the current removal state.
func (e *Engine) State() State { return e.reg.State() }

// Registry exposes the current generation. It is replaced by every Reset.
func (e *Engine) Registry() *Registry { return e.reg }

// Strategy returns the active tile strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Canvas returns the canvas size in pixels.
func (e *Engine) Canvas() (w, h float64) { return e.canvasW, e.canvasH }

// GridSize returns the raster sampling resolution, or zeros for the vector
// strategy.
func (e *Engine) GridSize() (cols, rows int) { return e.cols, e.rows }

// Scale returns the source-to-canvas scale of the vector strategy.
func (e *Engine) Scale() geom.Scale { return e.scale }

// Document returns the parsed vector source.
func (e *Engine) Document() vector.Document { return e.doc }

// Seed returns the seed of the removal rng.
func (e *Engine) Seed() uint64 { return e.seed }

// TilesPerUnit returns the batch calibration of the current generation.
func (e *Engine) TilesPerUnit() float64 { return e.ctrl.TilesPerUnit() }

// Config returns the engine configuration.
func (e *Engine) Config() config.Config { return e.cfg }
