package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reefgrid/pkg/cache"
	"github.com/matzehuels/reefgrid/pkg/observability"
	"github.com/matzehuels/reefgrid/pkg/sim"
	"github.com/matzehuels/reefgrid/pkg/source"
	"github.com/matzehuels/reefgrid/pkg/vector"
)

// Runner executes pipeline stages with caching.
//
// The Runner holds no per-run state. Multiple goroutines may share one
// Runner; the engines it returns are not shared.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// means [cache.DefaultKeyer].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs load → simulate → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	opts.stage("load")
	loadStart := time.Now()
	e, docHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Engine = e
	result.Stats.LoadTime = time.Since(loadStart)
	result.CacheInfo.DocumentHit = docHit

	opts.stage("simulate")
	simStart := time.Now()
	Simulate(e, opts)
	result.Stats.SimulateTime = time.Since(simStart)

	st := e.State()
	result.Stats.Strategy = e.Strategy()
	if e.Strategy() == sim.StrategyVector {
		result.Stats.Parser = e.Document().Method
	}
	result.Stats.TileCount = st.Total
	result.Stats.GroupCount = len(e.Registry().Groups())
	result.Stats.Removed = st.Removed
	result.Stats.Actions = st.Actions
	result.Stats.Collapsed = st.Collapsed

	opts.Logger.Info("simulated",
		"removed", st.Removed,
		"total", st.Total,
		"actions", st.Actions,
		"collapsed", st.Collapsed,
		"duration", result.Stats.SimulateTime)

	opts.stage("render")
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, e, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Load
// =============================================================================

// ReadSources reads opts.Source and opts.Image. A file that cannot be read
// is logged and treated as absent, so the engine degrades to the other
// source or to an empty grid.
func ReadSources(opts Options) *source.Source {
	var src *source.Source
	if opts.Source != "" {
		s, err := source.Load(opts.Source)
		if err != nil {
			opts.Logger.Warn("source unavailable", "path", opts.Source, "err", err)
		} else {
			src = s
		}
	}
	if opts.Image != "" {
		img, err := source.Load(opts.Image)
		switch {
		case err != nil:
			opts.Logger.Warn("image unavailable", "path", opts.Image, "err", err)
		case img.Raster == nil:
			opts.Logger.Warn("image not decodable", "path", opts.Image, "err", img.RasterErr)
		case src == nil:
			src = &source.Source{Name: img.Name, Raster: img.Raster}
		default:
			src.Raster = img.Raster
		}
	}
	if src != nil && src.Raster == nil && src.RasterErr != nil {
		opts.Logger.Debug("no raster for source", "name", src.Name, "err", src.RasterErr)
	}
	return src
}

// LoadWithCacheInfo reads the sources named in opts and builds an engine.
// The bool reports whether the parsed document came from the cache.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*sim.Engine, bool, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	return r.LoadSource(ctx, ReadSources(opts), opts)
}

// Load is LoadWithCacheInfo without the cache hit flag.
func (r *Runner) Load(ctx context.Context, opts Options) (*sim.Engine, error) {
	e, _, err := r.LoadWithCacheInfo(ctx, opts)
	return e, err
}

// LoadSource builds an engine from an already loaded source. A nil source
// yields an engine with an empty grid.
func (r *Runner) LoadSource(ctx context.Context, src *source.Source, opts Options) (e *sim.Engine, hit bool, err error) {
	r.applyLogger(&opts)
	opts.SetDefaults()

	name := ""
	if src != nil {
		name = src.Name
	}
	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, name)
	defer func() {
		var strategy string
		var tiles int
		if e != nil {
			strategy = string(e.Strategy())
			tiles = e.State().Total
		}
		observability.Pipeline().OnLoadComplete(ctx, name, strategy, tiles, time.Since(start), err)
	}()

	in := sim.Inputs{CanvasW: opts.Width, CanvasH: opts.Height}
	if src != nil {
		in.Raster = src.Raster
		if src.IsVector() {
			doc, cached := r.document(ctx, src, opts)
			in.Document = &doc
			hit = cached
		}
	}

	engineOpts := []sim.EngineOption{sim.WithLogger(opts.Logger), sim.WithContext(ctx)}
	if opts.Seed != 0 {
		engineOpts = append(engineOpts, sim.WithSeed(opts.Seed))
	}
	e = sim.NewEngine(*opts.Config, in, engineOpts...)

	w, h := e.Canvas()
	opts.Logger.Info("built grid",
		"source", name,
		"strategy", e.Strategy(),
		"tiles", e.State().Total,
		"groups", len(e.Registry().Groups()),
		"canvas", fmt.Sprintf("%.0fx%.0f", w, h),
		"cached", hit)
	return e, hit, nil
}

// document parses src's markup through the document cache.
func (r *Runner) document(ctx context.Context, src *source.Source, opts Options) (vector.Document, bool) {
	key := r.Keyer.DocumentKey(cache.Hash([]byte(src.Markup)), opts.DocumentKeyOpts())

	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			var doc vector.Document
			if err := json.Unmarshal(data, &doc); err == nil {
				observability.Cache().OnCacheHit(ctx, "document")
				return doc, true
			}
		} else if err != nil {
			opts.Logger.Debug("document cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "document")
	}

	filter := vector.NewFilter(opts.Config.Colors.Active, opts.Config.Colors.Background)
	doc := vector.Parse(src.Markup, filter)
	if doc.Err != nil {
		opts.Logger.Debug("structured parse failed", "method", doc.Method, "err", doc.Err)
	}

	// Empty documents are not cached.
	if len(doc.Rects) > 0 {
		if data, err := json.Marshal(doc); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLDocument); err == nil {
				observability.Cache().OnCacheSet(ctx, "document", len(data))
			}
		}
	}
	return doc, false
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo renders e's current snapshot in every requested
// format. The bool is true only when every artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, e *sim.Engine, opts Options) (artifacts map[string][]byte, allHit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	snap := e.Snapshot()
	hash, err := cache.HashValue(renderKey{Snapshot: snap, Seed: e.Seed(), Source: opts.Source})
	if err != nil {
		return nil, false, fmt.Errorf("hash snapshot: %w", err)
	}

	artifacts = make(map[string][]byte, len(opts.Formats))
	allHit = true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allHit = false

		data, err := RenderFormat(snap, format, e.Seed(), opts)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
		artifacts[format] = data
	}
	return artifacts, allHit, nil
}

// Render is RenderWithCacheInfo without the cache hit flag.
func (r *Runner) Render(ctx context.Context, e *sim.Engine, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, e, opts)
	return artifacts, err
}

// renderKey is everything a rendered artifact depends on besides the
// render options.
type renderKey struct {
	Snapshot sim.Snapshot `json:"snapshot"`
	Seed     uint64       `json:"seed"`
	Source   string       `json:"source"`
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
