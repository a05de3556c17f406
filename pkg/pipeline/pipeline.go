// Package pipeline runs reefgrid end to end: load → simulate → render.
//
// The CLI, the HTTP server and the interactive front ends all build their
// engines through a [Runner] so that source loading, caching and
// rendering behave the same everywhere.
//
// # Stages
//
//  1. Load: read the source file(s), parse vector markup (cached by
//     content hash and color filter), and build a [sim.Engine]
//  2. Simulate: optional scripted removal (random kills, actions, or
//     acting until the reef collapses)
//  3. Render: write the current snapshot as SVG, PNG or JSON (cached by
//     snapshot hash and render settings)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "reef.svg",
//	    Actions: 10,
//	    Formats: []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
//
// [sim.Engine]: github.com/matzehuels/reefgrid/pkg/sim.Engine
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reefgrid/pkg/cache"
	"github.com/matzehuels/reefgrid/pkg/config"
	"github.com/matzehuels/reefgrid/pkg/errors"
	"github.com/matzehuels/reefgrid/pkg/sim"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 1.0

	// MaxActions bounds UntilCollapse so a threshold that can never be
	// reached does not spin forever.
	MaxActions = 10000
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It serializes to JSON for the HTTP
// API; runtime fields are skipped.
type Options struct {
	// Load options
	Source string  `json:"source,omitempty"` // vector markup or image file
	Image  string  `json:"image,omitempty"`  // separate raster image, overrides the source's raster
	Width  float64 `json:"width,omitempty"`  // canvas width; 0 derives it
	Height float64 `json:"height,omitempty"` // canvas height; 0 derives it
	Seed   uint64  `json:"seed,omitempty"`   // 0 picks a random seed

	// Simulate options
	Kills         int  `json:"kills,omitempty"`   // single random removals
	Actions       int  `json:"actions,omitempty"` // random-magnitude batches
	UntilCollapse bool `json:"until_collapse,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	Panel   bool     `json:"panel,omitempty"`
	Groups  bool     `json:"groups,omitempty"` // data-group attributes in SVG

	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Config   *config.Config     `json:"-"`
	Logger   *log.Logger        `json:"-"`
	Progress func(stage string) `json:"-"` // called as Execute enters each stage
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Engine    *sim.Engine
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and outcome information.
type Stats struct {
	Strategy     sim.Strategy
	Parser       string // "xml" or "scan" for vector grids
	TileCount    int
	GroupCount   int
	Removed      int
	Actions      int
	Collapsed    bool
	LoadTime     time.Duration
	SimulateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	DocumentHit bool
	RenderHit   bool
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormats checks that every format is supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateOutputFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks field ranges and applies defaults. It is idempotent.
func (o *Options) Validate() error {
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must not be negative, got %gx%g", o.Width, o.Height)
	}
	if o.Kills < 0 || o.Actions < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "kills and actions must not be negative")
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative, got %g", o.Scale)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Config != nil {
		if err := o.Config.Validate(); err != nil {
			return err
		}
	}
	o.SetDefaults()
	return nil
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Config == nil {
		cfg := config.Default()
		o.Config = &cfg
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// DocumentKeyOpts returns the cache key options for parsed documents.
func (o *Options) DocumentKeyOpts() cache.DocumentKeyOpts {
	return cache.DocumentKeyOpts{
		Active:     o.Config.Colors.Active,
		Background: o.Config.Colors.Background,
	}
}

// ArtifactKeyOpts returns the cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Scale:  o.Scale,
		Panel:  o.Panel,
		Groups: o.Groups,
	}
}

func (o *Options) stage(name string) {
	if o.Progress != nil {
		o.Progress(name)
	}
}
