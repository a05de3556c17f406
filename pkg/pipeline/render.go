package pipeline

import (
	"github.com/matzehuels/reefgrid/pkg/errors"
	"github.com/matzehuels/reefgrid/pkg/render/sink"
	"github.com/matzehuels/reefgrid/pkg/sim"
)

// RenderFormat renders one snapshot in one format.
func RenderFormat(snap sim.Snapshot, format string, seed uint64, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		var svgOpts []sink.SVGOption
		if opts.Panel {
			svgOpts = append(svgOpts, sink.WithPanel())
		}
		if opts.Groups {
			svgOpts = append(svgOpts, sink.WithGroupAttrs())
		}
		return sink.RenderSVG(snap, svgOpts...), nil
	case FormatPNG:
		pngOpts := []sink.PNGOption{sink.WithScale(opts.Scale)}
		if opts.Panel {
			pngOpts = append(pngOpts, sink.WithPNGPanel())
		}
		return sink.RenderPNG(snap, pngOpts...)
	case FormatJSON:
		return sink.RenderJSON(snap, sink.WithJSONSeed(seed), sink.WithJSONSource(opts.Source))
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %q", format)
	}
}

// Simulate applies the scripted removals in opts: Kills random single
// removals, then Actions random-magnitude batches, then, with
// UntilCollapse, further batches until the reef collapses, nothing is
// left, or MaxActions is reached.
func Simulate(e *sim.Engine, opts Options) {
	for range opts.Kills {
		e.KillRandom()
	}
	for range opts.Actions {
		e.Act()
	}
	if !opts.UntilCollapse {
		return
	}
	for i := 0; i < MaxActions; i++ {
		if e.State().Collapsed || e.Registry().Live() == 0 {
			return
		}
		e.Act()
	}
}
