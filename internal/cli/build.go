package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reefgrid/pkg/pipeline"
)

// runFlags are the flags shared by build and simulate.
type runFlags struct {
	image   string
	output  string
	formats string
	width   float64
	height  float64
	seed    uint64
	scale   float64
	panel   bool
	groups  bool
	noCache bool
	refresh bool
	redis   string
	copy    bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.image, "image", "i", "", "separate raster image for the raster strategy")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width (default: derived from the source)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height (default: derived from the source)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed (default: random)")
	cmd.Flags().Float64Var(&f.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&f.panel, "panel", false, "draw the numeric panel")
	cmd.Flags().BoolVar(&f.groups, "groups", false, "tag grouped tiles with data-group in SVG")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached entries and overwrite them")
	cmd.Flags().StringVar(&f.redis, "redis", "", "use a shared Redis cache (host:port or redis:// URL)")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "copy the svg or json output to the clipboard")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
}

// options builds pipeline options for source from the flags and the
// loaded config.
func (f *runFlags) options(c *CLI, source string) (pipeline.Options, error) {
	cfg := c.cfg
	opts := pipeline.Options{
		Source:  source,
		Image:   f.image,
		Width:   f.width,
		Height:  f.height,
		Seed:    f.seed,
		Formats: parseFormats(f.formats),
		Scale:   f.scale,
		Panel:   f.panel,
		Groups:  f.groups,
		Refresh: f.refresh,
		Config:  &cfg,
		Logger:  c.Logger,
	}
	if source == "" && f.image == "" {
		return opts, fmt.Errorf("a source file or --image is required")
	}
	return opts, opts.Validate()
}

// buildCommand renders the untouched grid.
func (c *CLI) buildCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "build [source.svg]",
		Short: "Build the tile grid of a source and render it",
		Long: `Build the tile grid of a source and render it without removing anything.

An SVG source is parsed for rectangles; if none match the active color, or the
file is a bitmap, the image is sampled on a grid instead. Parsed documents and
rendered frames are cached locally.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			opts, err := flags.options(c, source)
			if err != nil {
				return err
			}
			_, err = c.executeAndWrite(cmd.Context(), opts, flags, "")
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

var stageMessages = map[string]string{
	"load":     "Building grid...",
	"simulate": "Removing tiles...",
	"render":   "Rendering...",
}

// executeAndWrite runs opts through a fresh runner and writes the
// artifacts.
func (c *CLI) executeAndWrite(ctx context.Context, opts pipeline.Options, flags runFlags, suffix string) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, flags.noCache, flags.redis)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	input := opts.Source
	if input == "" {
		input = opts.Image
	}

	spinner := newSpinnerWithContext(ctx, stageMessages["load"])
	opts.Progress = func(stage string) { spinner.Update(stageMessages[stage]) }
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return nil, ctx.Err()
		}
		spinner.StopWithError("Build failed")
		return nil, err
	}
	spinner.StopWithSuccess("Rendered " + StyleValue.Render(input))
	printStats(result.Stats, result.CacheInfo.DocumentHit && result.CacheInfo.RenderHit)
	if result.Stats.TileCount == 0 {
		printWarning("grid is empty: no rectangles matched and no raster pixels were usable")
	}

	return result, writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    flags.output,
		suffix:    suffix,
		copy:      flags.copy,
	})
}
