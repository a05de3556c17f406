package cli

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reefgrid/pkg/sim"
)

// playCommand runs the simulation interactively in the terminal.
func (c *CLI) playCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "play [source.svg]",
		Short: "Play the simulation in the terminal",
		Long: `Play the simulation in the terminal.

Tiles are drawn with half-block characters. Click a tile to remove it (or its
whole group), press space to act with a random magnitude, x for a single
random removal, r to rebuild the grid and q to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, title, err := c.loadInteractive(cmd.Context(), &flags, args)
			if err != nil {
				return err
			}

			p := tea.NewProgram(newPlayModel(e, title),
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run terminal ui: %w", err)
			}

			printSummary(e)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// loadInteractive builds the engine for play and window. The title is the
// base name of whichever input was given.
func (c *CLI) loadInteractive(ctx context.Context, flags *runFlags, args []string) (*sim.Engine, string, error) {
	source := ""
	if len(args) == 1 {
		source = args[0]
	}
	opts, err := flags.options(c, source)
	if err != nil {
		return nil, "", err
	}

	runner, err := c.newRunner(ctx, flags.noCache, flags.redis)
	if err != nil {
		return nil, "", fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	e, err := runner.Load(ctx, opts)
	if err != nil {
		return nil, "", err
	}

	title := filepath.Base(source)
	if source == "" {
		title = filepath.Base(flags.image)
	}
	return e, title, nil
}

func printSummary(e *sim.Engine) {
	st := e.State()
	printInfo("%d of %d tiles removed in %d actions", st.Removed, st.Total, st.Actions)
	if st.Collapsed {
		printWarning("%s", sim.CollapseBanner(st.Threshold))
	}
}
