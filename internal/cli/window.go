package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reefgrid/internal/window"
)

// windowCommand runs the simulation in a desktop window.
func (c *CLI) windowCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "window [source.svg]",
		Short: "Play the simulation in a desktop window",
		Long: `Play the simulation in a desktop window.

Click a tile to remove it (or its whole group), press space to act with a
random magnitude, x for a single random removal, r to rebuild the grid and
q or escape to quit. Resizing the window rebuilds the grid for the new size.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, title, err := c.loadInteractive(cmd.Context(), &flags, args)
			if err != nil {
				return err
			}
			if err := window.Run(e, appName+" - "+title, c.Logger); err != nil {
				return fmt.Errorf("run window: %w", err)
			}
			printSummary(e)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
