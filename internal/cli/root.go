package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute builds the command tree and runs it with ctx.
//
// Logging goes to stderr at info level, or debug level with --verbose. At
// debug level the simulation, pipeline and cache hooks are also logged.
func Execute(ctx context.Context, args ...string) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
			registerDebugHooks(c.Logger)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return loadConfig(cmd, args)
	}

	if args != nil {
		root.SetArgs(args)
	}
	return root.ExecuteContext(ctx)
}
