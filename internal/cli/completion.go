package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reefgrid/pkg/render/sink"
)

// completeFormats completes the comma-separated --format list.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	var out []string
	for _, f := range sink.Formats {
		if !strings.Contains(prefix, f) {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completionCommand prints a completion script for bash, zsh or fish.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish",
		Short: "Print a shell completion script",
		Long: `Print a completion script for reefgrid commands, flags and --format values.

  reefgrid completion bash > ~/.local/share/bash-completion/completions/reefgrid
  reefgrid completion zsh > "${fpath[1]}/_reefgrid"
  reefgrid completion fish > ~/.config/fish/completions/reefgrid.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenBashCompletionV2(out, true)
			}
		},
	}
}
