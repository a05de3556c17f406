package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reefgrid/pkg/store"
)

// runsCommand groups the archive subcommands.
func (c *CLI) runsCommand() *cobra.Command {
	var mongoURI, mongoDB string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived simulation runs",
	}
	cmd.PersistentFlags().StringVar(&mongoURI, "mongo", "", "read from MongoDB instead of local files (mongodb:// URI)")
	cmd.PersistentFlags().StringVar(&mongoDB, "mongo-db", store.DefaultMongoDatabase, "MongoDB database")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context(), mongoURI, mongoDB)
			if err != nil {
				return err
			}
			defer s.Close()

			prog := newProgress(loggerFromContext(cmd.Context()))
			runs, err := s.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("listed %d runs", len(runs)))
			if len(runs) == 0 {
				printInfo("No archived runs")
				printNextStep("Archive one with", "reefgrid simulate reef.svg --archive")
				return nil
			}
			fmt.Println(runsTable(runs))
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 = all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context(), mongoURI, mongoDB)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

// runsTable formats runs with lipgloss/table.
func runsTable(runs []*store.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		state := "active"
		if r.Collapsed {
			state = "collapsed"
		}
		rows = append(rows, []string{
			r.ID[:8],
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			r.Strategy,
			fmt.Sprintf("%d/%d", r.Panel.TilesRemoved, r.Panel.TilesTotal),
			fmt.Sprint(r.Panel.Actions),
			state,
			fmt.Sprint(r.Seed),
			r.Duration().Round(time.Millisecond).String(),
		})
	}

	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Started", "Source", "Strategy", "Removed", "Actions", "State", "Seed", "Took").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return header
			}
			if col == 6 && row < len(runs) && runs[row].Collapsed {
				return StyleCollapsed
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
