package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reefgrid/pkg/store"
)

// simulateCommand runs scripted removals and renders the final frame.
func (c *CLI) simulateCommand() *cobra.Command {
	var (
		flags         runFlags
		kills         int
		actions       int
		untilCollapse bool
		archive       bool
		mongoURI      string
		mongoDB       string
	)

	cmd := &cobra.Command{
		Use:   "simulate [source.svg]",
		Short: "Remove tiles and render the resulting frame",
		Long: `Remove tiles and render the resulting frame.

Removal happens in order: --kills single random tiles, then --actions batches
of random magnitude, then (with --until-collapse) more batches until the loss
threshold is reached. Use --seed to make a run reproducible and --archive to
record it for "reefgrid runs".`,
		Example: `  reefgrid simulate reef.svg --actions 10 -f svg,png
  reefgrid simulate reef.svg --until-collapse --seed 42 --archive`,
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
			opts.Kills = kills
			opts.Actions = actions
			opts.UntilCollapse = untilCollapse
			if err := opts.Validate(); err != nil {
				return err
			}

			start := time.Now()
			suffix := fmt.Sprintf("_%d", actions)
			if untilCollapse {
				suffix = "_collapsed"
			}
			result, err := c.executeAndWrite(cmd.Context(), opts, flags, suffix)
			if err != nil {
				return err
			}
			fmt.Println("  " + panelLine(result.Engine.Panel()))

			if !archive {
				return nil
			}
			name := source
			if name == "" {
				name = flags.image
			}
			return c.archiveRun(cmd.Context(), store.NewRun(name, result.Engine, start), mongoURI, mongoDB)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&kills, "kills", 0, "single random removals")
	cmd.Flags().IntVar(&actions, "actions", 1, "batches of random magnitude")
	cmd.Flags().BoolVar(&untilCollapse, "until-collapse", false, "keep acting until the reef collapses")
	cmd.Flags().BoolVar(&archive, "archive", false, "record the run")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "archive to MongoDB instead of local files (mongodb:// URI)")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", store.DefaultMongoDatabase, "MongoDB database")

	return cmd
}

func (c *CLI) archiveRun(ctx context.Context, run *store.Run, mongoURI, mongoDB string) error {
	s, err := openStore(ctx, mongoURI, mongoDB)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Save(ctx, run); err != nil {
		return err
	}
	printSuccess("Archived run %s", StyleValue.Render(run.ID))
	printNextStep("Replay with", fmt.Sprintf("reefgrid simulate %s --seed %d", run.Source, run.Seed))
	return nil
}

// openStore opens MongoDB when a URI is given, otherwise the local run
// directory.
func openStore(ctx context.Context, mongoURI, mongoDB string) (store.Store, error) {
	if mongoURI != "" {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return store.NewMongoStore(ctx, mongoURI, mongoDB)
	}
	dir, err := runsDir()
	if err != nil {
		return nil, fmt.Errorf("get runs dir: %w", err)
	}
	return store.NewFileStore(dir)
}
