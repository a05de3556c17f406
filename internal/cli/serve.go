package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reefgrid/internal/server"
	"github.com/matzehuels/reefgrid/pkg/store"
)

// serveCommand exposes simulation sessions over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		noCache     bool
		redisAddr   string
		archive     bool
		mongoURI    string
		mongoDB     string
		maxSessions int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulation sessions over HTTP",
		Long: `Serve simulation sessions over HTTP.

POST a source file to /sessions to start a session, then drive it with
/sessions/{id}/kill, /random, /act, /reset and /resize, and fetch frames from
/sessions/{id}/render.svg (or .png, .json). With --archive every deleted
session is saved as a run.`,
		Example: `  reefgrid serve --addr :8080
  curl --data-binary @reef.svg 'localhost:8080/sessions?name=reef.svg'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, noCache, redisAddr)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := []server.Option{
				server.WithLogger(c.Logger),
				server.WithMaxSessions(maxSessions),
			}
			if archive || mongoURI != "" {
				var st store.Store
				st, err = openStore(ctx, mongoURI, mongoDB)
				if err != nil {
					return fmt.Errorf("open run archive: %w", err)
				}
				defer st.Close()
				opts = append(opts, server.WithArchive(st))
			}

			return server.New(runner, c.cfg, opts...).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "use a shared Redis cache (host:port or redis:// URL)")
	cmd.Flags().BoolVar(&archive, "archive", false, "save deleted sessions as runs")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "archive runs in MongoDB instead of the local run directory")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", store.DefaultMongoDatabase, "MongoDB database name")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", server.DefaultMaxSessions, "maximum number of live sessions")
	return cmd
}
