package main

import (
	"net/http"

	"github.com/spf13/cobra"
	"github.com/xy-planning-network/waypoint/basecamp"
	"github.com/xy-planning-network/waypoint/http/resp"
	"github.com/xy-planning-network/waypoint/http/route"
)

// healthRoute is answered by the built-in health unit.
const healthRoute = "_health"

func serveCmd() *cobra.Command {
	var (
		f    sharedFlags
		port string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routes directory",
		Long: `Serve scans the routes directory, starts the configured listeners,
and sweeps expired sessions and old uploads until interrupted.

Routes without a registered unit answer 404; GET /_health always answers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(
				f.options(cmd),
				basecamp.WithUnboundRoutes(),
				basecamp.WithUnit(healthRoute, route.Static(health())),
			)
			if cmd.Flags().Changed("port") {
				opts = append(opts, func(b *basecamp.Basecamp) error {
					b.Port = port
					return nil
				})
			}

			b, err := basecamp.New(opts...)
			if err != nil {
				return err
			}

			for _, p := range b.Tree().Unbound() {
				warn(cmd.ErrOrStderr(), "no unit registered for %s", p)
			}

			return b.Guide()
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&port, "port", "p", "", "port of the plain listener (PORT)")

	return cmd
}

// health answers with the status of the process.
func health() route.Handlers {
	return route.Handlers{
		"get$index": func(c *route.Context, _ ...string) (any, error) {
			return resp.New(
				resp.Data(map[string]any{"status": "ok", "version": version}),
				resp.Code(http.StatusOK),
			)
		},
	}
}
