package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/route"
)

func routesCmd() *cobra.Command {
	var exts []string

	cmd := &cobra.Command{
		Use:   "routes [dir]",
		Short: "List the routes a directory provides",
		Long: `Routes scans dir, or ROUTES_DIR, the way serve does
and prints every route it finds.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := waypoint.EnvVarOrString("ROUTES_DIR", "")
			if len(args) > 0 {
				dir = args[0]
			}

			if dir == "" {
				return fmt.Errorf("%w: no routes directory", waypoint.ErrBadConfig)
			}

			tree := route.NewTree()
			if err := tree.Scan(os.DirFS(dir), exts...); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range tree.Routes() {
				fmt.Fprintln(out, p)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&exts, "ext", nil, "file extensions that are routes (default .go)")

	return cmd
}
