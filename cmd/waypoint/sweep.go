package main

import (
	"github.com/spf13/cobra"
	"github.com/xy-planning-network/waypoint/basecamp"
)

func sweepCmd() *cobra.Command {
	var f sharedFlags

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired sessions and old uploads once",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := basecamp.New(f.options(cmd)...)
			if err != nil {
				return err
			}
			defer b.Shutdown()

			sessions, uploads, err := b.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			success(cmd.OutOrStdout(), "swept %d sessions and %d uploads", sessions, uploads)
			return nil
		},
	}

	f.register(cmd)

	return cmd
}
