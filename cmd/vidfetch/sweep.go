package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove job workspaces left behind by a crashed server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, ctx.logger)
			if err != nil {
				return err
			}

			n, err := a.janitor.RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale workspace(s) from %s\n", n, a.storage.BaseDir)
			return err
		},
	}
}
