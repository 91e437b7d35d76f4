package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"vidfetch/internal/core/domain"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <url>",
		Short: "Print the metadata the web UI would show for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, ctx.logger)
			if err != nil {
				return err
			}

			info, err := a.info.FetchInfo(cmd.Context(), args[0])
			if err != nil {
				return domain.AsError(domain.OpInfo, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
