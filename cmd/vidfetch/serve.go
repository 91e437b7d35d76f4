package main

import (
	"log/slog"
	"os/exec"
	"sync"

	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			if _, err := exec.LookPath(a.ytdlp.BinaryPath()); err != nil {
				logger.Warn("yt-dlp not found; info and download requests will fail",
					slog.String("binary", a.ytdlp.BinaryPath()))
			}
			logger.Info("starting vidfetch",
				slog.String("version", version),
				slog.String("listen", cfg.Listen),
				slog.String("temp_dir", a.storage.BaseDir),
				slog.String("profile", cfg.Profile))

			runCtx := cmd.Context()
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.janitor.Run(runCtx)
			}()

			err = a.server(cfg, logger).Run(runCtx, cfg.Listen)
			wg.Wait()
			return err
		},
	}
}
