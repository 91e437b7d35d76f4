package main

import (
	"fmt"
	"log/slog"
	"os"

	"vidfetch/internal/adapters/downloader"
	"vidfetch/internal/adapters/localstorage"
	"vidfetch/internal/adapters/ytdlp"
	"vidfetch/internal/cleanup"
	"vidfetch/internal/config"
	"vidfetch/internal/httpapi"
	"vidfetch/internal/service"
)

// app holds the wired components for one process.
type app struct {
	storage *localstorage.LocalStorage
	ytdlp   *ytdlp.YtDlpDownloader
	info    *service.InfoService
	orch    *service.Orchestrator
	thumbs  *service.ThumbnailProxy
	janitor *service.Janitor
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	tempDir, err := cfg.TempDirAbs()
	if err != nil {
		return nil, fmt.Errorf("resolving temp dir: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	storage := localstorage.NewLocalStorage(tempDir)
	extractor := ytdlp.NewYtDlpDownloader(ytdlp.Options{
		BinaryPath:            cfg.YtDlpPath,
		FFmpegLocation:        cfg.FFmpegLocation,
		InfoTimeout:           cfg.InfoTimeout(),
		SocketTimeout:         cfg.SocketTimeoutSeconds,
		DownloadTimeout:       cfg.DownloadTimeout(),
		DownloadSocketTimeout: cfg.DownloadSocketTimeoutSeconds,
		Retries:               cfg.Retries,
		Logger:                logger.With(slog.String("component", "ytdlp")),
	})
	web := downloader.NewHTTPDownloader(cfg.UserAgent, cfg.ThumbnailTimeout())

	return &app{
		storage: storage,
		ytdlp:   extractor,
		info: service.NewInfoService(extractor, web, service.InfoOptions{
			ProxyThumbnails:     cfg.ProxyThumbnails,
			OGThumbnailFallback: cfg.OGThumbnailFallback,
		}, logger),
		orch: service.NewOrchestrator(extractor, storage, cleanup.New(logger), service.DownloadOptions{
			Profile:   cfg.Profile,
			ChunkSize: cfg.ChunkSize,
		}, logger),
		thumbs:  service.NewThumbnailProxy(web, logger),
		janitor: service.NewJanitor(storage, cfg.SweepInterval(), cfg.SweepMaxAge(), logger),
	}, nil
}

func (a *app) server(cfg *config.Config, logger *slog.Logger) *httpapi.Server {
	return httpapi.New(a.info, a.orch, a.thumbs, httpapi.Options{
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}, logger)
}
