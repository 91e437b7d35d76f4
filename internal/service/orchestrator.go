package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"vidfetch/internal/cleanup"
	"vidfetch/internal/core/domain"
	"vidfetch/internal/core/ports"
	"vidfetch/internal/filename"
	"vidfetch/internal/stream"
)

// preferredExt is the container the transcoding profiles produce.
const preferredExt = "mp4"

var contentTypes = map[string]string{
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"flv":  "video/x-flv",
	"3gp":  "video/3gpp",
}

// DownloadOptions configures the orchestrator.
type DownloadOptions struct {
	Profile   string
	ChunkSize int
}

// DownloadRequest is one download as received from the client.
type DownloadRequest struct {
	URL     string
	Quality string
	Title   string
}

// Artifact is a located output file ready to be streamed. Streaming or
// closing Source releases the job.
type Artifact struct {
	JobID       string
	Path        string
	Ext         string
	ContentType string
	Filename    string
	Size        int64
	Source      *stream.Source
}

// Orchestrator coordinates the download workflow.
type Orchestrator struct {
	extractor ports.Extractor
	storage   ports.Storage
	cleaner   *cleanup.Cleaner
	opts      DownloadOptions
	logger    *slog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	extractor ports.Extractor,
	storage ports.Storage,
	cleaner *cleanup.Cleaner,
	opts DownloadOptions,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cleaner == nil {
		cleaner = cleanup.New(logger)
	}
	return &Orchestrator{
		extractor: extractor,
		storage:   storage,
		cleaner:   cleaner,
		opts:      opts,
		logger:    logger,
	}
}

// Download runs a complete job for req and returns the open artifact. On
// error the job has already been released; on success the caller must
// Stream or Close the artifact's Source.
func (o *Orchestrator) Download(ctx context.Context, req DownloadRequest) (*Artifact, error) {
	videoURL := strings.TrimSpace(req.URL)
	quality := strings.TrimSpace(req.Quality)
	if videoURL == "" || quality == "" {
		return nil, domain.InvalidInput(domain.OpDownload, "Missing URL or quality parameter.")
	}
	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = "video"
	}

	job := domain.NewJob(videoURL, quality, title)
	log := o.logger.With(slog.String("job", job.ID))

	unlock, err := o.storage.InitJob(ctx, job.ID)
	if err != nil {
		log.Error("failed to init job", slog.Any("error", err))
		_ = o.storage.RemoveJob(job.ID)
		return nil, domain.NewError(domain.OpDownload, domain.KindUnexpected, err)
	}
	release := o.releaser(job, unlock, log)

	height, err := ParseQuality(quality)
	if err != nil {
		log.Warn("invalid quality", slog.String("quality", quality))
		release()
		return nil, domain.InvalidInput(domain.OpDownload, "Invalid quality format.")
	}
	job.Height = height

	log.Info("starting download",
		slog.String("url", videoURL),
		slog.String("quality", quality),
		slog.String("profile", o.opts.Profile))

	spec := ports.DownloadSpec{
		OutputTemplate: o.storage.OutputTemplate(job.ID),
		Height:         height,
		Profile:        o.opts.Profile,
	}
	if err := o.extractor.Download(ctx, videoURL, spec); err != nil {
		de := domain.AsError(domain.OpDownload, err)
		log.Error("download failed", slog.String("kind", de.Kind.String()), slog.Any("error", err))
		release()
		return nil, de
	}

	path, err := o.storage.Locate(job.ID, preferredExt)
	if err != nil {
		log.Error("output not found", slog.Any("error", err))
		release()
		return nil, domain.NewError(domain.OpDownload, domain.KindMissingOutput, err)
	}
	if filepath.Base(path) != job.ID+"."+preferredExt {
		log.Warn("using fallback output", slog.String("path", path))
	}

	src, err := stream.Open(path, o.opts.ChunkSize, release)
	if err != nil {
		log.Error("output disappeared before streaming", slog.Any("error", err))
		release()
		return nil, domain.NewError(domain.OpDownload, domain.KindMissingOutput, err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	label := strconv.Itoa(height) + "p"
	art := &Artifact{
		JobID:       job.ID,
		Path:        path,
		Ext:         ext,
		ContentType: ContentType(ext),
		Filename:    filename.Clean(title, label, ext),
		Size:        src.Size(),
		Source:      src,
	}

	log.Info("download ready",
		slog.String("file", art.Filename),
		slog.String("size", humanize.Bytes(uint64(art.Size))),
		slog.Duration("elapsed", time.Since(job.CreatedAt)))
	return art, nil
}

// releaser returns the job's terminal action: delete its artifacts, drop
// the lock, and remove the workspace. It runs at most once.
func (o *Orchestrator) releaser(job domain.Job, unlock func() error, log *slog.Logger) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			removed := o.cleaner.Remove(o.storage.CleanupPattern(job.ID))
			if err := unlock(); err != nil {
				log.Warn("failed to unlock job", slog.Any("error", err))
			}
			if err := o.storage.RemoveJob(job.ID); err != nil {
				log.Warn("failed to remove job workspace", slog.Any("error", err))
			}
			log.Info("job released", slog.Int("removed", removed))
		})
	}
}

var errQuality = errors.New("quality must be a positive height such as 720p")

// ParseQuality parses "720p" or "720" into a positive height.
func ParseQuality(quality string) (int, error) {
	s := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(quality)), "p")
	h, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errQuality, quality)
	}
	if h <= 0 {
		return 0, fmt.Errorf("%w: %q", errQuality, quality)
	}
	return h, nil
}

// ContentType returns the MIME type for a video container extension.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}
