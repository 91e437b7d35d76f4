package ports

import (
	"context"
	"time"

	"vidfetch/internal/core/domain"
)

// DownloadSpec tells the extractor where and how to produce one output file.
type DownloadSpec struct {
	OutputTemplate string // yt-dlp output template inside the job workspace
	Height         int    // maximum video height
	Profile        string // transcoding profile name
}

// Extractor defines the contract with the external extraction tool.
type Extractor interface {
	// Metadata retrieves video metadata without downloading media.
	Metadata(ctx context.Context, videoURL string) (*domain.Metadata, error)

	// Download runs the extraction and conversion, blocking until the tool
	// exits. The produced file is located by the caller.
	Download(ctx context.Context, videoURL string, spec DownloadSpec) error
}

// ImageFetcher defines the contract for fetching remote images.
type ImageFetcher interface {
	// FetchImage returns the open response; the caller must close Body.
	FetchImage(ctx context.Context, imageURL string) (*domain.Image, error)
}

// PageScraper reads metadata from a video's web page.
type PageScraper interface {
	// PageThumbnail returns the page's og:image URL.
	PageThumbnail(ctx context.Context, pageURL string) (string, error)
}

// Storage defines the contract for job workspaces.
type Storage interface {
	// InitJob creates the job workspace and takes its lock. The returned
	// function releases the lock and must be called exactly once.
	InitJob(ctx context.Context, jobID string) (unlock func() error, err error)

	// OutputTemplate returns the extractor output template for the job.
	OutputTemplate(jobID string) string

	// CleanupPattern returns the glob matching every artifact of the job.
	CleanupPattern(jobID string) string

	// Locate finds the job's output file, preferring preferredExt.
	Locate(jobID, preferredExt string) (string, error)

	// RemoveJob deletes the job workspace directory.
	RemoveJob(jobID string) error

	// GetJobPath returns the filesystem path for a given job ID.
	GetJobPath(jobID string) string
}

// Sweeper removes job workspaces abandoned by a previous process.
type Sweeper interface {
	// Sweep removes unlocked workspaces older than maxAge and returns
	// their job IDs.
	Sweep(ctx context.Context, maxAge time.Duration) ([]string, error)
}
