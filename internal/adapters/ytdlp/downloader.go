package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// runFunc executes the binary and returns its captured output.
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Options configures the yt-dlp adapter.
type Options struct {
	BinaryPath            string // empty resolves yt-dlp.exe in the working directory, then yt-dlp on PATH
	FFmpegLocation        string
	InfoTimeout           time.Duration
	SocketTimeout         int // seconds, metadata mode
	DownloadTimeout       time.Duration
	DownloadSocketTimeout int // seconds, download mode
	Retries               int
	Logger                *slog.Logger
}

// YtDlpDownloader implements ports.Extractor with the local yt-dlp binary.
type YtDlpDownloader struct {
	binaryPath string
	opts       Options
	logger     *slog.Logger
	run        runFunc
}

// NewYtDlpDownloader creates a new extractor adapter.
func NewYtDlpDownloader(opts Options) *YtDlpDownloader {
	if opts.InfoTimeout <= 0 {
		opts.InfoTimeout = time.Minute
	}
	if opts.SocketTimeout <= 0 {
		opts.SocketTimeout = 15
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 30 * time.Minute
	}
	if opts.DownloadSocketTimeout <= 0 {
		opts.DownloadSocketTimeout = 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &YtDlpDownloader{
		binaryPath: resolveBinary(opts.BinaryPath),
		opts:       opts,
		logger:     logger,
		run:        execRun,
	}
}

// BinaryPath returns the yt-dlp executable the adapter invokes.
func (d *YtDlpDownloader) BinaryPath() string { return d.binaryPath }

func resolveBinary(configured string) string {
	if configured != "" {
		return configured
	}
	// Check if yt-dlp.exe exists in current directory
	if _, err := os.Stat("yt-dlp.exe"); err == nil {
		return ".\\yt-dlp.exe"
	}
	return "yt-dlp" // Assumes yt-dlp is in PATH
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	return out.Bytes(), stderr.Bytes(), err
}

func (d *YtDlpDownloader) commonArgs(socketTimeout int) []string {
	return []string{
		"--no-warnings",
		"--no-playlist",
		"--socket-timeout", strconv.Itoa(socketTimeout),
	}
}

func (d *YtDlpDownloader) invoke(ctx context.Context, args []string) ([]byte, []byte, error) {
	d.logger.Debug("running yt-dlp", slog.String("binary", d.binaryPath), slog.Any("args", args))
	stdout, stderr, err := d.run(ctx, d.binaryPath, args...)
	if err != nil {
		return stdout, stderr, fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, lastLine(stderr))
	}
	return stdout, stderr, nil
}
