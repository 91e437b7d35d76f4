package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"vidfetch/internal/core/domain"
)

var (
	processingMarkers  = []string{"ffmpeg", "postprocessor", "conversion failed"}
	unsupportedMarkers = []string{"unsupported url", "is not a valid url"}
	unavailableMarkers = []string{"video unavailable", "private video", "this video is private"}
	networkMarkers     = []string{
		"urlopen error",
		"timed out",
		"unable to download webpage",
		"temporary failure in name resolution",
		"connection refused",
		"connection reset",
	}
)

// classify maps a failed yt-dlp run to a domain error by inspecting the
// context and the tool's stderr.
func classify(ctx context.Context, op domain.Op, stderr []byte, err error) *domain.Error {
	if errors.Is(err, exec.ErrNotFound) {
		return domain.NewError(op, domain.KindUnexpected, err)
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.NewError(op, domain.KindTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return domain.NewError(op, domain.KindCanceled, err)
	}

	msg := strings.ToLower(string(stderr))
	switch {
	case op == domain.OpDownload && containsAny(msg, processingMarkers):
		return domain.NewError(op, domain.KindProcessing, err)
	case containsAny(msg, unsupportedMarkers):
		return domain.NewError(op, domain.KindUnsupported, err)
	case containsAny(msg, unavailableMarkers):
		return domain.NewError(op, domain.KindUnavailable, err)
	case containsAny(msg, networkMarkers):
		return domain.NewError(op, domain.KindNetwork, err)
	}
	return domain.NewError(op, domain.KindExtractor, err)
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// lastLine returns the last non-empty stderr line, which is where yt-dlp
// prints its ERROR summary.
func lastLine(stderr []byte) string {
	lines := bytes.Split(bytes.TrimSpace(stderr), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if line := bytes.TrimSpace(lines[i]); len(line) > 0 {
			return string(line)
		}
	}
	return ""
}
