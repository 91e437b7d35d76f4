package service

import (
	"context"
	"log/slog"
	"strings"

	"vidfetch/internal/core/domain"
	"vidfetch/internal/core/ports"
)

// ThumbnailProxy fetches external thumbnails on behalf of the browser.
type ThumbnailProxy struct {
	fetcher ports.ImageFetcher
	logger  *slog.Logger
}

// NewThumbnailProxy creates a new ThumbnailProxy.
func NewThumbnailProxy(fetcher ports.ImageFetcher, logger *slog.Logger) *ThumbnailProxy {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThumbnailProxy{fetcher: fetcher, logger: logger}
}

// Fetch returns the open image. The caller must close its Body.
func (p *ThumbnailProxy) Fetch(ctx context.Context, imageURL string) (*domain.Image, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, domain.InvalidInput(domain.OpThumbnail, "Missing URL parameter.")
	}

	img, err := p.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		de := domain.AsError(domain.OpThumbnail, err)
		p.logger.Warn("thumbnail fetch failed",
			slog.String("url", imageURL),
			slog.String("kind", de.Kind.String()),
			slog.Any("error", err))
		return nil, de
	}
	return img, nil
}
