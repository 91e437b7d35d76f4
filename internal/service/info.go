package service

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"vidfetch/internal/core/domain"
	"vidfetch/internal/core/ports"
)

const (
	defaultTitle     = "Untitled Video"
	defaultExtractor = "Generic"

	// ThumbnailProxyPath is the route proxied thumbnail URLs point at.
	ThumbnailProxyPath = "/thumbnail_proxy"
)

// InfoOptions toggles optional metadata behaviour.
type InfoOptions struct {
	ProxyThumbnails     bool // rewrite thumbnail_url to the local proxy
	OGThumbnailFallback bool // read og:image when the extractor has no thumbnail
}

// InfoService resolves video metadata into a VideoInfo.
type InfoService struct {
	extractor ports.Extractor
	pages     ports.PageScraper
	opts      InfoOptions
	logger    *slog.Logger
	group     singleflight.Group
}

// NewInfoService creates a new InfoService. pages may be nil when the
// og:image fallback is disabled.
func NewInfoService(extractor ports.Extractor, pages ports.PageScraper, opts InfoOptions, logger *slog.Logger) *InfoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InfoService{
		extractor: extractor,
		pages:     pages,
		opts:      opts,
		logger:    logger,
	}
}

// FetchInfo returns the title, thumbnail and available qualities of the video
// at videoURL. Concurrent calls for the same URL share one extractor run.
func (s *InfoService) FetchInfo(ctx context.Context, videoURL string) (*domain.VideoInfo, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return nil, domain.InvalidInput(domain.OpInfo, "URL is required.")
	}

	v, err, shared := s.group.Do(videoURL, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), videoURL)
	})
	if err != nil {
		return nil, err
	}
	info := v.(*domain.VideoInfo)
	if shared {
		s.logger.Debug("info lookup shared", slog.String("url", videoURL))
		// Callers may not share the pointer.
		cp := *info
		return &cp, nil
	}
	return info, nil
}

func (s *InfoService) fetch(ctx context.Context, videoURL string) (*domain.VideoInfo, error) {
	log := s.logger.With(slog.String("url", videoURL))
	log.Info("fetching info")

	md, err := s.extractor.Metadata(ctx, videoURL)
	if err != nil {
		de := domain.AsError(domain.OpInfo, err)
		log.Error("info failed", slog.String("kind", de.Kind.String()), slog.Any("error", err))
		return nil, de
	}

	heights, kind := collectHeights(md.Formats)
	if len(heights) == 0 {
		log.Warn("no video heights", slog.String("kind", kind.String()), slog.Int("formats", len(md.Formats)))
		return nil, domain.NewError(domain.OpInfo, kind, nil)
	}

	info := &domain.VideoInfo{
		Title:          md.Title,
		QualityOptions: qualityOptions(heights),
		WebpageURL:     md.WebpageURL,
		Extractor:      md.Extractor,
	}
	if info.Title == "" {
		info.Title = defaultTitle
	}
	if info.WebpageURL == "" {
		info.WebpageURL = videoURL
	}
	if info.Extractor == "" {
		info.Extractor = defaultExtractor
	}

	thumb := pickThumbnail(md)
	if thumb == "" && s.opts.OGThumbnailFallback && s.pages != nil {
		og, err := s.pages.PageThumbnail(ctx, info.WebpageURL)
		if err != nil {
			log.Warn("og:image lookup failed", slog.Any("error", err))
		}
		thumb = og
	}
	if thumb == "" {
		log.Warn("no thumbnail found")
	} else {
		if s.opts.ProxyThumbnails {
			thumb = ProxiedThumbnailURL(thumb)
		}
		info.ThumbnailURL = &thumb
	}

	log.Info("info fetched", slog.String("title", info.Title), slog.Int("qualities", len(heights)))
	return info, nil
}

// pickThumbnail prefers the primary thumbnail, then the last listed entry,
// then the first.
func pickThumbnail(md *domain.Metadata) string {
	if md.Thumbnail != "" {
		return md.Thumbnail
	}
	if n := len(md.Thumbnails); n > 0 {
		if u := md.Thumbnails[n-1].URL; u != "" {
			return u
		}
		return md.Thumbnails[0].URL
	}
	return ""
}

// collectHeights returns the distinct positive heights of video formats in
// descending order. When there are none, kind tells whether the media is
// audio-only or has no usable formats at all.
func collectHeights(formats []domain.Format) (heights []int, kind domain.Kind) {
	seen := make(map[int]struct{})
	audioOnly := false
	for _, f := range formats {
		if f.HasVideo && f.Height > 0 {
			if _, ok := seen[f.Height]; !ok {
				seen[f.Height] = struct{}{}
				heights = append(heights, f.Height)
			}
		}
		if !f.HasVideo && f.HasAudio {
			audioOnly = true
		}
	}
	if len(heights) == 0 {
		if audioOnly {
			return nil, domain.KindAudioOnly
		}
		return nil, domain.KindNoFormats
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))
	return heights, 0
}

func qualityOptions(heights []int) domain.QualityOptions {
	opts := make(domain.QualityOptions, 0, len(heights))
	for _, h := range heights {
		opts = append(opts, domain.QualityOption{Label: strconv.Itoa(h) + "p", Height: h})
	}
	return opts
}

// ProxiedThumbnailURL returns the local proxy URL for an external image.
func ProxiedThumbnailURL(imageURL string) string {
	return ThumbnailProxyPath + "?url=" + url.QueryEscape(imageURL)
}
