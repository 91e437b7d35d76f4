package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"vidfetch/internal/core/domain"
)

// infoJSON is the subset of yt-dlp's --dump-single-json output we read.
// Pointers distinguish null from zero values.
type infoJSON struct {
	Title        *string         `json:"title"`
	Thumbnail    *string         `json:"thumbnail"`
	Thumbnails   []thumbnailJSON `json:"thumbnails"`
	Formats      []formatJSON    `json:"formats"`
	WebpageURL   *string         `json:"webpage_url"`
	ExtractorKey *string         `json:"extractor_key"`
	Extractor    *string         `json:"extractor"`
}

type thumbnailJSON struct {
	URL *string `json:"url"`
}

type formatJSON struct {
	FormatID string   `json:"format_id"`
	Ext      string   `json:"ext"`
	Height   *float64 `json:"height"`
	VCodec   *string  `json:"vcodec"`
	ACodec   *string  `json:"acodec"`
}

// Metadata runs yt-dlp in metadata-only mode and normalizes its output.
func (d *YtDlpDownloader) Metadata(ctx context.Context, videoURL string) (*domain.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.InfoTimeout)
	defer cancel()

	args := append([]string{"--dump-single-json", "--skip-download"}, d.commonArgs(d.opts.SocketTimeout)...)
	args = append(args, "--", videoURL)

	stdout, stderr, err := d.invoke(ctx, args)
	if err != nil {
		return nil, classify(ctx, domain.OpInfo, stderr, err)
	}

	md, err := parseMetadata(stdout)
	if err != nil {
		return nil, domain.NewError(domain.OpInfo, domain.KindExtractor, err)
	}
	return md, nil
}

func parseMetadata(data []byte) (*domain.Metadata, error) {
	var raw infoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}

	md := &domain.Metadata{
		Title:      deref(raw.Title),
		Thumbnail:  deref(raw.Thumbnail),
		WebpageURL: deref(raw.WebpageURL),
		Extractor:  deref(raw.ExtractorKey),
	}
	if md.Extractor == "" {
		md.Extractor = deref(raw.Extractor)
	}
	for _, t := range raw.Thumbnails {
		md.Thumbnails = append(md.Thumbnails, domain.Thumbnail{URL: deref(t.URL)})
	}
	for _, f := range raw.Formats {
		md.Formats = append(md.Formats, domain.Format{
			ID:       f.FormatID,
			Ext:      f.Ext,
			Height:   height(f.Height),
			HasVideo: present(f.VCodec),
			HasAudio: present(f.ACodec),
		})
	}
	return md, nil
}

// height keeps strictly positive integral heights and maps everything else to 0.
func height(h *float64) int {
	if h == nil || *h <= 0 || *h != math.Trunc(*h) || *h > math.MaxInt32 {
		return 0
	}
	return int(*h)
}

// present reports whether a codec field names a real codec.
func present(codec *string) bool {
	return codec != nil && *codec != "" && *codec != "none"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
