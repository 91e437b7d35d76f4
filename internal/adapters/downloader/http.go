package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"vidfetch/internal/core/domain"
)

// maxPageBytes bounds how much of a web page is parsed for og:image.
const maxPageBytes = 2 << 20

// HTTPDownloader implements ports.ImageFetcher and ports.PageScraper using
// standard HTTP.
type HTTPDownloader struct {
	client    *http.Client
	userAgent string
}

// NewHTTPDownloader creates a new HTTPDownloader. The timeout bounds each
// request including reading the body.
func NewHTTPDownloader(userAgent string, timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// FetchImage fetches the image at imageURL. The caller must close Body.
func (d *HTTPDownloader) FetchImage(ctx context.Context, imageURL string) (*domain.Image, error) {
	resp, err := d.get(ctx, domain.OpThumbnail, imageURL)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		resp.Body.Close()
		return nil, domain.NewError(domain.OpThumbnail, domain.KindNotImage,
			fmt.Errorf("content type %q from %s", contentType, imageURL))
	}

	return &domain.Image{
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

// PageThumbnail returns the og:image of the page at pageURL, resolved
// against the page URL.
func (d *HTTPDownloader) PageThumbnail(ctx context.Context, pageURL string) (string, error) {
	resp, err := d.get(ctx, domain.OpInfo, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var content string
	doc.Find(`meta[property="og:image"], meta[name="og:image"], meta[name="twitter:image"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content = strings.TrimSpace(s.AttrOr("content", ""))
		return content == ""
	})
	if content == "" {
		return "", nil
	}

	ref, err := url.Parse(content)
	if err != nil {
		return "", fmt.Errorf("invalid og:image %q: %w", content, err)
	}
	return resp.Request.URL.ResolveReference(ref).String(), nil
}

func (d *HTTPDownloader) get(ctx context.Context, op domain.Op, rawURL string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.InvalidInput(op, "Invalid URL.")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, classifyFetch(ctx, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, domain.NewError(op, domain.KindUpstream, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}
	return resp, nil
}

func classifyFetch(ctx context.Context, op domain.Op, err error) *domain.Error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return domain.NewError(op, domain.KindCanceled, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewError(op, domain.KindTimeout, err)
	}
	return domain.NewError(op, domain.KindNetwork, err)
}
