package domain

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Job represents a single download request and the workspace it owns.
type Job struct {
	ID        string    `json:"job_id"`
	URL       string    `json:"url"`
	Quality   string    `json:"quality"`
	Height    int       `json:"height,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// NewJob is the only place job tokens are minted. Every temporary artifact
// of the job is named after the returned ID.
func NewJob(url, quality, title string) Job {
	return Job{
		ID:        uuid.New().String(),
		URL:       url,
		Quality:   quality,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
}

// Format is the subset of an extractor format entry the service inspects.
type Format struct {
	ID       string
	Ext      string
	Height   int // 0 when unknown or not a positive integer
	HasVideo bool
	HasAudio bool
}

// Thumbnail is one entry of the extractor's thumbnail list.
type Thumbnail struct {
	URL string
}

// Metadata is the normalized extractor output for one URL.
type Metadata struct {
	Title      string
	Thumbnail  string
	Thumbnails []Thumbnail
	Formats    []Format
	WebpageURL string
	Extractor  string
}

// QualityOption pairs a "<height>p" label with its height.
type QualityOption struct {
	Label  string
	Height int
}

// QualityOptions marshals as a JSON object whose keys keep slice order,
// which is descending by height.
type QualityOptions []QualityOption

// MarshalJSON implements json.Marshaler.
func (q QualityOptions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range q {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(opt.Height))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// VideoInfo is returned by the info endpoint.
type VideoInfo struct {
	Title          string         `json:"title"`
	ThumbnailURL   *string        `json:"thumbnail_url"`
	QualityOptions QualityOptions `json:"quality_options"`
	WebpageURL     string         `json:"webpage_url"`
	Extractor      string         `json:"extractor"`
}

// Image is a fetched remote image.
type Image struct {
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}
