package ytdlp

import (
	"context"
	"strconv"

	"vidfetch/internal/core/domain"
	"vidfetch/internal/core/ports"
)

// Download runs yt-dlp with the profile's selector and post-processing
// arguments, writing into spec.OutputTemplate. It blocks until the process
// exits or ctx is done.
func (d *YtDlpDownloader) Download(ctx context.Context, videoURL string, spec ports.DownloadSpec) error {
	profile, err := LookupProfile(spec.Profile)
	if err != nil {
		return domain.NewError(domain.OpDownload, domain.KindUnexpected, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.DownloadTimeout)
	defer cancel()

	_, stderr, err := d.invoke(ctx, d.downloadArgs(videoURL, spec, profile))
	if err != nil {
		return classify(ctx, domain.OpDownload, stderr, err)
	}
	return nil
}

func (d *YtDlpDownloader) downloadArgs(videoURL string, spec ports.DownloadSpec, profile Profile) []string {
	args := profile.Args(spec.Height)
	args = append(args, "-o", spec.OutputTemplate, "--no-progress", "--no-part")
	args = append(args, d.commonArgs(d.opts.DownloadSocketTimeout)...)
	if d.opts.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(d.opts.Retries))
	}
	if d.opts.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", d.opts.FFmpegLocation)
	}
	return append(args, "--", videoURL)
}
