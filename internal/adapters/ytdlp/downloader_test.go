package ytdlp

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"
	"time"

	"vidfetch/internal/core/domain"
	"vidfetch/internal/core/ports"
	"vidfetch/internal/logging"
)

type fakeRun struct {
	stdout string
	stderr string
	err    error
	args   []string
	block  bool
}

func (f *fakeRun) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = args
	if f.block {
		<-ctx.Done()
		return nil, nil, errors.New("signal: killed")
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func newTestDownloader(f *fakeRun, opts Options) *YtDlpDownloader {
	opts.BinaryPath = "yt-dlp"
	opts.Logger = logging.Discard()
	d := NewYtDlpDownloader(opts)
	d.run = f.run
	return d
}

const sampleInfo = `{
  "title": "Sample",
  "thumbnail": null,
  "thumbnails": [{"url": "https://i.example/a.jpg"}, {"url": null}],
  "webpage_url": "https://example.com/watch?v=1",
  "extractor_key": "Youtube",
  "formats": [
    {"format_id": "140", "ext": "m4a", "height": null, "vcodec": "none", "acodec": "mp4a.40.2"},
    {"format_id": "137", "ext": "mp4", "height": 1080, "vcodec": "avc1.640028", "acodec": "none"},
    {"format_id": "odd", "ext": "mp4", "height": 719.5, "vcodec": "avc1", "acodec": null},
    {"format_id": "sb0", "ext": "mhtml", "height": 0, "vcodec": null}
  ]
}`

func TestMetadataParsesFormats(t *testing.T) {
	f := &fakeRun{stdout: sampleInfo}
	d := newTestDownloader(f, Options{SocketTimeout: 15})

	md, err := d.Metadata(context.Background(), "https://example.com/watch?v=1")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}

	if md.Title != "Sample" || md.Thumbnail != "" || md.Extractor != "Youtube" {
		t.Fatalf("unexpected metadata: %+v", md)
	}
	if len(md.Thumbnails) != 2 || md.Thumbnails[0].URL != "https://i.example/a.jpg" {
		t.Fatalf("thumbnails = %+v", md.Thumbnails)
	}

	want := []domain.Format{
		{ID: "140", Ext: "m4a", Height: 0, HasVideo: false, HasAudio: true},
		{ID: "137", Ext: "mp4", Height: 1080, HasVideo: true, HasAudio: false},
		{ID: "odd", Ext: "mp4", Height: 0, HasVideo: true, HasAudio: false},
		{ID: "sb0", Ext: "mhtml", Height: 0, HasVideo: false, HasAudio: false},
	}
	if !slices.Equal(md.Formats, want) {
		t.Fatalf("formats = %+v, want %+v", md.Formats, want)
	}

	for _, arg := range []string{"--dump-single-json", "--skip-download", "--no-playlist"} {
		if !slices.Contains(f.args, arg) {
			t.Errorf("args %v missing %s", f.args, arg)
		}
	}
	if i := slices.Index(f.args, "--socket-timeout"); i < 0 || f.args[i+1] != "15" {
		t.Errorf("args %v missing socket timeout", f.args)
	}
	if got := f.args[len(f.args)-2:]; got[0] != "--" || got[1] != "https://example.com/watch?v=1" {
		t.Errorf("url must follow --, got %v", got)
	}
}

func TestMetadataBadJSON(t *testing.T) {
	d := newTestDownloader(&fakeRun{stdout: "not json"}, Options{})
	_, err := d.Metadata(context.Background(), "https://example.com")

	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindExtractor {
		t.Fatalf("err = %v, want extractor error", err)
	}
}

func TestClassify(t *testing.T) {
	exit := errors.New("exit status 1")
	tests := []struct {
		name   string
		op     domain.Op
		stderr string
		err    error
		want   domain.Kind
	}{
		{"unsupported", domain.OpInfo, "ERROR: Unsupported URL: https://x", exit, domain.KindUnsupported},
		{"not a url", domain.OpInfo, "ERROR: 'notaurl' is not a valid URL. Set --default-search \"ytsearch\" (or run  yt-dlp \"ytsearch:notaurl\" ) to search YouTube", exit, domain.KindUnsupported},
		{"unavailable", domain.OpInfo, "ERROR: [youtube] abc: Video unavailable", exit, domain.KindUnavailable},
		{"private", domain.OpDownload, "ERROR: Private video. Sign in", exit, domain.KindUnavailable},
		{"network", domain.OpInfo, "ERROR: <urlopen error [Errno -2]>", exit, domain.KindNetwork},
		{"timed out", domain.OpDownload, "ERROR: Read timed out.", exit, domain.KindNetwork},
		{"webpage", domain.OpInfo, "ERROR: Unable to download webpage: HTTP 503", exit, domain.KindNetwork},
		{"ffmpeg on download", domain.OpDownload, "ERROR: Postprocessing: ffmpeg exited with code 1", exit, domain.KindProcessing},
		{"conversion failed", domain.OpDownload, "ERROR: Conversion failed!", exit, domain.KindProcessing},
		{"ffmpeg on info is not processing", domain.OpInfo, "ERROR: ffmpeg not found", exit, domain.KindExtractor},
		{"processing wins over network", domain.OpDownload, "timed out\nERROR: ffmpeg exited", exit, domain.KindProcessing},
		{"unknown", domain.OpInfo, "ERROR: something odd", exit, domain.KindExtractor},
		{"missing binary", domain.OpInfo, "", &exec.Error{Name: "yt-dlp", Err: exec.ErrNotFound}, domain.KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(context.Background(), tt.op, []byte(tt.stderr), tt.err)
			if got.Kind != tt.want {
				t.Fatalf("kind = %v, want %v", got.Kind, tt.want)
			}
			if got.Op != tt.op {
				t.Fatalf("op = %v, want %v", got.Op, tt.op)
			}
		})
	}
}

func TestMetadataRejectsNonURL(t *testing.T) {
	f := &fakeRun{stderr: "ERROR: 'notaurl' is not a valid URL. Set --default-search \"ytsearch\" to search YouTube\n", err: errors.New("exit status 1")}
	d := newTestDownloader(f, Options{})

	_, err := d.Metadata(context.Background(), "notaurl")
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want domain error", err)
	}
	if de.Status() != 400 || de.Message() != "Unsupported URL." {
		t.Fatalf("got %d %q, want 400 %q", de.Status(), de.Message(), "Unsupported URL.")
	}
}

func TestMetadataTimeout(t *testing.T) {
	d := newTestDownloader(&fakeRun{block: true}, Options{InfoTimeout: 10 * time.Millisecond})
	_, err := d.Metadata(context.Background(), "https://example.com")

	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindTimeout {
		t.Fatalf("err = %v, want timeout", err)
	}
	if de.Status() != 500 {
		t.Fatalf("status = %d, want 500", de.Status())
	}
}

func TestDownloadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := newTestDownloader(&fakeRun{block: true}, Options{})

	err := d.Download(ctx, "https://example.com", ports.DownloadSpec{OutputTemplate: "/tmp/x.%(ext)s", Height: 720})
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindCanceled {
		t.Fatalf("err = %v, want canceled", err)
	}
}

func TestDownloadArgs(t *testing.T) {
	f := &fakeRun{}
	d := newTestDownloader(f, Options{DownloadSocketTimeout: 20, Retries: 3, FFmpegLocation: "/opt/ffmpeg"})
	spec := ports.DownloadSpec{OutputTemplate: "/tmp/job/job.%(ext)s", Height: 720, Profile: "reencode"}

	if err := d.Download(context.Background(), "https://example.com/v", spec); err != nil {
		t.Fatalf("Download: %v", err)
	}

	joined := strings.Join(f.args, " ")
	for _, want := range []string{
		"-f bestvideo[height<=720]+bestaudio/best[height<=720]/best",
		"-o /tmp/job/job.%(ext)s",
		"--merge-output-format mp4",
		"--recode-video mp4",
		"--postprocessor-args " + reencodeArgs,
		"--socket-timeout 20",
		"--retries 3",
		"--ffmpeg-location /opt/ffmpeg",
		"--no-playlist",
		"-- https://example.com/v",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestDownloadUnknownProfile(t *testing.T) {
	f := &fakeRun{}
	d := newTestDownloader(f, Options{})
	err := d.Download(context.Background(), "https://example.com", ports.DownloadSpec{Height: 720, Profile: "lossless"})
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
	if f.args != nil {
		t.Fatal("yt-dlp must not run with an unknown profile")
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name         string
		wantSelector string
		wantArgs     []string
	}{
		{"merge", "bv*[height<=480][vcodec^=avc1]+ba[acodec^=mp4a]/bv*[height<=480]+ba/b[height<=480]/b", []string{"--merge-output-format", "mp4"}},
		{"", "bestvideo[height<=480]+bestaudio/best[height<=480]/best", []string{"--merge-output-format", "mp4", "--recode-video", "mp4"}},
		{"CONVERT", "bestvideo[height<=480]+bestaudio/best[height<=480]/best", []string{"--merge-output-format", "mp4", "--recode-video", "mp4"}},
		{"mobile", "bv*[height<=480][vcodec^=avc1]+ba[acodec^=mp4a]/bv*[height<=480]+ba/b[height<=480]/b", []string{"--merge-output-format", "mp4", "--recode-video", "mp4", "--postprocessor-args", mobileArgs}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupProfile(tt.name)
			if err != nil {
				t.Fatalf("LookupProfile: %v", err)
			}
			if got := p.Selector(480); got != tt.wantSelector {
				t.Errorf("Selector = %q, want %q", got, tt.wantSelector)
			}
			args := p.Args(480)
			if args[0] != "-f" || args[1] != tt.wantSelector {
				t.Errorf("Args must start with the selector: %v", args)
			}
			if !slices.Equal(args[2:], tt.wantArgs) {
				t.Errorf("post args = %v, want %v", args[2:], tt.wantArgs)
			}
		})
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine([]byte("WARNING: x\nERROR: boom\n\n")); got != "ERROR: boom" {
		t.Fatalf("lastLine = %q", got)
	}
	if got := lastLine(nil); got != "" {
		t.Fatalf("lastLine(nil) = %q", got)
	}
}
