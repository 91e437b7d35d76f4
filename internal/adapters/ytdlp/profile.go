package ytdlp

import (
	"fmt"
	"strings"
)

// TargetExt is the container every profile asks yt-dlp to produce.
const TargetExt = "mp4"

// Profile is a named transcoding policy: a format selector constrained by a
// maximum height plus the post-processing arguments handed to yt-dlp.
type Profile struct {
	Name     string
	selector string // fmt template, %[1]d is the maximum height
	postArgs []string
}

const (
	avc1Selector = "bv*[height<=%[1]d][vcodec^=avc1]+ba[acodec^=mp4a]/bv*[height<=%[1]d]+ba/b[height<=%[1]d]/b"
	bestSelector = "bestvideo[height<=%[1]d]+bestaudio/best[height<=%[1]d]/best"

	reencodeArgs = "VideoConvertor:-c:v libx264 -preset fast -pix_fmt yuv420p -c:a aac -b:a 128k -movflags +faststart"
	mobileArgs   = "VideoConvertor:-c:v libx264 -profile:v baseline -level 3.1 -preset fast -pix_fmt yuv420p -c:a aac -b:a 128k -ac 2 -movflags +faststart"
)

var profiles = map[string]Profile{
	"merge": {
		Name:     "merge",
		selector: avc1Selector,
		postArgs: []string{"--merge-output-format", TargetExt},
	},
	"convert": {
		Name:     "convert",
		selector: bestSelector,
		postArgs: []string{"--merge-output-format", TargetExt, "--recode-video", TargetExt},
	},
	"reencode": {
		Name:     "reencode",
		selector: bestSelector,
		postArgs: []string{
			"--merge-output-format", TargetExt,
			"--recode-video", TargetExt,
			"--postprocessor-args", reencodeArgs,
		},
	},
	"mobile": {
		Name:     "mobile",
		selector: avc1Selector,
		postArgs: []string{
			"--merge-output-format", TargetExt,
			"--recode-video", TargetExt,
			"--postprocessor-args", mobileArgs,
		},
	},
}

// DefaultProfile is used when no profile is configured.
const DefaultProfile = "convert"

// LookupProfile returns the named profile. An empty name selects the default.
func LookupProfile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("unknown transcoding profile %q", name)
	}
	return p, nil
}

// Selector returns the format selector for the given maximum height.
func (p Profile) Selector(height int) string {
	return fmt.Sprintf(p.selector, height)
}

// Args returns the format and post-processing arguments for the height.
func (p Profile) Args(height int) []string {
	args := make([]string, 0, len(p.postArgs)+2)
	args = append(args, "-f", p.Selector(height))
	return append(args, p.postArgs...)
}
