// Package filename builds download filenames that are safe for filesystems
// and HTTP headers.
package filename

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxTitleLength bounds the title segment, in characters.
const MaxTitleLength = 100

const fallbackTitle = "video"

// forbidden are characters rejected by common filesystems.
const forbidden = `<>:"/\|?*`

// Clean returns "<safe-title>-<quality>.<ext>". The title is normalized,
// forbidden and control characters become underscores, surrounding
// whitespace, dots and underscores are trimmed, whitespace runs become a
// single dash, and the result is cut to MaxTitleLength characters. An
// empty result falls back to "video".
func Clean(title, quality, ext string) string {
	return Title(title) + "-" + quality + "." + ext
}

// Title returns the sanitized title segment alone.
func Title(title string) string {
	title = norm.NFC.String(title)

	title = strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbidden, r) || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return '_'
		}
		return r
	}, title)

	title = strings.TrimSpace(title)
	title = strings.Trim(title, "._")
	title = strings.Join(strings.Fields(title), "-")

	if title == "" {
		return fallbackTitle
	}
	if runes := []rune(title); len(runes) > MaxTitleLength {
		title = string(runes[:MaxTitleLength])
	}
	return title
}

// ASCII returns name with every non-printable-ASCII character, quote and
// backslash replaced by an underscore, for use as a quoted-string filename
// parameter.
func ASCII(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
}

// ExtValue percent-encodes name as UTF-8 for an RFC 5987 ext-value. Only
// attr-char bytes are left as they are.
func ExtValue(name string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
