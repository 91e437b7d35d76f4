package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Op names the operation an Error occurred in.
type Op string

const (
	OpInfo      Op = "info"
	OpDownload  Op = "download"
	OpThumbnail Op = "thumbnail"
)

// Kind classifies a failure for the client.
type Kind int

const (
	KindUnexpected Kind = iota
	KindInvalidInput
	KindUnsupported
	KindUnavailable
	KindNetwork
	KindTimeout
	KindProcessing
	KindAudioOnly
	KindNoFormats
	KindMissingOutput
	KindExtractor
	KindNotImage
	KindUpstream
	KindCanceled
)

var kindNames = map[Kind]string{
	KindUnexpected:    "unexpected",
	KindInvalidInput:  "invalid input",
	KindUnsupported:   "unsupported url",
	KindUnavailable:   "unavailable",
	KindNetwork:       "network",
	KindTimeout:       "timeout",
	KindProcessing:    "processing",
	KindAudioOnly:     "audio only",
	KindNoFormats:     "no formats",
	KindMissingOutput: "missing output",
	KindExtractor:     "extractor",
	KindNotImage:      "not an image",
	KindUpstream:      "upstream",
	KindCanceled:      "canceled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure. Err holds the internal cause, which is
// logged but never sent to clients; Message is the client-facing text.
type Error struct {
	Op   Op
	Kind Kind
	Msg  string
	Err  error
}

// NewError builds a classified error.
func NewError(op Op, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// InvalidInput builds a 400 error with an explicit message.
func InvalidInput(op Op, msg string) *Error {
	return &Error{Op: op, Kind: KindInvalidInput, Msg: msg}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error.
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidInput, KindUnsupported, KindUnavailable, KindNotImage:
		return http.StatusBadRequest
	case KindTimeout:
		if e.Op == OpThumbnail {
			return http.StatusGatewayTimeout
		}
	case KindNetwork, KindUpstream:
		if e.Op == OpThumbnail {
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// Message returns the short user-facing text. It never contains the cause.
func (e *Error) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch e.Op {
	case OpInfo:
		return infoMessage(e.Kind)
	case OpDownload:
		return downloadMessage(e.Kind)
	case OpThumbnail:
		return thumbnailMessage(e.Kind)
	}
	return "An unexpected server error occurred."
}

func infoMessage(k Kind) string {
	switch k {
	case KindUnsupported:
		return "Unsupported URL."
	case KindUnavailable:
		return "Video unavailable/private."
	case KindNetwork, KindTimeout:
		return "Network error fetching info."
	case KindAudioOnly:
		return "No video resolutions found (might be audio-only)."
	case KindNoFormats:
		return "No compatible video formats found."
	case KindExtractor:
		return "Could not process link."
	case KindCanceled:
		return "Request canceled."
	}
	return "An unexpected server error occurred fetching info."
}

func downloadMessage(k Kind) string {
	switch k {
	case KindUnsupported:
		return "Download failed: Unsupported URL."
	case KindUnavailable:
		return "Download failed: Video unavailable/private."
	case KindNetwork, KindTimeout:
		return "Download failed: Network error/timeout."
	case KindProcessing:
		return "Download failed: Error during FFmpeg video conversion."
	case KindMissingOutput:
		return "Download process error: file could not be found or disappeared."
	case KindExtractor:
		return "Download failed."
	case KindCanceled:
		return "Request canceled."
	}
	return "An unexpected server error occurred during download."
}

func thumbnailMessage(k Kind) string {
	switch k {
	case KindNotImage:
		return "URL does not point to an image."
	case KindTimeout:
		return "Timed out fetching thumbnail."
	case KindNetwork, KindUpstream:
		return "Could not fetch thumbnail."
	case KindCanceled:
		return "Request canceled."
	}
	return "An unexpected server error occurred fetching thumbnail."
}

// AsError extracts a *Error from err, wrapping unclassified errors as
// unexpected failures of op.
func AsError(op Op, err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return NewError(op, KindUnexpected, err)
}
