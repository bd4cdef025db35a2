// Package clipboard is the narrow boundary between the capture core and
// the OS clipboard. The monitor only ever talks to Reader and Writer, so
// the whole capture pipeline runs against a fake in tests and against the
// System implementation in production.
//
// Clipboard APIs are thread-affine on most platforms; callers must confine
// all Reader/Writer use to a single goroutine. Failures are transient by
// contract — the monitor skips the tick and tries again.
package clipboard

import (
	"errors"
	"image"
)

// ErrUnavailable is returned when the requested format is not present or
// the platform backend cannot serve it.
var ErrUnavailable = errors.New("clipboard: format unavailable")

// Reader inspects and reads the current clipboard contents.
type Reader interface {
	// ContainsText reports whether a text payload is present.
	ContainsText() bool
	// Text reads the text payload.
	Text() (string, error)
	// ContainsImage reports whether an image payload is present.
	ContainsImage() bool
	// Image reads and decodes the image payload.
	Image() (image.Image, error)
	// ContainsFileList reports whether a file-drop payload is present.
	ContainsFileList() bool
	// FileList reads the dropped paths in their original order.
	FileList() ([]string, error)
}

// Writer replaces the clipboard contents.
type Writer interface {
	SetText(s string) error
	SetImage(img image.Image) error
	SetFileList(paths []string) error
}
