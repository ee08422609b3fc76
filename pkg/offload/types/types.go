// Package types provides core data types for the offload photo importer.
// It includes the candidate file model produced by the scanner, file kind
// classification, the capture-date window, and size formatting helpers.
package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Kind classifies a candidate file by its role in the library layout.
type Kind string

const (
	// KindJPEG is a processed/preview image (jpg, jpeg). Routed to the
	// main library root.
	KindJPEG Kind = "jpeg"

	// KindRAW is a camera raw file. Routed to the raw library root when
	// one is configured, otherwise to the main root.
	KindRAW Kind = "raw"

	// KindUnknown is anything the importer does not handle.
	KindUnknown Kind = ""
)

// jpegExts are the processed-image extensions the importer accepts.
var jpegExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
}

// rawExts are the camera raw extensions the importer accepts.
// Covers the common interchange format (dng) plus the vendor formats
// produced by Nikon, Canon, Sony, Olympus, Panasonic, Pentax, Samsung,
// Fujifilm, Hasselblad and Sigma bodies.
var rawExts = map[string]struct{}{
	".dng": {},
	".nef": {},
	".cr2": {},
	".arw": {},
	".orf": {},
	".rw2": {},
	".pef": {},
	".srw": {},
	".raf": {},
	".3fr": {},
	".fff": {},
	".x3f": {},
}

// KindForPath classifies a path by its extension, case-insensitively.
// Returns KindUnknown for anything that is not a recognized photo format.
func KindForPath(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := jpegExts[ext]; ok {
		return KindJPEG
	}
	if _, ok := rawExts[ext]; ok {
		return KindRAW
	}
	return KindUnknown
}

// Candidate is a photo file discovered by the scanner, before EXIF
// extraction or cache evaluation.
type Candidate struct {
	// Path is the absolute path to the file on the source volume.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time"`

	// Kind is the classification derived from the file extension.
	Kind Kind `json:"kind"`
}

// HumanSize returns the candidate size formatted as a human-readable string.
func (c *Candidate) HumanSize() string {
	return FormatSize(c.Size)
}

// dateLayout is the CLI/config date format for window bounds.
const dateLayout = "2006-01-02"

// ErrInvalidDate indicates that a date string could not be parsed.
var ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")

// ErrInvalidWindow indicates that the window bounds are reversed.
var ErrInvalidWindow = errors.New("to-date is before from-date")

// DateWindow bounds an import by capture time. The window is half-open:
// a capture time t is inside when From <= t < To. A zero bound means
// unbounded on that side.
type DateWindow struct {
	// From is the inclusive lower bound. Zero means no lower bound.
	From time.Time `json:"from,omitempty"`

	// To is the exclusive upper bound. Zero means no upper bound.
	To time.Time `json:"to,omitempty"`
}

// ParseWindow builds a DateWindow from YYYY-MM-DD strings. Empty strings
// leave the corresponding side unbounded. Bounds are interpreted in the
// local zone at midnight, so --from-date 2024-05-01 --to-date 2024-05-02
// selects exactly the captures of May 1st.
func ParseWindow(from, to string) (DateWindow, error) {
	var w DateWindow

	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, time.Local)
		if err != nil {
			return DateWindow{}, fmt.Errorf("%w: %q", ErrInvalidDate, from)
		}
		w.From = t
	}

	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, time.Local)
		if err != nil {
			return DateWindow{}, fmt.Errorf("%w: %q", ErrInvalidDate, to)
		}
		w.To = t
	}

	if !w.From.IsZero() && !w.To.IsZero() && w.To.Before(w.From) {
		return DateWindow{}, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, from, to)
	}

	return w, nil
}

// Contains reports whether t falls inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// IsUnbounded reports whether the window restricts nothing.
func (w DateWindow) IsUnbounded() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// String renders the window for logs and summaries.
func (w DateWindow) String() string {
	if w.IsUnbounded() {
		return "all dates"
	}
	from := "start"
	if !w.From.IsZero() {
		from = w.From.Format(dateLayout)
	}
	to := "end"
	if !w.To.IsZero() {
		to = w.To.Format(dateLayout)
	}
	return fmt.Sprintf("[%s, %s)", from, to)
}

// FormatSize converts a size in bytes to a human-readable string.
// It uses binary (IEC) units (KiB, MiB, GiB, TiB) for consistency
// with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
