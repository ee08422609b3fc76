package cache

import (
	"hash/fnv"
	"strings"
	"time"
)

// Excerpt holds the EXIF fields that participate in strict cache
// evaluation. Every field is optional; nil records that the tag was
// absent, which is distinct from a tag carrying an empty string.
type Excerpt struct {
	// DateTimeOriginal is the capture timestamp string as the file
	// carries it.
	DateTimeOriginal *string `json:"datetime_original,omitempty"`

	// MakeModel is "Make/Model"; when only one side is present it is
	// used alone.
	MakeModel *string `json:"make_model,omitempty"`

	// CameraSerial is the body serial number.
	CameraSerial *string `json:"camera_serial,omitempty"`

	// ImageUniqueID is the EXIF unique image identifier.
	ImageUniqueID *string `json:"image_unique_id,omitempty"`

	// Dimensions is "WxH", present only when both dimensions are.
	Dimensions *string `json:"image_dimensions,omitempty"`
}

// canonicalString joins the five fields with ":" in declaration order.
// Absent fields contribute only their separator, so the all-absent
// excerpt canonicalizes to "::::".
func (e Excerpt) canonicalString() string {
	var parts [5]string
	if e.DateTimeOriginal != nil {
		parts[0] = *e.DateTimeOriginal
	}
	if e.MakeModel != nil {
		parts[1] = *e.MakeModel
	}
	if e.CameraSerial != nil {
		parts[2] = *e.CameraSerial
	}
	if e.ImageUniqueID != nil {
		parts[3] = *e.ImageUniqueID
	}
	if e.Dimensions != nil {
		parts[4] = *e.Dimensions
	}
	return strings.Join(parts[:], ":")
}

// Hash returns the 64-bit FNV-1a digest of the canonical string. The
// digest is only ever compared against another digest; it is never used
// as a record key.
func (e Excerpt) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(e.canonicalString()))
	return h.Sum64()
}

// Canonical is the normalized (mtime, size, excerpt) triple that cache
// evaluation runs on. Build it with Canonicalize.
type Canonical struct {
	// Mtime is the canonical modification time string.
	Mtime string

	// Size is the file size in bytes.
	Size int64

	// Exif is the metadata excerpt.
	Exif Excerpt
}

// Canonicalize truncates mtime to whole seconds and renders it through
// CanonicalTime. Size and excerpt pass through unchanged.
func Canonicalize(mtime time.Time, size int64, exif Excerpt) Canonical {
	return Canonical{
		Mtime: CanonicalTime(mtime),
		Size:  size,
		Exif:  exif,
	}
}

// CanonicalTime renders t at second precision with its zone offset
// preserved, e.g. "2024-05-01T10:00:00+09:00". Offsets are deliberately
// not normalized to UTC: two stamps naming the same instant in different
// zones compare unequal, which reads as "something about this file
// changed" and costs at most a re-copy.
func CanonicalTime(t time.Time) string {
	return t.Truncate(time.Second).Format(time.RFC3339)
}
