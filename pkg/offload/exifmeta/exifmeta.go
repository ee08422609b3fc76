// Package exifmeta reads the slice of EXIF a photo offload needs: the
// capture time that places a file in the library layout, and the small
// identity excerpt the processed-file cache hashes. Files without a
// readable capture time cannot be dated and are excluded from import
// entirely.
package exifmeta

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dsoprea/go-exif/v3"

	"github.com/mhoriuchi/offload/pkg/offload/cache"
)

// ErrNoCaptureTime means the file carries no usable DateTimeOriginal:
// no metadata block at all, the tag is absent, or its value does not
// parse. Such files have no place in a dated library.
var ErrNoCaptureTime = errors.New("no capture time in metadata")

// Meta is the extracted slice of a file's metadata.
type Meta struct {
	// CaptureTime is DateTimeOriginal, interpreted in the local zone
	// (EXIF timestamps carry no offset).
	CaptureTime time.Time

	// Excerpt is the identity excerpt for cache evaluation.
	Excerpt cache.Excerpt
}

// Extractor reads metadata for one file.
type Extractor interface {
	Extract(path string) (Meta, error)
}

// FileExtractor reads metadata from files on disk. The zero value is
// ready to use.
type FileExtractor struct{}

// Extract reads the EXIF block of the file at path. JPEG and TIFF-based
// RAW containers are both handled; the block is located by scanning, so
// vendor wrapping does not matter.
func (FileExtractor) Extract(path string) (Meta, error) {
	raw, err := exif.SearchFileAndExtractExif(path)
	if errors.Is(err, exif.ErrNoExif) {
		return Meta{}, fmt.Errorf("%w: no metadata block", ErrNoCaptureTime)
	}
	if err != nil {
		return Meta{}, fmt.Errorf("extract metadata: %w", err)
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return Meta{}, fmt.Errorf("decode metadata: %w", err)
	}

	return metaFromTags(tags)
}

// Tag addresses, matched by ID rather than dictionary name so files
// survive tag-name drift between metadata dictionaries.
const (
	tagMake             = 0x010F // IFD
	tagModel            = 0x0110 // IFD
	tagImageWidth       = 0x0100 // IFD
	tagImageLength      = 0x0101 // IFD
	tagDNGCameraSerial  = 0xC62F // IFD (DNG)
	tagDateTimeOriginal = 0x9003 // IFD/Exif
	tagBodySerialNumber = 0xA431 // IFD/Exif
	tagImageUniqueID    = 0xA420 // IFD/Exif
	tagPixelXDimension  = 0xA002 // IFD/Exif
	tagPixelYDimension  = 0xA003 // IFD/Exif
)

// captureLayout is the EXIF timestamp layout.
const captureLayout = "2006:01:02 15:04:05"

// metaFromTags assembles Meta from a flat tag dump. The first occurrence
// of a tag wins: primary-image IFDs enumerate before thumbnail IFDs, so
// thumbnail duplicates never shadow the real values.
func metaFromTags(tags []exif.ExifTag) (Meta, error) {
	type slot struct {
		ifdPath string
		id      uint16
	}
	want := map[slot]*string{}
	field := func(ifdPath string, id uint16) *string {
		s := new(string)
		want[slot{ifdPath, id}] = s
		return s
	}

	cameraMake := field("IFD", tagMake)
	model := field("IFD", tagModel)
	width0 := field("IFD", tagImageWidth)
	height0 := field("IFD", tagImageLength)
	dngSerial := field("IFD", tagDNGCameraSerial)
	datetime := field("IFD/Exif", tagDateTimeOriginal)
	bodySerial := field("IFD/Exif", tagBodySerialNumber)
	uniqueID := field("IFD/Exif", tagImageUniqueID)
	pixelX := field("IFD/Exif", tagPixelXDimension)
	pixelY := field("IFD/Exif", tagPixelYDimension)

	for _, tag := range tags {
		dst, ok := want[slot{tag.IfdPath, tag.TagId}]
		if !ok || *dst != "" {
			continue
		}
		*dst = cleanValue(tag.FormattedFirst)
	}

	capture, err := parseCaptureTime(*datetime)
	if err != nil {
		return Meta{}, err
	}

	excerpt := cache.Excerpt{
		DateTimeOriginal: opt(*datetime),
		MakeModel:        makeModel(*cameraMake, *model),
		CameraSerial:     firstOpt(*bodySerial, *dngSerial),
		ImageUniqueID:    opt(*uniqueID),
		Dimensions:       dimensions(*pixelX, *pixelY, *width0, *height0),
	}

	return Meta{CaptureTime: capture, Excerpt: excerpt}, nil
}

// parseCaptureTime parses the EXIF timestamp in the local zone.
func parseCaptureTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: DateTimeOriginal absent", ErrNoCaptureTime)
	}

	t, err := time.ParseInLocation(captureLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unparseable DateTimeOriginal %q", ErrNoCaptureTime, s)
	}
	return t, nil
}

// cleanValue strips the NUL padding and whitespace cameras leave in
// ASCII tag values.
func cleanValue(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// opt returns nil for the empty string, distinguishing an absent tag
// from a present one.
func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// firstOpt returns the first non-empty value, or nil.
func firstOpt(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}

// makeModel joins manufacturer and model as "Make/Model". One missing
// side degrades to the other alone; both missing means absent.
func makeModel(cameraMake, model string) *string {
	switch {
	case cameraMake != "" && model != "":
		return opt(cameraMake + "/" + model)
	case cameraMake != "":
		return opt(cameraMake)
	case model != "":
		return opt(model)
	default:
		return nil
	}
}

// dimensions renders "WxH" when a complete pair exists. The Exif-IFD
// pixel dimensions win over the root-IFD image dimensions; a pair is
// never assembled across the two sources.
func dimensions(pixelX, pixelY, width0, height0 string) *string {
	if pixelX != "" && pixelY != "" {
		return opt(pixelX + "x" + pixelY)
	}
	if width0 != "" && height0 != "" {
		return opt(width0 + "x" + height0)
	}
	return nil
}
