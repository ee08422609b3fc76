package cache

import (
	"encoding/json"
	"time"
)

// Record is the persisted value for a processed file.
type Record struct {
	// Timestamp is when the file was recorded, in the same
	// second-precision, offset-preserving form as Mtime.
	Timestamp string `json:"timestamp"`

	// Mtime is the canonical modification time of the source file at
	// record time.
	Mtime string `json:"mtime"`

	// Size is the source file size in bytes at record time.
	Size int64 `json:"size"`

	// Exif is the metadata excerpt captured at record time.
	Exif Excerpt `json:"exif"`
}

// NewRecord builds the record for a file processed at now.
func NewRecord(meta Canonical, now time.Time) *Record {
	return &Record{
		Timestamp: CanonicalTime(now),
		Mtime:     meta.Mtime,
		Size:      meta.Size,
		Exif:      meta.Exif,
	}
}

// Encode serializes the record to its JSON storage form.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode deserializes a stored value into the record. The store maps
// failures to ErrCorruptRecord.
func (r *Record) Decode(data []byte) error {
	return json.Unmarshal(data, r)
}
