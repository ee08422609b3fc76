package cache

import "fmt"

// Mode selects how much evidence a cache hit requires.
type Mode int

const (
	// Shallow accepts a record whose stored mtime and size both match
	// the candidate. Cheap: evaluation never touches the EXIF excerpt.
	Shallow Mode = iota

	// Strict additionally requires the stored EXIF excerpt hash to
	// match, catching in-place edits that restore mtime and size.
	Strict
)

// String returns the mode's config spelling.
func (m Mode) String() string {
	switch m {
	case Shallow:
		return "shallow"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the config spelling of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "shallow":
		return Shallow, nil
	case "strict":
		return Strict, nil
	default:
		return Shallow, fmt.Errorf("unknown eval mode %q (want shallow or strict)", s)
	}
}

// Decision is the outcome of a cache lookup.
type Decision int

const (
	// Miss means the file must be processed.
	Miss Decision = iota

	// Hit means the file was processed before and is unchanged under
	// the active mode.
	Hit
)

// String returns "hit" or "miss" for logs and summaries.
func (d Decision) String() string {
	if d == Hit {
		return "hit"
	}
	return "miss"
}

// Decide evaluates a candidate against the stored record. A nil record
// is a Miss. Decide never fails: anything that cannot be compared
// compares unequal, and unequal means Miss.
func Decide(mode Mode, candidate Canonical, stored *Record) Decision {
	if stored == nil {
		return Miss
	}

	if stored.Mtime != candidate.Mtime || stored.Size != candidate.Size {
		return Miss
	}

	if mode == Strict && stored.Exif.Hash() != candidate.Exif.Hash() {
		return Miss
	}

	return Hit
}
