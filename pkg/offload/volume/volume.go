// Package volume resolves the stable identity of the mounted filesystem
// holding a path. Identity survives remounts, reboots, and mount-point
// changes on the same machine, which makes it usable as the first half of
// a processed-file cache key. Each supported platform contributes a
// backend in its own build-tagged file: Linux reports the filesystem
// UUID, macOS the volume UUID, Windows the volume serial number, and the
// BSDs fall back to the statfs fsid pair.
package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ID is the opaque, platform-specific identity of a mounted volume.
// Two files live on the same volume exactly when their IDs are equal.
type ID string

// Info describes a resolved volume: its identity and the mount point the
// volume is currently visible under. The mount point is incidental (it
// changes between sessions); the ID is the stable part.
type Info struct {
	// ID is the stable volume identity.
	ID ID `json:"id"`

	// MountPoint is the absolute path the volume is mounted at.
	MountPoint string `json:"mount_point"`
}

// ErrNotUnderMount indicates that a path does not live under the
// resolved mount point.
var ErrNotUnderMount = fmt.Errorf("path is not under the volume mount point")

// Rel returns the volume-relative form of abs: the path with the mount
// point prefix and one leading separator removed. The remainder is passed
// through byte for byte; no case folding, separator rewriting, or Unicode
// normalization is applied, so the relative path always round-trips to
// the same cache key.
func (in Info) Rel(abs string) (string, error) {
	mount := in.MountPoint
	if mount == "" {
		return "", fmt.Errorf("%w: empty mount point", ErrNotUnderMount)
	}

	prefix := mount
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	if !strings.HasPrefix(abs, prefix) {
		return "", fmt.Errorf("%w: %s outside %s", ErrNotUnderMount, abs, mount)
	}

	rel := abs[len(prefix):]
	if rel == "" {
		return "", fmt.Errorf("%w: %s is the mount point itself", ErrNotUnderMount, abs)
	}
	return rel, nil
}

// LookupError wraps a failed volume identity lookup. Callers treat it as
// a per-file condition: log, skip the file, continue the run.
type LookupError struct {
	// Path is the path whose volume could not be identified.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("volume identity for %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Canonicalize returns the form of path that volume lookup and
// relative-path computation agree on: absolute, with symlinks evaluated.
// Both sides must use it, or a symlinked input would resolve to one
// mount point and fail the prefix check against another.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Resolver reports the volume holding a path.
type Resolver interface {
	// Resolve returns the identity and mount point of the volume
	// holding path. Failure is reported as a *LookupError.
	Resolve(path string) (Info, error)
}

// SystemResolver queries the operating system on every call. It holds no
// state and performs no caching.
type SystemResolver struct{}

// Resolve canonicalizes path and queries the platform backend.
func (SystemResolver) Resolve(path string) (Info, error) {
	canonical, err := Canonicalize(path)
	if err != nil {
		return Info{}, &LookupError{Path: path, Err: err}
	}

	info, err := lookup(canonical)
	if err != nil {
		return Info{}, &LookupError{Path: path, Err: err}
	}
	return info, nil
}

// fixed is a Resolver pinned to a single already-resolved volume.
type fixed struct {
	info Info
}

// Fixed returns a Resolver that answers every lookup with info. An
// import run resolves its input root once and pins the result, since
// every candidate of the run lives on that volume.
func Fixed(info Info) Resolver {
	return fixed{info: info}
}

// Resolve returns the pinned volume.
func (f fixed) Resolve(string) (Info, error) {
	return f.info, nil
}
