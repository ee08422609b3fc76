// Package distribute places processed photos into the dated library
// layout and copies them without ever exposing a torn file.
package distribute

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mhoriuchi/offload/pkg/offload/types"
)

// TargetFor returns the library path for a file captured at
// captureTime: <root>/YYYY/YYYYMMDD/<name>.
func TargetFor(root string, captureTime time.Time, name string) string {
	return filepath.Join(root, captureTime.Format("2006"), captureTime.Format("20060102"), name)
}

// Router picks the destination root for a candidate. RAW files go to
// their own library when one is configured; everything else, and RAW
// without a separate library, goes to the main root.
type Router struct {
	// Library is the main library root.
	Library string

	// RAWLibrary is the RAW root. Empty routes RAW into Library.
	RAWLibrary string
}

// RootFor returns the destination root for a file kind.
func (r Router) RootFor(kind types.Kind) string {
	if kind == types.KindRAW && r.RAWLibrary != "" {
		return r.RAWLibrary
	}
	return r.Library
}

// TargetFor returns the full destination path for a candidate.
func (r Router) TargetFor(c types.Candidate, captureTime time.Time) string {
	return TargetFor(r.RootFor(c.Kind), captureTime, filepath.Base(c.Path))
}

// Copy copies src to dst through a .partial temp file in the target
// directory, renamed into place once complete, so readers of the
// library only ever see whole files. The copy carries mtime instead of
// the copy moment, and an existing dst is replaced: re-copying after
// cache loss converges on the same library. Returns the bytes written.
func Copy(src, dst string, mtime time.Time) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create target directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dst)+".*.partial")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, in)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Chtimes(tmpPath, mtime, mtime); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("set mtime: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return n, nil
}
