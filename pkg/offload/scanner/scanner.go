// Package scanner walks a memory card looking for photo candidates.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"

	"github.com/mhoriuchi/offload/pkg/offload/types"
)

// shadowDirs are the bookkeeping directories macOS scatters over
// removable media. Their contents are never photos; pruning them keeps
// the walk off territory that Finder churns while a card is mounted.
var shadowDirs = map[string]struct{}{
	".AppleDouble":    {},
	".Trashes":        {},
	".Spotlight-V100": {},
	".fseventsd":      {},
	".TemporaryItems": {},
}

// IsShadow reports whether a name belongs to the built-in shadow set:
// AppleDouble sidecars ("._*"), .DS_Store, and the shadow directories.
func IsShadow(name string) bool {
	if strings.HasPrefix(name, "._") || name == ".DS_Store" {
		return true
	}
	_, ok := shadowDirs[name]
	return ok
}

// Options configures a scan.
type Options struct {
	// Root is the directory to walk, typically a card mount point.
	Root string

	// Exclude holds glob patterns applied on top of the built-in shadow
	// set. Patterns match the root-relative path in slash form and the
	// bare entry name; matching directories are pruned.
	Exclude []string

	// OnCandidate, when set, receives each candidate as it is found.
	// The walk is parallel, so the callback must be safe for concurrent
	// use.
	OnCandidate func(types.Candidate)
}

// WalkError records a path the walk could not read. The scan continues
// past it.
type WalkError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result summarizes a completed scan.
type Result struct {
	// Candidates are the photo files found. The walk is parallel, so
	// the order varies between runs.
	Candidates []types.Candidate

	// Dirs counts directories entered.
	Dirs int64

	// Files counts regular files visited.
	Files int64

	// Skipped counts entries rejected by the shadow set, the extension
	// gate, or an exclude pattern.
	Skipped int64

	// Errors are the paths the walk could not read.
	Errors []WalkError

	// Elapsed is the wall time of the walk.
	Elapsed time.Duration
}

// Scanner walks a directory tree with fastwalk, collecting candidates.
type Scanner struct {
	opts     Options
	excludes []glob.Glob

	dirs    atomic.Int64
	files   atomic.Int64
	skipped atomic.Int64

	candidates   []types.Candidate
	candidatesMu sync.Mutex

	errors   []WalkError
	errorsMu sync.Mutex

	root string
}

// New builds a Scanner. Invalid exclude patterns are rejected here so a
// typo fails the run before any copying starts.
func New(opts Options) (*Scanner, error) {
	s := &Scanner{opts: opts}

	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		s.excludes = append(s.excludes, g)
	}

	return s, nil
}

// Scan walks the root and returns the candidates found. Unreadable
// entries are collected, not fatal; cancellation aborts the walk.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()

	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root

	conf := fastwalk.Config{
		Follow: false,
	}
	if err := fastwalk.Walk(&conf, root, s.walkCallback(ctx)); err != nil {
		return nil, err
	}

	return &Result{
		Candidates: s.candidates,
		Dirs:       s.dirs.Load(),
		Files:      s.files.Load(),
		Skipped:    s.skipped.Load(),
		Errors:     s.errors,
		Elapsed:    time.Since(start),
	}, nil
}

// validateRoot resolves the root to an absolute directory.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}

	return root, nil
}

// walkCallback returns the per-entry function for fastwalk.Walk.
func (s *Scanner) walkCallback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		if err != nil {
			s.addError(path, err)
			return nil
		}

		if path == s.root {
			s.dirs.Add(1)
			return nil
		}

		name := d.Name()
		if IsShadow(name) || s.isExcluded(path, name) {
			s.skipped.Add(1)
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			s.dirs.Add(1)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		s.files.Add(1)
		s.processFile(path, d)
		return nil
	}
}

// processFile applies the extension gate and emits a candidate.
func (s *Scanner) processFile(path string, d fs.DirEntry) {
	kind := types.KindForPath(path)
	if kind == types.KindUnknown {
		s.skipped.Add(1)
		return
	}

	info, err := d.Info()
	if err != nil {
		s.addError(path, err)
		return
	}

	c := types.Candidate{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Kind:    kind,
	}

	s.candidatesMu.Lock()
	s.candidates = append(s.candidates, c)
	s.candidatesMu.Unlock()

	if s.opts.OnCandidate != nil {
		s.opts.OnCandidate(c)
	}
}

// isExcluded matches a path against the user patterns, both as the
// root-relative slash path and as the bare name.
func (s *Scanner) isExcluded(path, name string) bool {
	if len(s.excludes) == 0 {
		return false
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)

	for _, g := range s.excludes {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

// addError records an unreadable path thread-safely.
func (s *Scanner) addError(path string, err error) {
	s.errorsMu.Lock()
	s.errors = append(s.errors, WalkError{Path: path, Error: err.Error()})
	s.errorsMu.Unlock()
}
