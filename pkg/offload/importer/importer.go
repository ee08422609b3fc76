// Package importer orchestrates a single import run: scan the card,
// date and judge each candidate, copy what is new, and record it.
package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mhoriuchi/offload/pkg/offload/cache"
	"github.com/mhoriuchi/offload/pkg/offload/distribute"
	"github.com/mhoriuchi/offload/pkg/offload/exifmeta"
	"github.com/mhoriuchi/offload/pkg/offload/logging"
	"github.com/mhoriuchi/offload/pkg/offload/manifest"
	"github.com/mhoriuchi/offload/pkg/offload/scanner"
	"github.com/mhoriuchi/offload/pkg/offload/tuner"
	"github.com/mhoriuchi/offload/pkg/offload/types"
	"github.com/mhoriuchi/offload/pkg/offload/volume"
)

// Options configure an import run.
type Options struct {
	// Source is the card mount point or directory to import from.
	Source string

	// Library is the destination root for imported files.
	Library string

	// RAWLibrary, when set, roots raw files separately from JPEGs.
	RAWLibrary string

	// Window restricts the run to files captured inside it.
	Window types.DateWindow

	// Exclude holds extra glob patterns skipped during the scan.
	Exclude []string

	// Workers overrides the pool size. Zero sizes it from the machine.
	Workers int

	// DryRun walks the full pipeline but copies and records nothing.
	DryRun bool

	// Cache is the processed-file cache. Nil runs without one: every
	// candidate is processed and nothing is recorded.
	Cache *cache.Cache

	// History, when set, receives one entry per run.
	History *manifest.History

	// Extractor reads per-file capture metadata. Nil uses the EXIF
	// reader.
	Extractor exifmeta.Extractor

	// Resolver maps the source path to a volume identity. Nil uses the
	// platform resolver.
	Resolver volume.Resolver
}

// Importer drives import runs from one source into one library.
type Importer struct {
	opts      Options
	extractor exifmeta.Extractor
	resolver  volume.Resolver
	router    distribute.Router
}

// New validates opts and builds an Importer.
func New(opts Options) (*Importer, error) {
	if opts.Source == "" {
		return nil, errors.New("source is required")
	}
	if opts.Library == "" {
		return nil, errors.New("library is required")
	}

	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("resolving source path: %w", err)
	}
	library, err := filepath.Abs(opts.Library)
	if err != nil {
		return nil, fmt.Errorf("resolving library path: %w", err)
	}
	opts.Source = source
	opts.Library = library

	if opts.RAWLibrary != "" {
		raw, err := filepath.Abs(opts.RAWLibrary)
		if err != nil {
			return nil, fmt.Errorf("resolving raw library path: %w", err)
		}
		opts.RAWLibrary = raw
	}

	// A library inside the source would make every run re-import its
	// own output.
	if under(opts.Library, opts.Source) {
		return nil, errors.New("library cannot live inside the source tree")
	}
	if opts.RAWLibrary != "" && under(opts.RAWLibrary, opts.Source) {
		return nil, errors.New("raw library cannot live inside the source tree")
	}

	imp := &Importer{
		opts:      opts,
		extractor: opts.Extractor,
		resolver:  opts.Resolver,
		router:    distribute.Router{Library: opts.Library, RAWLibrary: opts.RAWLibrary},
	}
	if imp.extractor == nil {
		imp.extractor = exifmeta.FileExtractor{}
	}
	if imp.resolver == nil {
		imp.resolver = volume.SystemResolver{}
	}

	return imp, nil
}

// Run executes one import pass. Cancelling ctx stops the scan and
// drains the pipeline; the partial result is returned with Interrupted
// set rather than an error.
func (imp *Importer) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := logging.Get("importer").With("run_id", runID)
	started := time.Now()

	info, err := imp.resolver.Resolve(imp.opts.Source)
	if err != nil {
		return nil, fmt.Errorf("resolving source volume: %w", err)
	}

	log.Info("starting import",
		"source", imp.opts.Source,
		"volume_id", string(info.ID),
		"window", imp.opts.Window.String(),
		"dry_run", imp.opts.DryRun)

	resources, err := tuner.Detect()
	if err != nil {
		log.Warn("system probe incomplete", "error", err)
	}
	pool := tuner.CalculateWithOverride(resources, imp.opts.Workers)
	log.Debug("worker pool sized", "workers", pool.Workers, "queue", pool.QueueSize)

	st := &runState{}
	queue := make(chan types.Candidate, pool.QueueSize)

	var wg sync.WaitGroup
	for i := 0; i < pool.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range queue {
				imp.processCandidate(ctx, log, st, info, c)
			}
		}()
	}

	sc, err := scanner.New(scanner.Options{
		Root:    imp.opts.Source,
		Exclude: imp.opts.Exclude,
		OnCandidate: func(c types.Candidate) {
			st.candidates.Add(1)
			select {
			case queue <- c:
			case <-ctx.Done():
			}
		},
	})
	if err != nil {
		close(queue)
		wg.Wait()
		return nil, err
	}

	scanRes, scanErr := sc.Scan(ctx)
	close(queue)
	wg.Wait()

	interrupted := ctx.Err() != nil
	switch {
	case scanErr == nil:
	case errors.Is(scanErr, context.Canceled) || errors.Is(scanErr, context.DeadlineExceeded):
		interrupted = true
	default:
		return nil, fmt.Errorf("scanning %s: %w", imp.opts.Source, scanErr)
	}

	if scanRes != nil && len(scanRes.Errors) > 0 {
		st.errs.Add(int64(len(scanRes.Errors)))
		st.addWarning(fmt.Sprintf("%d paths could not be read during the scan", len(scanRes.Errors)))
	}

	res := imp.buildResult(runID, started, info, st, interrupted)

	if imp.opts.History != nil {
		if err := imp.opts.History.Append(res.manifestEntry()); err != nil {
			log.Warn("history append failed", "error", err)
			res.Warnings = append(res.Warnings, "run history could not be written: "+err.Error())
		}
	}

	log.Info("import finished",
		"candidates", res.Summary.Candidates,
		"copied", res.Summary.Copied,
		"copied_bytes", res.Summary.CopiedBytes,
		"cache_hits", res.Summary.CacheHits,
		"window_skips", res.Summary.WindowSkips,
		"no_capture_time", res.Summary.NoCaptureTime,
		"errors", res.Summary.Errors,
		"elapsed", time.Since(started).Round(time.Millisecond),
		"interrupted", interrupted)

	return res, nil
}

// processCandidate runs one file through the pipeline: extract, window
// check, cache check, copy, record.
func (imp *Importer) processCandidate(ctx context.Context, log *logging.Logger, st *runState, info volume.Info, c types.Candidate) {
	if ctx.Err() != nil {
		return
	}

	meta, err := imp.extractor.Extract(c.Path)
	if err != nil {
		if errors.Is(err, exifmeta.ErrNoCaptureTime) {
			st.noCaptureTime.Add(1)
			log.Warn("skip: no capture time", "path", c.Path)
		} else {
			st.errs.Add(1)
			log.Error("metadata read failed", "path", c.Path, "error", err)
		}
		return
	}

	fileMeta := cache.Canonicalize(c.ModTime, c.Size, meta.Excerpt)

	// Out-of-window files are recorded too: narrowing the window is a
	// decision about this run, not about the file, and the next run
	// should not reconsider it.
	if !imp.opts.Window.Contains(meta.CaptureTime) {
		st.windowSkips.Add(1)
		log.Debug("skip: outside window",
			"path", c.Path,
			"captured", meta.CaptureTime.Format(time.RFC3339))
		imp.record(log, c.Path, fileMeta)
		return
	}

	if imp.opts.Cache != nil {
		decision, err := imp.opts.Cache.ShouldProcess(c.Path, fileMeta)
		if err != nil {
			st.errs.Add(1)
			log.Error("volume lookup failed", "path", c.Path, "error", err)
			return
		}
		if decision == cache.Hit {
			st.cacheHits.Add(1)
			return
		}
	}

	target := imp.router.TargetFor(c, meta.CaptureTime)
	source := imp.relSource(info, c.Path)

	if imp.opts.DryRun {
		st.copied.Add(1)
		st.copiedBytes.Add(c.Size)
		st.addFile(manifest.FileRecord{Source: source, Target: target, Size: c.Size, Kind: c.Kind})
		log.Info("would copy", "path", c.Path, "target", target, "size", c.Size)
		return
	}

	n, err := distribute.Copy(c.Path, target, c.ModTime)
	if err != nil {
		st.errs.Add(1)
		log.Error("copy failed", "path", c.Path, "target", target, "error", err)
		return
	}

	st.copied.Add(1)
	st.copiedBytes.Add(n)
	st.addFile(manifest.FileRecord{Source: source, Target: target, Size: n, Kind: c.Kind})
	log.Info("copied", "path", c.Path, "target", target, "size", n)

	imp.record(log, c.Path, fileMeta)
}

// record stores the processed marker. Dry runs and cacheless runs record
// nothing, so the next real run sees the files again.
func (imp *Importer) record(log *logging.Logger, path string, meta cache.Canonical) {
	if imp.opts.Cache == nil || imp.opts.DryRun {
		return
	}
	if err := imp.opts.Cache.RecordProcessed(path, meta); err != nil {
		log.Warn("cache record failed", "path", path, "error", err)
	}
}

// relSource renders the candidate's volume-relative path for reports,
// falling back to the raw path when the volume rel fails.
func (imp *Importer) relSource(info volume.Info, path string) string {
	canon, err := volume.Canonicalize(path)
	if err != nil {
		return path
	}
	rel, err := info.Rel(canon)
	if err != nil {
		return path
	}
	return rel
}

func (imp *Importer) buildResult(runID string, started time.Time, info volume.Info, st *runState, interrupted bool) *Result {
	files := st.takeFiles()
	sort.Slice(files, func(i, j int) bool { return files[i].Source < files[j].Source })

	return &Result{
		RunID:    runID,
		Started:  started,
		Finished: time.Now(),
		Source: manifest.Source{
			VolumeID:   string(info.ID),
			MountPoint: info.MountPoint,
		},
		Window:      imp.opts.Window,
		Library:     imp.opts.Library,
		DryRun:      imp.opts.DryRun,
		Files:       files,
		Warnings:    st.takeWarnings(),
		Interrupted: interrupted,
		Summary: manifest.Summary{
			Candidates:    st.candidates.Load(),
			Copied:        st.copied.Load(),
			CopiedBytes:   st.copiedBytes.Load(),
			CacheHits:     st.cacheHits.Load(),
			WindowSkips:   st.windowSkips.Load(),
			NoCaptureTime: st.noCaptureTime.Load(),
			Errors:        st.errs.Load(),
		},
	}
}

// runState accumulates counters and records across the worker pool.
type runState struct {
	candidates    atomic.Int64
	copied        atomic.Int64
	copiedBytes   atomic.Int64
	cacheHits     atomic.Int64
	windowSkips   atomic.Int64
	noCaptureTime atomic.Int64
	errs          atomic.Int64

	mu       sync.Mutex
	files    []manifest.FileRecord
	warnings []string
}

func (st *runState) addFile(f manifest.FileRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.files = append(st.files, f)
}

func (st *runState) addWarning(w string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.warnings = append(st.warnings, w)
}

func (st *runState) takeFiles() []manifest.FileRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.files
}

func (st *runState) takeWarnings() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.warnings
}

// under reports whether path sits at or below root.
func under(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
