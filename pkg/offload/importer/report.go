package importer

import (
	"time"

	"github.com/mhoriuchi/offload/pkg/offload/manifest"
	"github.com/mhoriuchi/offload/pkg/offload/output"
	"github.com/mhoriuchi/offload/pkg/offload/types"
)

// Result is what one import run produced.
type Result struct {
	// RunID is the run's UUID.
	RunID string

	// Started and Finished bound the run in wall time.
	Started  time.Time
	Finished time.Time

	// Source identifies the card the run imported from.
	Source manifest.Source

	// Window is the date window the run was restricted to.
	Window types.DateWindow

	// Library is the destination root.
	Library string

	// DryRun marks runs that copied nothing on purpose.
	DryRun bool

	// Files are the copied files, sorted by source path.
	Files []manifest.FileRecord

	// Summary totals the run.
	Summary manifest.Summary

	// Warnings are run-level conditions worth the user's attention.
	Warnings []string

	// Interrupted is set when the run was cancelled before the scan
	// finished.
	Interrupted bool
}

// Report renders the result for the output formatters.
func (r *Result) Report() *output.Report {
	files := make([]output.CopiedFile, len(r.Files))
	for i, f := range r.Files {
		files[i] = output.CopiedFile{
			Source:    f.Source,
			Target:    f.Target,
			Size:      f.Size,
			SizeHuman: types.FormatSize(f.Size),
			Kind:      f.Kind,
		}
	}

	return &output.Report{
		Files: files,
		Stats: output.RunStats{
			Candidates:    r.Summary.Candidates,
			Copied:        r.Summary.Copied,
			CopiedBytes:   r.Summary.CopiedBytes,
			CacheHits:     r.Summary.CacheHits,
			WindowSkips:   r.Summary.WindowSkips,
			NoCaptureTime: r.Summary.NoCaptureTime,
			Errors:        r.Summary.Errors,
			Duration:      r.Finished.Sub(r.Started),
		},
		Source:      r.Source.MountPoint,
		VolumeID:    r.Source.VolumeID,
		Library:     r.Library,
		Window:      r.Window.String(),
		DryRun:      r.DryRun,
		Warnings:    r.Warnings,
		Interrupted: r.Interrupted,
	}
}

// manifestEntry renders the result for the run history.
func (r *Result) manifestEntry() *manifest.Entry {
	return &manifest.Entry{
		RunID:     r.RunID,
		Timestamp: r.Finished,
		Source:    r.Source,
		Window:    r.Window.String(),
		DryRun:    r.DryRun,
		Files:     r.Files,
		Summary:   r.Summary,
	}
}
