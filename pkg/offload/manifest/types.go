// Package manifest keeps the on-disk history of import runs: one JSON
// entry per run, listable and prunable.
package manifest

import (
	"time"

	"github.com/mhoriuchi/offload/pkg/offload/types"
)

// Entry records one import run.
type Entry struct {
	// RunID is the run's UUID, the same one threaded through the logs.
	RunID string `json:"run_id"`

	// Timestamp is when the run finished.
	Timestamp time.Time `json:"timestamp"`

	// Source identifies the card the run imported from.
	Source Source `json:"source"`

	// Window is the date window in display form, or "all dates".
	Window string `json:"window"`

	// DryRun marks runs that copied nothing on purpose.
	DryRun bool `json:"dry_run,omitempty"`

	// Files are the files the run copied.
	Files []FileRecord `json:"files"`

	// Summary totals the whole run, skips and errors included.
	Summary Summary `json:"summary"`
}

// Source is the volume an import ran against.
type Source struct {
	// VolumeID is the stable volume identity.
	VolumeID string `json:"volume_id"`

	// MountPoint is where the volume was mounted during the run.
	MountPoint string `json:"mount_point"`
}

// FileRecord is one copied file.
type FileRecord struct {
	// Source is the volume-relative source path.
	Source string `json:"source"`

	// Target is the absolute library path the file was copied to.
	Target string `json:"target"`

	// Size in bytes.
	Size int64 `json:"size"`

	// Kind is "jpeg" or "raw".
	Kind types.Kind `json:"kind"`
}

// Summary totals an import run.
type Summary struct {
	Candidates    int64 `json:"candidates"`
	Copied        int64 `json:"copied"`
	CopiedBytes   int64 `json:"copied_bytes"`
	CacheHits     int64 `json:"cache_hits"`
	WindowSkips   int64 `json:"window_skips"`
	NoCaptureTime int64 `json:"no_capture_time"`
	Errors        int64 `json:"errors"`
}
