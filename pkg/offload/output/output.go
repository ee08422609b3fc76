// Package output provides formatters for displaying import run reports
// in various output formats (pretty, plain, json, yaml).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mhoriuchi/offload/pkg/offload/types"
)

// CopiedFile describes one file an import run copied into the library.
// On dry runs it describes the copy that would have happened.
type CopiedFile struct {
	// Source is the volume-relative path on the card.
	Source string `json:"source" yaml:"source"`

	// Target is the absolute library path the file was copied to.
	Target string `json:"target" yaml:"target"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the human-readable file size (e.g., "24.3 MiB").
	SizeHuman string `json:"size_human" yaml:"size_human"`

	// Kind is the file classification ("jpeg" or "raw").
	Kind types.Kind `json:"kind" yaml:"kind"`
}

// RunStats contains counters for a whole import run, skips and errors
// included.
type RunStats struct {
	// Candidates is the number of photo files the scanner found.
	Candidates int64 `json:"candidates" yaml:"candidates"`

	// Copied is the number of files copied into the library.
	Copied int64 `json:"copied" yaml:"copied"`

	// CopiedBytes is the total size of all copied files.
	CopiedBytes int64 `json:"copied_bytes" yaml:"copied_bytes"`

	// CacheHits is the number of candidates skipped as already processed.
	CacheHits int64 `json:"cache_hits" yaml:"cache_hits"`

	// WindowSkips is the number of candidates outside the date window.
	WindowSkips int64 `json:"window_skips" yaml:"window_skips"`

	// NoCaptureTime is the number of candidates without a usable
	// capture timestamp.
	NoCaptureTime int64 `json:"no_capture_time" yaml:"no_capture_time"`

	// Errors is the number of candidates that failed.
	Errors int64 `json:"errors" yaml:"errors"`

	// Duration is the total time taken to complete the run.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Report contains the complete output data for formatting a finished
// import run.
type Report struct {
	// Files contains the copied files, sorted by source path.
	Files []CopiedFile `json:"files" yaml:"files"`

	// Stats contains the run counters.
	Stats RunStats `json:"stats" yaml:"stats"`

	// Source is the mount point the run imported from.
	Source string `json:"source" yaml:"source"`

	// VolumeID is the stable identity of the source volume.
	VolumeID string `json:"volume_id" yaml:"volume_id"`

	// Library is the destination library root.
	Library string `json:"library" yaml:"library"`

	// Window is the date window in display form, or "all dates".
	Window string `json:"window" yaml:"window"`

	// DryRun marks runs that copied nothing on purpose.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Warnings contains any warning messages generated during the run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Interrupted indicates if the run was interrupted by the user.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
