package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Files []jsonFile `json:"files"`
	Stats jsonStats  `json:"stats"`
	Meta  jsonMeta   `json:"meta"`
}

// jsonFile represents a copied file in JSON output.
type jsonFile struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
	Kind      string `json:"kind"`
}

// jsonStats represents run counters in JSON output.
type jsonStats struct {
	Candidates       int64  `json:"candidates"`
	Copied           int64  `json:"copied"`
	CopiedBytes      int64  `json:"copied_bytes"`
	CopiedBytesHuman string `json:"copied_bytes_human"`
	CacheHits        int64  `json:"cache_hits"`
	WindowSkips      int64  `json:"window_skips"`
	NoCaptureTime    int64  `json:"no_capture_time"`
	Errors           int64  `json:"errors"`
	Duration         string `json:"duration"`
}

// jsonMeta represents run metadata in JSON output.
type jsonMeta struct {
	Source      string   `json:"source"`
	VolumeID    string   `json:"volume_id"`
	Library     string   `json:"library"`
	Window      string   `json:"window"`
	DryRun      bool     `json:"dry_run"`
	Warnings    []string `json:"warnings,omitempty"`
	Interrupted bool     `json:"interrupted"`
}

// JSONFormatter formats output as a single indented JSON object.
// It produces a complete JSON document with files, stats, and meta sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	output := f.buildOutput(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts Report to the JSON output structure.
func (f *JSONFormatter) buildOutput(r *Report) jsonOutput {
	files := make([]jsonFile, len(r.Files))
	for i, file := range r.Files {
		files[i] = jsonFile{
			Source:    file.Source,
			Target:    file.Target,
			Size:      file.Size,
			SizeHuman: file.SizeHuman,
			Kind:      string(file.Kind),
		}
	}

	stats := jsonStats{
		Candidates:       r.Stats.Candidates,
		Copied:           r.Stats.Copied,
		CopiedBytes:      r.Stats.CopiedBytes,
		CopiedBytesHuman: humanize.IBytes(uint64(r.Stats.CopiedBytes)),
		CacheHits:        r.Stats.CacheHits,
		WindowSkips:      r.Stats.WindowSkips,
		NoCaptureTime:    r.Stats.NoCaptureTime,
		Errors:           r.Stats.Errors,
		Duration:         formatDurationString(r.Stats.Duration),
	}

	meta := jsonMeta{
		Source:      r.Source,
		VolumeID:    r.VolumeID,
		Library:     r.Library,
		Window:      r.Window,
		DryRun:      r.DryRun,
		Warnings:    r.Warnings,
		Interrupted: r.Interrupted,
	}

	return jsonOutput{
		Files: files,
		Stats: stats,
		Meta:  meta,
	}
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
