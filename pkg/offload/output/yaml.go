package output

import (
	"bytes"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Files []yamlFile `yaml:"files"`
	Stats yamlStats  `yaml:"stats"`
	Meta  yamlMeta   `yaml:"meta"`
}

// yamlFile represents a copied file in YAML output.
type yamlFile struct {
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
	Size      int64  `yaml:"size"`
	SizeHuman string `yaml:"size_human"`
	Kind      string `yaml:"kind"`
}

// yamlStats represents run counters in YAML output.
type yamlStats struct {
	Candidates       int64  `yaml:"candidates"`
	Copied           int64  `yaml:"copied"`
	CopiedBytes      int64  `yaml:"copied_bytes"`
	CopiedBytesHuman string `yaml:"copied_bytes_human"`
	CacheHits        int64  `yaml:"cache_hits"`
	WindowSkips      int64  `yaml:"window_skips"`
	NoCaptureTime    int64  `yaml:"no_capture_time"`
	Errors           int64  `yaml:"errors"`
	Duration         string `yaml:"duration"`
}

// yamlMeta represents run metadata in YAML output.
type yamlMeta struct {
	Source      string   `yaml:"source"`
	VolumeID    string   `yaml:"volume_id"`
	Library     string   `yaml:"library"`
	Window      string   `yaml:"window"`
	DryRun      bool     `yaml:"dry_run"`
	Warnings    []string `yaml:"warnings,omitempty"`
	Interrupted bool     `yaml:"interrupted"`
}

// YAMLFormatter formats output as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Report) error {
	output := f.buildOutput(r)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts Report to the YAML output structure.
func (f *YAMLFormatter) buildOutput(r *Report) yamlOutput {
	files := make([]yamlFile, len(r.Files))
	for i, file := range r.Files {
		files[i] = yamlFile{
			Source:    file.Source,
			Target:    file.Target,
			Size:      file.Size,
			SizeHuman: file.SizeHuman,
			Kind:      string(file.Kind),
		}
	}

	stats := yamlStats{
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

	meta := yamlMeta{
		Source:      r.Source,
		VolumeID:    r.VolumeID,
		Library:     r.Library,
		Window:      r.Window,
		DryRun:      r.DryRun,
		Warnings:    r.Warnings,
		Interrupted: r.Interrupted,
	}

	return yamlOutput{
		Files: files,
		Stats: stats,
		Meta:  meta,
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
