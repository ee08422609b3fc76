package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhoriuchi/offload/pkg/offload/types"
)

func TestPrettyFormatter_Format_BasicOutput(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files: []CopiedFile{
			{Source: "DCIM/100NIKON/DSC_0042.NEF", Target: "/photos/raw/2024/20240504/DSC_0042.NEF", Size: 25431040, SizeHuman: "24.3 MiB", Kind: types.KindRAW},
			{Source: "DCIM/100NIKON/DSC_0042.JPG", Target: "/photos/2024/20240504/DSC_0042.JPG", Size: 8388608, SizeHuman: "8.0 MiB", Kind: types.KindJPEG},
		},
		Stats: RunStats{
			Candidates:  5,
			Copied:      2,
			CopiedBytes: 33819648,
			CacheHits:   3,
			Duration:    2 * time.Second,
		},
		Source:   "/Volumes/NIKON_1",
		VolumeID: "0577-AB3F",
		Library:  "/photos",
		Window:   "all dates",
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	output := buf.String()

	// Header should contain source info
	assert.Contains(t, output, "/Volumes/NIKON_1")
	assert.Contains(t, output, "0577-AB3F")

	// Should contain target paths and sizes
	assert.Contains(t, output, "DSC_0042.NEF")
	assert.Contains(t, output, "DSC_0042.JPG")
	assert.Contains(t, output, "24.3 MiB")
	assert.Contains(t, output, "8.0 MiB")

	// Should contain column headers
	assert.Contains(t, output, "SIZE")
	assert.Contains(t, output, "KIND")
	assert.Contains(t, output, "TARGET")

	// Footer should carry the copy summary
	assert.Contains(t, output, "2 of 5")
}

func TestPrettyFormatter_Format_EmptyReport(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files:  []CopiedFile{},
		Stats:  RunStats{Candidates: 4, CacheHits: 4, Duration: time.Second},
		Source: "/Volumes/NIKON_1",
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	output := buf.String()

	// Should indicate nothing was copied
	assert.Contains(t, output, "No new files to copy")
	assert.Contains(t, output, "0 of 4")
}

func TestPrettyFormatter_Format_DryRun(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files: []CopiedFile{
			{Source: "DCIM/a.jpg", Target: "/photos/2024/20240504/a.jpg", Size: 1024, SizeHuman: "1.0 KiB", Kind: types.KindJPEG},
		},
		Stats:  RunStats{Candidates: 1, Copied: 1, Duration: time.Second},
		Source: "/Volumes/NIKON_1",
		DryRun: true,
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Dry run")
}

func TestPrettyFormatter_Format_WithWarnings(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files: []CopiedFile{
			{Source: "DCIM/a.jpg", Target: "/photos/2024/20240504/a.jpg", Size: 1024, SizeHuman: "1.0 KiB", Kind: types.KindJPEG},
		},
		Stats:    RunStats{Candidates: 1, Copied: 1, Duration: time.Second},
		Source:   "/Volumes/NIKON_1",
		Warnings: []string{"cache unavailable, all files treated as new", "3 files had no capture time"},
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	output := buf.String()

	// Warnings should be displayed
	assert.Contains(t, output, "cache unavailable")
	assert.Contains(t, output, "no capture time")
}

func TestPrettyFormatter_Format_Interrupted(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files: []CopiedFile{
			{Source: "DCIM/a.jpg", Target: "/photos/2024/20240504/a.jpg", Size: 1024, SizeHuman: "1.0 KiB", Kind: types.KindJPEG},
		},
		Stats:       RunStats{Candidates: 10, Copied: 1, Duration: time.Second},
		Source:      "/Volumes/NIKON_1",
		Interrupted: true,
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	output := buf.String()

	// Should indicate interruption
	assert.True(t, strings.Contains(output, "interrupted") || strings.Contains(output, "Interrupted"))
}

func TestPrettyFormatter_Format_SkipBreakdown(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files: []CopiedFile{},
		Stats: RunStats{
			Candidates:    10,
			CacheHits:     6,
			WindowSkips:   2,
			NoCaptureTime: 1,
			Errors:        1,
			Duration:      time.Second,
		},
		Source: "/Volumes/NIKON_1",
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	output := buf.String()

	assert.Contains(t, output, "6 cached")
	assert.Contains(t, output, "2 outside window")
	assert.Contains(t, output, "1 no capture time")
	assert.Contains(t, output, "Errors:")
}

func TestPrettyFormatter_Registration(t *testing.T) {
	formatter, err := Get("pretty")
	require.NoError(t, err)
	assert.IsType(t, &PrettyFormatter{}, formatter)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "milliseconds", duration: 250 * time.Millisecond, expected: "250ms"},
		{name: "seconds", duration: 2500 * time.Millisecond, expected: "2.5s"},
		{name: "minutes", duration: 95 * time.Second, expected: "1m 35s"},
		{name: "hours", duration: 2*time.Hour + 14*time.Minute, expected: "2h 14m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}
