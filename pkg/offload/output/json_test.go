package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhoriuchi/offload/pkg/offload/types"
)

func TestJSONFormatter_Format_BasicOutput(t *testing.T) {
	formatter := &JSONFormatter{}
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

	// Should be valid JSON
	var parsed map[string]interface{}
	err = json.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)

	// Should have files, stats, and meta sections
	assert.Contains(t, parsed, "files")
	assert.Contains(t, parsed, "stats")
	assert.Contains(t, parsed, "meta")

	// Verify files
	files := parsed["files"].([]interface{})
	assert.Len(t, files, 2)

	file1 := files[0].(map[string]interface{})
	assert.Equal(t, "DCIM/100NIKON/DSC_0042.NEF", file1["source"])
	assert.Equal(t, "/photos/raw/2024/20240504/DSC_0042.NEF", file1["target"])
	assert.Equal(t, float64(25431040), file1["size"])
	assert.Equal(t, "raw", file1["kind"])

	// Verify stats
	stats := parsed["stats"].(map[string]interface{})
	assert.Equal(t, float64(5), stats["candidates"])
	assert.Equal(t, float64(2), stats["copied"])
	assert.Equal(t, float64(3), stats["cache_hits"])
	assert.Equal(t, "2s", stats["duration"])

	// Verify meta
	meta := parsed["meta"].(map[string]interface{})
	assert.Equal(t, "/Volumes/NIKON_1", meta["source"])
	assert.Equal(t, "0577-AB3F", meta["volume_id"])
	assert.Equal(t, "all dates", meta["window"])
}

func TestJSONFormatter_Format_EmptyReport(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files:  []CopiedFile{},
		Stats:  RunStats{Duration: time.Second},
		Source: "/Volumes/NIKON_1",
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)

	files := parsed["files"].([]interface{})
	assert.Len(t, files, 0)
}

func TestJSONFormatter_Format_ValidJSON(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files: []CopiedFile{
			{Source: "DCIM/file\"with\"quotes.jpg", Target: "/photos/2024/20240504/file\"with\"quotes.jpg", Size: 1024, SizeHuman: "1.0 KiB", Kind: types.KindJPEG},
		},
		Stats:  RunStats{Duration: time.Second},
		Source: "/Volumes/NIKON_1",
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	// Should be valid JSON even with special characters
	var parsed map[string]interface{}
	err = json.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)
}

func TestJSONFormatter_Format_Indented(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files: []CopiedFile{
			{Source: "DCIM/a.jpg", Target: "/photos/2024/20240504/a.jpg", Size: 1024, SizeHuman: "1.0 KiB", Kind: types.KindJPEG},
		},
		Stats:  RunStats{Duration: time.Second},
		Source: "/Volumes/NIKON_1",
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	// Should be indented (contains newlines after opening braces)
	assert.Contains(t, buf.String(), "{\n")
}

func TestJSONFormatter_Format_DryRun(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	report := &Report{
		Files:  []CopiedFile{},
		Stats:  RunStats{Candidates: 3, Duration: time.Second},
		Source: "/Volumes/NIKON_1",
		DryRun: true,
	}

	err := formatter.Format(&buf, report)
	require.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(buf.Bytes(), &parsed)
	require.NoError(t, err)

	meta := parsed["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["dry_run"])
}

func TestJSONFormatter_Registration(t *testing.T) {
	formatter, err := Get("json")
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, formatter)
}
