package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhoriuchi/offload/pkg/offload/logging"
)

// countLogFiles counts the live log file plus its rotated backups.
// The ".log" suffix check keeps the flock sidecar out of the count.
func countLogFiles(t *testing.T, dir, prefix string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}

	count := 0
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".log") {
			count++
		}
	}
	return count
}

func TestRotationBySize(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "test.log")

	cfg := logging.RotationConfig{
		MaxSize: 100, // Tiny size to force rotation
	}

	writer, err := logging.NewRotatingWriter(logPath, cfg)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	// Each write is over half the max size, so the second write rotates.
	line := strings.Repeat("x", 60)
	for i := 0; i < 3; i++ {
		if _, err := writer.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if got := countLogFiles(t, tempDir, "test"); got < 2 {
		t.Errorf("expected at least 2 log files after rotation, got %d", got)
	}

	// The live file must exist and hold only the most recent write.
	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("live log file missing: %v", err)
	}
	if info.Size() > 100 {
		t.Errorf("live log file size = %d, want <= 100", info.Size())
	}
}

func TestRotationMaxBackups(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "test.log")

	cfg := logging.RotationConfig{
		MaxSize:    50,
		MaxBackups: 2,
	}

	writer, err := logging.NewRotatingWriter(logPath, cfg)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	line := strings.Repeat("x", 40)
	for i := 0; i < 6; i++ {
		if _, err := writer.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	// Backups rotated within the same second share a name, so the exact
	// count varies. The cap still holds: live file plus MaxBackups.
	if got := countLogFiles(t, tempDir, "test"); got > cfg.MaxBackups+1 {
		t.Errorf("expected at most %d log files, got %d", cfg.MaxBackups+1, got)
	}
	if got := countLogFiles(t, tempDir, "test"); got < 2 {
		t.Errorf("expected at least one backup to survive cleanup, got %d files", got)
	}
}

func TestWriterCreatesDirectory(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "dir", "test.log")

	writer, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	if _, err := writer.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if string(content) != "hello\n" {
		t.Errorf("log content = %q, want %q", content, "hello\n")
	}
}
