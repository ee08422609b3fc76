package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Use a temp directory that doesn't have a config file
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Library != "" {
		t.Errorf("Library = %q, want empty", cfg.Library)
	}

	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}

	if cfg.Cache.EvalMode != DefaultEvalMode {
		t.Errorf("Cache.EvalMode = %q, want %q", cfg.Cache.EvalMode, DefaultEvalMode)
	}

	if cfg.Cache.Path != "" {
		t.Errorf("Cache.Path = %q, want empty", cfg.Cache.Path)
	}

	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}

	if cfg.History.RetentionDays != DefaultRetentionDays {
		t.Errorf("History.RetentionDays = %d, want %d", cfg.History.RetentionDays, DefaultRetentionDays)
	}

	if cfg.Watch.SettleMs != DefaultSettleMs {
		t.Errorf("Watch.SettleMs = %d, want %d", cfg.Watch.SettleMs, DefaultSettleMs)
	}

	if len(cfg.Exclude) != len(DefaultExclusions) {
		t.Errorf("len(Exclude) = %d, want %d", len(cfg.Exclude), len(DefaultExclusions))
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}

	if cfg.Logging.Rotation.MaxSize != "10MB" {
		t.Errorf("Logging.Rotation.MaxSize = %q, want %q", cfg.Logging.Rotation.MaxSize, "10MB")
	}
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".config", "offload")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
library: /photos
raw_library: /photos/raw
exclude:
  - PRIVATE/**
  - "*.tmp"
workers: 6
cache:
  path: /var/cache/offload
  eval_mode: strict
history:
  enabled: false
  retention_days: 14
watch:
  settle_ms: 500
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Library != "/photos" {
		t.Errorf("Library = %q, want %q", cfg.Library, "/photos")
	}

	if cfg.RAWLibrary != "/photos/raw" {
		t.Errorf("RAWLibrary = %q, want %q", cfg.RAWLibrary, "/photos/raw")
	}

	if len(cfg.Exclude) != 2 {
		t.Errorf("len(Exclude) = %d, want %d", len(cfg.Exclude), 2)
	}

	if cfg.Workers != 6 {
		t.Errorf("Workers = %d, want %d", cfg.Workers, 6)
	}

	if cfg.Cache.Path != "/var/cache/offload" {
		t.Errorf("Cache.Path = %q, want %q", cfg.Cache.Path, "/var/cache/offload")
	}

	if cfg.Cache.EvalMode != "strict" {
		t.Errorf("Cache.EvalMode = %q, want %q", cfg.Cache.EvalMode, "strict")
	}

	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}

	if cfg.History.RetentionDays != 14 {
		t.Errorf("History.RetentionDays = %d, want %d", cfg.History.RetentionDays, 14)
	}

	if cfg.Watch.SettleMs != 500 {
		t.Errorf("Watch.SettleMs = %d, want %d", cfg.Watch.SettleMs, 500)
	}
}

func TestLoad_XDGConfigHome(t *testing.T) {
	tempDir := t.TempDir()
	xdgConfigDir := filepath.Join(tempDir, "xdg-config", "offload")
	if err := os.MkdirAll(xdgConfigDir, 0o755); err != nil {
		t.Fatalf("failed to create XDG config dir: %v", err)
	}

	configContent := `library: /mnt/photos`
	configPath := filepath.Join(xdgConfigDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempDir, "xdg-config"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Library != "/mnt/photos" {
		t.Errorf("Library = %q, want %q", cfg.Library, "/mnt/photos")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("OFFLOAD_LIBRARY", "/srv/photos")
	t.Setenv("OFFLOAD_CACHE_EVAL_MODE", "strict")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Library != "/srv/photos" {
		t.Errorf("Library = %q, want %q", cfg.Library, "/srv/photos")
	}

	if cfg.Cache.EvalMode != "strict" {
		t.Errorf("Cache.EvalMode = %q, want %q", cfg.Cache.EvalMode, "strict")
	}
}

func TestLoad_ExpandsTilde(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".config", "offload")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
library: ~/Pictures/offload
raw_library: ~/Pictures/raw
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantLibrary := filepath.Join(tempDir, "Pictures", "offload")
	if cfg.Library != wantLibrary {
		t.Errorf("Library = %q, want %q", cfg.Library, wantLibrary)
	}

	wantRAW := filepath.Join(tempDir, "Pictures", "raw")
	if cfg.RAWLibrary != wantRAW {
		t.Errorf("RAWLibrary = %q, want %q", cfg.RAWLibrary, wantRAW)
	}
}

func TestStorePath(t *testing.T) {
	var cfg Config

	cfg.Cache.Path = "/custom/store"
	if got := cfg.StorePath(); got != "/custom/store" {
		t.Errorf("StorePath() = %q, want %q", got, "/custom/store")
	}

	cfg.Cache.Path = ""
	if got := cfg.StorePath(); got != DefaultStorePath() {
		t.Errorf("StorePath() = %q, want %q", got, DefaultStorePath())
	}
}

func TestHistoryDir(t *testing.T) {
	var cfg Config

	cfg.History.Path = "/custom/history"
	if got := cfg.HistoryDir(); got != "/custom/history" {
		t.Errorf("HistoryDir() = %q, want %q", got, "/custom/history")
	}

	cfg.History.Path = ""
	if got := cfg.HistoryDir(); got != DefaultHistoryDir() {
		t.Errorf("HistoryDir() = %q, want %q", got, DefaultHistoryDir())
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}

		expected := "/custom/config/offload"
		if dir != expected {
			t.Errorf("ConfigDir() = %q, want %q", dir, expected)
		}
	})

	t.Run("uses HOME/.config when XDG_CONFIG_HOME not set", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Setenv("HOME", tempDir)
		t.Setenv("XDG_CONFIG_HOME", "")

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}

		expected := filepath.Join(tempDir, ".config", "offload")
		if dir != expected {
			t.Errorf("ConfigDir() = %q, want %q", dir, expected)
		}
	})
}

func TestEnsureConfigDir(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}

	expectedDir := filepath.Join(tempDir, ".config", "offload")
	info, err := os.Stat(expectedDir)
	if err != nil {
		t.Fatalf("os.Stat(%q) error = %v", expectedDir, err)
	}

	if !info.IsDir() {
		t.Errorf("%q is not a directory", expectedDir)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Run("creates default config file", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Setenv("HOME", tempDir)
		t.Setenv("XDG_CONFIG_HOME", "")

		if err := WriteDefault(); err != nil {
			t.Fatalf("WriteDefault() error = %v", err)
		}

		configPath := filepath.Join(tempDir, ".config", "offload", "config.yaml")
		content, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatalf("config file not created: %v", err)
		}

		if len(content) == 0 {
			t.Error("config file is empty")
		}

		// The starter file must parse back with the shipped defaults
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Cache.EvalMode != DefaultEvalMode {
			t.Errorf("Cache.EvalMode = %q, want %q", cfg.Cache.EvalMode, DefaultEvalMode)
		}
		if cfg.History.RetentionDays != DefaultRetentionDays {
			t.Errorf("History.RetentionDays = %d, want %d", cfg.History.RetentionDays, DefaultRetentionDays)
		}
	})

	t.Run("does not overwrite existing config", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Setenv("HOME", tempDir)
		t.Setenv("XDG_CONFIG_HOME", "")

		configDir := filepath.Join(tempDir, ".config", "offload")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			t.Fatalf("failed to create config dir: %v", err)
		}

		configPath := filepath.Join(configDir, "config.yaml")
		existingContent := "# existing config\nlibrary: /photos"
		if err := os.WriteFile(configPath, []byte(existingContent), 0o644); err != nil {
			t.Fatalf("failed to write existing config: %v", err)
		}

		if err := WriteDefault(); err != nil {
			t.Fatalf("WriteDefault() error = %v", err)
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatalf("failed to read config file: %v", err)
		}

		if string(content) != existingContent {
			t.Errorf("config file was overwritten: got %q, want %q", string(content), existingContent)
		}
	})
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get home dir: %v", err)
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "expands tilde",
			input: "~/Pictures/offload",
			want:  filepath.Join(homeDir, "Pictures/offload"),
		},
		{
			name:  "leaves absolute path unchanged",
			input: "/srv/photos",
			want:  "/srv/photos",
		},
		{
			name:  "leaves relative path unchanged",
			input: "photos",
			want:  "photos",
		},
		{
			name:  "leaves empty path unchanged",
			input: "",
			want:  "",
		},
		{
			name:  "handles tilde only",
			input: "~",
			want:  homeDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ExpandPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
