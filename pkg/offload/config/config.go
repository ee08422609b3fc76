package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// CacheConfig configures the processed-file cache.
type CacheConfig struct {
	Path     string `mapstructure:"path"`      // Store directory (auto-discovered if empty)
	EvalMode string `mapstructure:"eval_mode"` // shallow or strict
}

// Config represents the application configuration.
type Config struct {
	Library    string      `mapstructure:"library"`
	RAWLibrary string      `mapstructure:"raw_library"`
	Exclude    []string    `mapstructure:"exclude"`
	Workers    int         `mapstructure:"workers"`
	Cache      CacheConfig `mapstructure:"cache"`
	History    struct {
		Enabled       bool   `mapstructure:"enabled"`
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"history"`
	Watch struct {
		SettleMs int `mapstructure:"settle_ms"`
	} `mapstructure:"watch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/offload/config.yaml
//   - $HOME/.config/offload/config.yaml
//
// Environment variables are prefixed with OFFLOAD_ (e.g., OFFLOAD_LIBRARY).
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "offload"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "offload"))

	// Set environment variable prefix and enable auto env binding
	v.SetEnvPrefix("OFFLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("library", "")
	v.SetDefault("raw_library", "")
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("cache.path", "") // Empty means use DefaultStorePath
	v.SetDefault("cache.eval_mode", DefaultEvalMode)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "") // Empty means use DefaultHistoryDir
	v.SetDefault("history.retention_days", DefaultRetentionDays)
	v.SetDefault("watch.settle_ms", DefaultSettleMs)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"importer": "info",
		"cache":    "info",
		"scanner":  "info",
		"watcher":  "warn",
	})

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in configured paths
	for _, p := range []*string{&cfg.Library, &cfg.RAWLibrary, &cfg.Cache.Path, &cfg.History.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	return &cfg, nil
}

// StorePath returns the cache store directory, falling back to the
// default when none is configured.
func (c *Config) StorePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return DefaultStorePath()
}

// HistoryDir returns the run-history directory, falling back to the
// default when none is configured.
func (c *Config) HistoryDir() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return DefaultHistoryDir()
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	// Check XDG_CONFIG_HOME first
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "offload"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "offload"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config file already exists
	if _, err := os.Stat(configPath); err == nil {
		// Config file exists, do nothing
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Offload Configuration

# Library root the importer copies photos into, laid out as YYYY/YYYYMMDD.
# Must be set here or with --library before running an import.
library: ""

# Separate root for raw files. Empty routes raw files into the main library.
raw_library: ""

# Card directories to exclude from scans (glob patterns, matched against
# card-relative paths).
exclude:
  - MISC

# Worker count for the copy pool. 0 sizes the pool from the machine.
workers: %d

# Processed-file cache
cache:
  # Store directory (empty means use default: $XDG_CACHE_HOME/offload/processed)
  path: ""
  # Record comparison mode: shallow (mtime and size) or strict (adds EXIF identity)
  eval_mode: %s

# Run history
history:
  enabled: true
  # History directory (empty means use default: $XDG_DATA_HOME/offload/history)
  path: ""
  retention_days: %d

# Watch mode
watch:
  # How long a card must stay quiet before an import starts, in milliseconds
  settle_ms: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/offload/offload.log)
  path: ""
  # Log rotation settings
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    importer: info
    cache: info
    scanner: info
    watcher: warn
`, DefaultWorkers, DefaultEvalMode, DefaultRetentionDays, DefaultSettleMs)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/offload/ for history and lock files.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "offload")
}

// StateDir returns $XDG_STATE_HOME/offload/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "offload")
}

// CacheDir returns $XDG_CACHE_HOME/offload/ for the processed-file store.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "offload")
}

// DefaultStorePath returns the default cache store directory.
func DefaultStorePath() string {
	return filepath.Join(CacheDir(), "processed")
}

// DefaultHistoryDir returns the default run-history directory.
func DefaultHistoryDir() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "offload.log")
}

// DefaultLockPath returns the path of the lock file that keeps concurrent
// imports from running against the same store.
func DefaultLockPath() string {
	return filepath.Join(DataDir(), "offload.lock")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}
