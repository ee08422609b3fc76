package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhoriuchi/offload/pkg/offload/cache"
	"github.com/mhoriuchi/offload/pkg/offload/config"
	"github.com/mhoriuchi/offload/pkg/offload/importer"
	"github.com/mhoriuchi/offload/pkg/offload/logging"
	"github.com/mhoriuchi/offload/pkg/offload/manifest"
	"github.com/mhoriuchi/offload/pkg/offload/output"
	"github.com/mhoriuchi/offload/pkg/offload/types"
	"github.com/mhoriuchi/offload/pkg/offload/volume"
)

// runImport is the main import command handler.
func runImport(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("source path is required (e.g. offload /Volumes/NIKON_Z8)")
	}

	sourcePath, err := config.ExpandPath(args[0])
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}
	absSource, err := filepath.Abs(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absSource)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("source does not exist: %s", absSource)
		}
		return fmt.Errorf("cannot access source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source is not a directory: %s", absSource)
	}

	library := viper.GetString("library")
	if library == "" {
		return fmt.Errorf("library is required (set library in the config file or pass --library)")
	}
	library, err = config.ExpandPath(library)
	if err != nil {
		return fmt.Errorf("failed to expand library path: %w", err)
	}

	rawLibrary := viper.GetString("raw_library")
	if rawLibrary != "" {
		rawLibrary, err = config.ExpandPath(rawLibrary)
		if err != nil {
			return fmt.Errorf("failed to expand raw library path: %w", err)
		}
	}

	window, err := types.ParseWindow(viper.GetString("from_date"), viper.GetString("to_date"))
	if err != nil {
		return err
	}

	formatter, err := pickFormatter()
	if err != nil {
		return err
	}

	if err := initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Close()

	// One offload process at a time. The lock is taken before the
	// store opens so a second invocation can never trip the store's
	// recovery path while the first one is using it.
	fl, err := importer.AcquireLock(config.DefaultLockPath())
	if err != nil {
		if errors.Is(err, importer.ErrLocked) {
			return fmt.Errorf("another offload run is already in progress")
		}
		return err
	}
	defer func() { _ = fl.Unlock() }()

	processedCache, closeStore, cacheWarning := openCache()
	defer closeStore()

	history := openHistory()

	imp, err := importer.New(importer.Options{
		Source:     absSource,
		Library:    library,
		RAWLibrary: rawLibrary,
		Window:     window,
		Exclude:    viper.GetStringSlice("exclude"),
		Workers:    viper.GetInt("workers"),
		DryRun:     viper.GetBool("dry_run"),
		Cache:      processedCache,
		History:    history,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, finishing up...")
		cancel()
	}()

	printReport := func(res *importer.Result) {
		if cacheWarning != "" {
			res.Warnings = append([]string{cacheWarning}, res.Warnings...)
		}
		var buf bytes.Buffer
		if err := formatter.Format(&buf, res.Report()); err != nil {
			printError("failed to format output: %v", err)
			return
		}
		fmt.Print(buf.String())
	}

	if viper.GetBool("watch_mode") {
		settle := time.Duration(viper.GetInt("watch.settle_ms")) * time.Millisecond
		err = imp.Watch(ctx, settle, printReport)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watch failed: %w", err)
		}
	} else {
		res, err := imp.Run(ctx)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		printReport(res)
	}

	pruneHistory(history)
	return nil
}

// pickFormatter resolves the output format flag to a formatter.
func pickFormatter() (output.Formatter, error) {
	name := viper.GetString("output")
	if name == "" {
		name = "pretty"
	}
	formatter, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", name, output.Available())
	}
	return formatter, nil
}

// initLogging configures the log file from viper settings. Console
// logging follows the quiet and verbose flags.
func initLogging() error {
	consoleLevel := "warn"
	if getQuiet() {
		consoleLevel = ""
	} else if getVerbose() {
		consoleLevel = "debug"
	}

	logPath := viper.GetString("logging.path")
	if logPath != "" {
		expanded, err := config.ExpandPath(logPath)
		if err != nil {
			return err
		}
		logPath = expanded
	}

	rotation := parseRotationConfig(config.RotationConfig{
		MaxSize:    viper.GetString("logging.rotation.max_size"),
		MaxAge:     viper.GetInt("logging.rotation.max_age"),
		MaxBackups: viper.GetInt("logging.rotation.max_backups"),
		Daily:      viper.GetBool("logging.rotation.daily"),
	})

	return logging.Init(logging.Config{
		Level:        viper.GetString("logging.level"),
		Path:         logPath,
		Rotation:     rotation,
		Components:   viper.GetStringMapString("logging.components"),
		ConsoleLevel: consoleLevel,
	})
}

// parseRotationConfig converts the config rotation block, whose sizes
// are human strings, into the logging package's form. An empty or
// unparseable max_size falls back to the default instead of failing.
func parseRotationConfig(cfg config.RotationConfig) logging.RotationConfig {
	maxSize := logging.DefaultRotationConfig().MaxSize
	if cfg.MaxSize != "" {
		if parsed, err := humanize.ParseBytes(cfg.MaxSize); err == nil {
			maxSize = int64(parsed)
		}
	}

	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Daily:      cfg.Daily,
	}
}

// storePath resolves the cache store location.
func storePath() string {
	if p := viper.GetString("cache.path"); p != "" {
		if expanded, err := config.ExpandPath(p); err == nil {
			return expanded
		}
	}
	return config.DefaultStorePath()
}

// openCache opens the processed-file cache unless --no-cache was given.
// Store trouble degrades to a cacheless run with a report warning
// instead of failing the import.
func openCache() (*cache.Cache, func(), string) {
	if viper.GetBool("no_cache") {
		printVerbose("Cache disabled by --no-cache")
		return nil, func() {}, ""
	}

	mode, err := cache.ParseMode(viper.GetString("cache.eval_mode"))
	if err != nil {
		printError("%v, using %s", err, config.DefaultEvalMode)
		mode, _ = cache.ParseMode(config.DefaultEvalMode)
	}

	store, err := cache.Open(storePath())
	if err != nil {
		logging.Get("cache").Error("store unavailable", "error", err)
		return nil, func() {}, "cache unavailable, every file will be treated as new: " + err.Error()
	}

	return cache.New(store, volume.SystemResolver{}, mode), func() { _ = store.Close() }, ""
}

// historyDir resolves the run history location.
func historyDir() string {
	if p := viper.GetString("history.path"); p != "" {
		if expanded, err := config.ExpandPath(p); err == nil {
			return expanded
		}
	}
	return config.DefaultHistoryDir()
}

// openHistory builds the run history writer, or nil when disabled.
func openHistory() *manifest.History {
	if !viper.GetBool("history.enabled") {
		return nil
	}
	history, err := manifest.New(historyDir())
	if err != nil {
		printVerbose("History disabled: %v", err)
		return nil
	}
	return history
}

// pruneHistory drops entries past the retention period.
func pruneHistory(history *manifest.History) {
	if history == nil {
		return
	}
	retention := viper.GetInt("history.retention_days")
	if retention <= 0 {
		return
	}
	if err := history.Prune(retention); err != nil {
		printVerbose("History prune failed: %v", err)
	}
}
