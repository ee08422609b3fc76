package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhoriuchi/offload/pkg/offload/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "offload [source]",
		Short: "Copy new photos from camera cards into a dated library",
		Long: `Offload copies photos from a camera card into a library laid out by
capture date, and remembers what it already copied. Re-running against
the same card only copies what is new.

Examples:
  offload /Volumes/NIKON_Z8              # Import everything new
  offload -f 2024-05-01 /Volumes/CARD    # Only captures from May 1st on
  offload -d /Volumes/CARD               # Preview without copying
  offload --watch /Volumes/CARD          # Keep importing as files appear
  offload cache stats                    # Inspect the processed-file cache
  offload history                        # View past import runs`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/offload/config.yaml)")

	rootCmd.Flags().StringP("library", "l", "", "library root the files are copied into")
	rootCmd.Flags().String("raw-library", "", "separate root for raw files")
	rootCmd.Flags().StringP("from-date", "f", "", "only import captures on or after this date (YYYY-MM-DD)")
	rootCmd.Flags().StringP("to-date", "t", "", "only import captures before this date (YYYY-MM-DD)")
	rootCmd.Flags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.Flags().IntP("workers", "w", 0, "override worker count (0=auto)")
	rootCmd.Flags().BoolP("dry-run", "d", false, "show what would be copied without copying")
	rootCmd.Flags().Bool("no-cache", false, "ignore the processed-file cache for this run")
	rootCmd.Flags().String("eval-mode", "", "cache evaluation mode (shallow or strict)")
	rootCmd.Flags().Bool("watch", false, "keep watching the card and import as files appear")
	rootCmd.Flags().StringP("output", "o", "", "output format (pretty, plain, json, yaml)")
	rootCmd.Flags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.Flags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("library", rootCmd.Flags().Lookup("library"))
	_ = viper.BindPFlag("raw_library", rootCmd.Flags().Lookup("raw-library"))
	_ = viper.BindPFlag("from_date", rootCmd.Flags().Lookup("from-date"))
	_ = viper.BindPFlag("to_date", rootCmd.Flags().Lookup("to-date"))
	_ = viper.BindPFlag("exclude", rootCmd.Flags().Lookup("exclude"))
	_ = viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("dry_run", rootCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("no_cache", rootCmd.Flags().Lookup("no-cache"))
	_ = viper.BindPFlag("cache.eval_mode", rootCmd.Flags().Lookup("eval-mode"))
	_ = viper.BindPFlag("watch_mode", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "offload"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "offload"))
		}
	}

	viper.SetEnvPrefix("OFFLOAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("library", "")
	viper.SetDefault("raw_library", "")
	viper.SetDefault("exclude", config.DefaultExclusions)
	viper.SetDefault("workers", config.DefaultWorkers)
	viper.SetDefault("output", "pretty")
	viper.SetDefault("cache.path", "")
	viper.SetDefault("cache.eval_mode", config.DefaultEvalMode)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", "")
	viper.SetDefault("history.retention_days", config.DefaultRetentionDays)
	viper.SetDefault("watch.settle_ms", config.DefaultSettleMs)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.path", "")
	viper.SetDefault("logging.rotation.max_size", "10MB")
	viper.SetDefault("logging.rotation.max_age", 30)
	viper.SetDefault("logging.rotation.max_backups", 5)
	viper.SetDefault("logging.rotation.daily", true)

	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
