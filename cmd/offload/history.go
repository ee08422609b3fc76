package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhoriuchi/offload/pkg/offload/config"
	"github.com/mhoriuchi/offload/pkg/offload/manifest"
	"github.com/mhoriuchi/offload/pkg/offload/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View import run history",
	Long: `View the history of import runs.

Each run leaves one entry recording which card it imported from, the
date window, and every file it copied.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show details of a specific run",
	Long:  `Display detailed information about a specific import run by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getHistory returns a history reader over the configured directory.
func getHistory() (*manifest.History, error) {
	return manifest.New(historyDir())
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, args []string) error {
	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	entries, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No import runs recorded yet.")
		printInfo("Run 'offload [source]' to import from a card.")
		return nil
	}

	fmt.Printf("\n%-36s  %-16s  %-14s  %-8s  %-10s\n", "RUN ID", "WHEN", "VOLUME", "COPIED", "SIZE")
	fmt.Println(strings.Repeat("-", 94))

	for _, entry := range entries {
		label := entry.Source.VolumeID
		if entry.DryRun {
			label += " (dry)"
		}
		fmt.Printf("%-36s  %-16s  %-14s  %-8d  %-10s\n",
			entry.RunID,
			entry.Timestamp.Local().Format("2006-01-02 15:04"),
			truncateString(label, 14),
			entry.Summary.Copied,
			types.FormatSize(entry.Summary.CopiedBytes),
		)
	}

	fmt.Println(strings.Repeat("-", 94))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'offload history show <run-id>' for details on a specific run.")

	return nil
}

// runHistoryShow displays details of a specific run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	runID := args[0]

	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	entry, err := h.Get(runID)
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nImport Run")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Run ID:     %s\n", entry.RunID)
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Volume:     %s\n", entry.Source.VolumeID)
	fmt.Printf("Mounted at: %s\n", entry.Source.MountPoint)
	fmt.Printf("Window:     %s\n", entry.Window)
	if entry.DryRun {
		fmt.Println("Dry run:    yes")
	}
	fmt.Printf("Candidates: %d\n", entry.Summary.Candidates)
	fmt.Printf("Copied:     %d (%s)\n", entry.Summary.Copied, types.FormatSize(entry.Summary.CopiedBytes))
	fmt.Printf("Skipped:    %d cached, %d outside window, %d no capture time\n",
		entry.Summary.CacheHits, entry.Summary.WindowSkips, entry.Summary.NoCaptureTime)
	if entry.Summary.Errors > 0 {
		fmt.Printf("Errors:     %d\n", entry.Summary.Errors)
	}

	if len(entry.Files) > 0 {
		fmt.Println("\nFiles:")
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("%-10s  %-5s  %s\n", "SIZE", "KIND", "TARGET")
		fmt.Println(strings.Repeat("-", 60))

		limit := 50
		if len(entry.Files) < limit {
			limit = len(entry.Files)
		}

		for i := 0; i < limit; i++ {
			file := entry.Files[i]
			fmt.Printf("%-10s  %-5s  %s\n", types.FormatSize(file.Size), file.Kind, file.Target)
		}

		if len(entry.Files) > limit {
			fmt.Printf("\n... and %d more files\n", len(entry.Files)-limit)
		}
	}

	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	retentionDays := viper.GetInt("history.retention_days")
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	if err := h.Prune(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete.")
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
