package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mhoriuchi/offload/pkg/offload/cache"
	"github.com/mhoriuchi/offload/pkg/offload/config"
	"github.com/mhoriuchi/offload/pkg/offload/importer"
	"github.com/mhoriuchi/offload/pkg/offload/types"
	"github.com/mhoriuchi/offload/pkg/offload/volume"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the processed-file cache",
	Long: `Commands for managing the processed-file cache.

The cache remembers every file that was copied, keyed by volume identity
and card-relative path, so repeat runs against the same card skip what
was already imported. Cache data is stored in the XDG cache directory
(typically ~/.cache/offload/processed).`,
}

var (
	cacheVolumeID string
	inspectLimit  int
)

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, record count, and size on disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := storePath()

		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("Cache: empty (no store)")
			fmt.Printf("Cache location: %s\n", path)
			return nil
		}

		return withStore(func(store *cache.Store) error {
			count, err := store.Len()
			if err != nil {
				return fmt.Errorf("failed to count records: %w", err)
			}

			var size int64
			_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
				if err == nil && !info.IsDir() {
					size += info.Size()
				}
				return nil
			})

			fmt.Printf("Cache location: %s\n", path)
			fmt.Printf("Records: %d\n", count)
			fmt.Printf("Size on disk: %s\n", types.FormatSize(size))
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached records",
	Long: `Removes cached records. Without --volume the whole store is deleted
and the next run treats every file as new. With --volume only that
volume's records go, for cards that were wiped and reshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheVolumeID != "" {
			return withStore(func(store *cache.Store) error {
				if err := store.DeleteVolume(volume.ID(cacheVolumeID)); err != nil {
					return fmt.Errorf("failed to clear volume records: %w", err)
				}
				fmt.Printf("Cleared records for volume %s.\n", cacheVolumeID)
				return nil
			})
		}

		path := storePath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("Cache is already empty.")
			return nil
		}

		fl, err := importer.AcquireLock(config.DefaultLockPath())
		if err != nil {
			if errors.Is(err, importer.ErrLocked) {
				return fmt.Errorf("another offload run is in progress")
			}
			return err
		}
		defer func() { _ = fl.Unlock() }()

		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("Cache cleared.")
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache store directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(storePath())
	},
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List cached records",
	Long: `Lists cached records with their volume, card-relative path, size, and
when they were recorded. Use --volume to restrict to one card.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *cache.Store) error {
			var prefix []byte
			if cacheVolumeID != "" {
				prefix = cache.VolumePrefix(volume.ID(cacheVolumeID))
			}

			fmt.Printf("%-14s  %-10s  %-25s  %s\n", "VOLUME", "SIZE", "RECORDED", "PATH")

			shown := 0
			truncated := false
			err := store.Visit(prefix, func(key, value []byte) error {
				if inspectLimit > 0 && shown >= inspectLimit {
					truncated = true
					return errStopVisit
				}

				vol, relPath, err := cache.DecodeKey(key)
				if err != nil {
					return nil
				}
				var rec cache.Record
				if err := rec.Decode(value); err != nil {
					return nil
				}

				fmt.Printf("%-14s  %-10s  %-25s  %s\n",
					vol, types.FormatSize(rec.Size), rec.Timestamp, relPath)
				shown++
				return nil
			})
			if err != nil && !errors.Is(err, errStopVisit) {
				return fmt.Errorf("failed to list records: %w", err)
			}

			if shown == 0 {
				fmt.Println("(no records)")
			}
			if truncated {
				fmt.Printf("\nShowing first %d records. Use --limit to see more.\n", shown)
			}
			return nil
		})
	},
}

var errStopVisit = errors.New("stop")

// withStore runs fn against the opened store, holding the run lock so
// the store is never opened while an import is in flight.
func withStore(fn func(*cache.Store) error) error {
	fl, err := importer.AcquireLock(config.DefaultLockPath())
	if err != nil {
		if errors.Is(err, importer.ErrLocked) {
			return fmt.Errorf("another offload run is in progress")
		}
		return err
	}
	defer func() { _ = fl.Unlock() }()

	store, err := cache.Open(storePath())
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	defer func() { _ = store.Close() }()

	return fn(store)
}

func init() {
	cacheClearCmd.Flags().StringVar(&cacheVolumeID, "volume", "", "only clear records for this volume ID")
	cacheInspectCmd.Flags().StringVar(&cacheVolumeID, "volume", "", "only list records for this volume ID")
	cacheInspectCmd.Flags().IntVarP(&inspectLimit, "limit", "n", 50, "maximum number of records to list")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheInspectCmd)
	rootCmd.AddCommand(cacheCmd)
}
