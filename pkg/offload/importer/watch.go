package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mhoriuchi/offload/pkg/offload/logging"
	"github.com/mhoriuchi/offload/pkg/offload/scanner"
)

// Watch runs an initial import, then keeps watching the source tree and
// re-imports each time the card settles after new files appear. Events
// arriving inside the settle window push the import out; cameras write
// bursts, and importing mid-burst would copy half a shoot.
//
// The watches are established before the initial import, so files that
// land while it runs are not missed. onRun receives every completed
// run, the initial one included. Watch returns when ctx is cancelled.
func (imp *Importer) Watch(ctx context.Context, settle time.Duration, onRun func(*Result)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer fsw.Close()

	log := logging.Get("watcher")

	watched := make(map[string]bool)
	addTree(log, fsw, watched, imp.opts.Source)
	if len(watched) == 0 {
		return fmt.Errorf("cannot watch %s", imp.opts.Source)
	}

	res, err := imp.Run(ctx)
	if err != nil {
		return err
	}
	if onRun != nil {
		onRun(res)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	log.Info("watching for new files",
		"source", imp.opts.Source,
		"dirs", len(watched),
		"settle", settle)

	// A nil timer channel blocks forever, so the settle case only
	// fires while a timer is armed.
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if st, err := os.Lstat(event.Name); err == nil && st.IsDir() {
					addTree(log, fsw, watched, event.Name)
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(settle)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(settle)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			log.Info("card settled, importing")
			res, err := imp.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error("import failed", "error", err)
				continue
			}
			if onRun != nil {
				onRun(res)
			}
		}
	}
}

// addTree watches root and every directory below it, skipping shadow
// directories and symlinks. Paths already in watched are left alone.
func addTree(log *logging.Logger, fsw *fsnotify.Watcher, watched map[string]bool, root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if path != root && scanner.IsShadow(d.Name()) {
			return filepath.SkipDir
		}
		if watched[path] {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			log.Warn("failed to add watch", "path", path, "error", err)
			return nil
		}
		watched[path] = true
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		log.Warn("watch walk failed", "root", root, "error", err)
	}
}
