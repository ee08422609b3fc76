package cache

import (
	"errors"
	"time"

	"github.com/mhoriuchi/offload/pkg/offload/logging"
	"github.com/mhoriuchi/offload/pkg/offload/volume"
)

// Cache answers the one question the importer asks per candidate: has
// this exact file already been processed? It ties together the volume
// resolver, key codec, evaluation policy, and store, and absorbs every
// store-level failure into a Miss, so broken cache state can only cost
// duplicate copies, never block an import.
type Cache struct {
	store    *Store
	resolver volume.Resolver
	mode     Mode
}

// New assembles a Cache over an open store. The resolver supplies
// volume identity for key construction; mode fixes how Hit is judged
// for the lifetime of this Cache.
func New(store *Store, resolver volume.Resolver, mode Mode) *Cache {
	return &Cache{store: store, resolver: resolver, mode: mode}
}

// Mode returns the evaluation mode the Cache was built with.
func (c *Cache) Mode() Mode {
	return c.mode
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// keyFor builds the cache key for path: volume identity plus
// volume-relative path. Every failure here means the file's identity
// cannot be established, reported as a *volume.LookupError the caller
// handles per file.
func (c *Cache) keyFor(path string) ([]byte, error) {
	canonical, err := volume.Canonicalize(path)
	if err != nil {
		return nil, &volume.LookupError{Path: path, Err: err}
	}

	info, err := c.resolver.Resolve(canonical)
	if err != nil {
		return nil, err
	}

	rel, err := info.Rel(canonical)
	if err != nil {
		return nil, &volume.LookupError{Path: path, Err: err}
	}

	return EncodeKey(info.ID, rel), nil
}

// ShouldProcess reports whether path needs processing. Hit means a
// stored record matches the candidate under the configured mode. The
// only error returned is *volume.LookupError, meaning the file's
// identity could not be established and the caller should skip it; all
// store trouble (absent, corrupt, unavailable) comes back as a plain
// Miss.
func (c *Cache) ShouldProcess(path string, meta Canonical) (Decision, error) {
	key, err := c.keyFor(path)
	if err != nil {
		return Miss, err
	}

	rec, err := c.store.Get(key)
	switch {
	case err == nil:
	case errors.Is(err, ErrCorruptRecord):
		logging.Get("cache").Warn("corrupt record, treating as unprocessed", "path", path)
		return Miss, nil
	default:
		// ErrNotFound is the ordinary first encounter; ErrUnavailable
		// already logged its fault at the store level.
		return Miss, nil
	}

	d := Decide(c.mode, meta, rec)
	if d == Hit {
		logging.Get("cache").Info("skip: already processed",
			"path", path, "processed_at", rec.Timestamp)
	}
	return d, nil
}

// RecordProcessed stores the record for a file that was just processed,
// overwriting any previous record. An unavailable store drops the write
// and returns nil: the cost is one re-copy next run. Volume identity
// failures surface as *volume.LookupError.
func (c *Cache) RecordProcessed(path string, meta Canonical) error {
	key, err := c.keyFor(path)
	if err != nil {
		return err
	}

	if err := c.store.Put(key, NewRecord(meta, time.Now())); err != nil {
		if errors.Is(err, ErrUnavailable) {
			logging.Get("cache").Debug("record dropped, store unavailable", "path", path)
			return nil
		}
		return err
	}
	return nil
}
