package cache

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/mhoriuchi/offload/pkg/offload/logging"
	"github.com/mhoriuchi/offload/pkg/offload/volume"
)

// ErrNotFound is returned when no record exists for a key.
var ErrNotFound = errors.New("cache record not found")

// ErrCorruptRecord is returned when a stored value cannot be decoded.
// Callers treat the record as absent; the next Put overwrites it.
var ErrCorruptRecord = errors.New("cache record corrupt")

// ErrUnavailable is returned while the store is degraded: the engine
// faulted and recreation failed. Callers treat lookups as misses and
// drop writes; the store quietly retries a reopen on later operations.
var ErrUnavailable = errors.New("cache store unavailable")

// Store wraps Badger for processed-file records. Reads run concurrently;
// writes serialize through a single writer. Engine faults never
// propagate as such: an operation that fails recreates the store and
// retries once, then the store degrades to ErrUnavailable.
type Store struct {
	path string

	mu       sync.Mutex // guards db, degraded, closed
	db       *badger.DB
	degraded bool
	closed   bool

	writeMu sync.Mutex // single-writer discipline for mutations
}

// Open opens or creates the processed-file store at path. An unreadable
// store is discarded and recreated once: an empty cache only costs
// re-copies, while refusing to start would block the importer.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	db, err := openBadger(path)
	if err != nil {
		logging.Get("cache").Warn("store unreadable, discarding and recreating",
			"path", path, "error", err)
		db, err = recreate(path)
		if err != nil {
			return nil, fmt.Errorf("recreate cache store: %w", err)
		}
	}

	s.db = db
	return s, nil
}

// openBadger opens the engine with its own logging disabled; store
// conditions worth reporting are logged here with context.
func openBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	return badger.Open(opts)
}

// recreate destroys the store directory and opens a fresh, empty engine.
func recreate(path string) (*badger.DB, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove %s: %w", path, err)
	}
	return openBadger(path)
}

// Path returns the store directory.
func (s *Store) Path() string {
	return s.path
}

// Close closes the store. Safe to call on a degraded store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// handle returns the live engine. A degraded store makes one quiet
// reopen attempt per call and resumes on success.
func (s *Store) handle() (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrUnavailable
	}
	if s.db != nil {
		return s.db, nil
	}

	db, err := openBadger(s.path)
	if err != nil {
		return nil, ErrUnavailable
	}

	s.db = db
	if s.degraded {
		s.degraded = false
		logging.Get("cache").Warn("store reopened after fault, resuming", "path", s.path)
	}
	return db, nil
}

// recoverFrom handles an engine-level failure: close the handle, destroy
// the directory, reopen fresh. The caller retries its operation once on
// the returned engine.
func (s *Store) recoverFrom(op string, cause error) (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrUnavailable
	}

	// Another operation may have recovered while this one waited.
	if s.db != nil && errors.Is(cause, badger.ErrDBClosed) {
		return s.db, nil
	}

	logging.Get("cache").Warn("store fault, discarding and recreating",
		"op", op, "path", s.path, "error", cause)

	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	db, err := recreate(s.path)
	if err != nil {
		return nil, s.degradeLocked(err)
	}

	s.db = db
	return db, nil
}

// degrade marks the store unavailable after recovery failed.
func (s *Store) degrade(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degradeLocked(cause)
}

// degradeLocked must be called with mu held. The warning fires once per
// fault, not once per file; later operations fail quietly until a reopen
// succeeds.
func (s *Store) degradeLocked(cause error) error {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	if !s.degraded {
		s.degraded = true
		logging.Get("cache").Warn("store unavailable, continuing without cache",
			"path", s.path, "error", cause)
	}
	return ErrUnavailable
}

// recordOutcome reports whether err is a per-record outcome rather than
// an engine fault. Absent and corrupt records are successful engine
// operations.
func recordOutcome(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorruptRecord)
}

// Get retrieves the record for a key. Absent records return ErrNotFound
// and undecodable values return ErrCorruptRecord; both leave the store
// healthy. Engine faults recreate the store and retry once, after which
// the store degrades.
func (s *Store) Get(key []byte) (*Record, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	rec, err := getRecord(db, key)
	if recordOutcome(err) {
		return rec, err
	}

	db, rerr := s.recoverFrom("get", err)
	if rerr != nil {
		return nil, rerr
	}

	rec, err = getRecord(db, key)
	if recordOutcome(err) {
		return rec, err
	}
	return nil, s.degrade(err)
}

// Put upserts the record for a key. Writes are serialized; overwriting
// an existing record is routine (reprocessed files refresh their
// records). Engine faults follow the same recreate-retry-degrade path
// as Get.
func (s *Store) Put(key []byte, rec *Record) error {
	value, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	db, err := s.handle()
	if err != nil {
		return err
	}

	if err := putValue(db, key, value); err == nil {
		return nil
	} else if db, err = s.recoverFrom("put", err); err != nil {
		return err
	}

	if err := putValue(db, key, value); err != nil {
		return s.degrade(err)
	}
	return nil
}

// getRecord runs the read transaction against a specific engine handle.
func getRecord(db *badger.DB, key []byte) (*Record, error) {
	var rec Record

	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if derr := rec.Decode(val); derr != nil {
				return fmt.Errorf("%w: %v", ErrCorruptRecord, derr)
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// putValue runs the write transaction against a specific engine handle.
func putValue(db *badger.DB, key, value []byte) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Len returns the number of records in the store.
func (s *Store) Len() (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return count, nil
}

// Visit calls fn for every (key, value) pair whose key starts with
// prefix, in key order. A nil prefix visits everything. Inspection only;
// an error from fn stops the walk.
func (s *Store) Visit(prefix []byte, fn func(key, value []byte) error) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteVolume removes every record belonging to a volume, for cards
// that were wiped and reshot.
func (s *Store) DeleteVolume(vol volume.ID) error {
	prefix := VolumePrefix(vol)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	db, err := s.handle()
	if err != nil {
		return err
	}

	return db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}
