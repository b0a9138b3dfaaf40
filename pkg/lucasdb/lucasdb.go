// Package lucasdb is the public entry point for the embeddable key/value
// storage engine: an append-only, Bitcask-family store combining an
// in-memory ordered index with on-disk log segments for durability.
package lucasdb

import (
	"go.uber.org/zap"

	"github.com/iamNilotpal/lucasdb/internal/batch"
	"github.com/iamNilotpal/lucasdb/internal/engine"
	"github.com/iamNilotpal/lucasdb/internal/iterator"
	"github.com/iamNilotpal/lucasdb/pkg/logger"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

// DB is a single, exclusively-locked lucasdb instance rooted at one
// directory. The zero value is not usable; construct one with Open.
type DB struct {
	eng *engine.Engine
}

// Open validates and applies opts, recovers (or initializes) the directory
// they name, and returns a DB ready for use. service names the logger
// attaches to every log line this instance emits.
func Open(service string, opts ...options.OptionFunc) (*DB, error) {
	return OpenWithLogger(service, logger.Production, opts...)
}

// OpenWithLogger is Open with an explicit logger mode, primarily for tests
// that want Development's human-readable console output.
func OpenWithLogger(service string, mode logger.Mode, opts ...options.OptionFunc) (*DB, error) {
	log, err := logger.New(service, mode)
	if err != nil {
		return nil, err
	}
	return open(log, opts...)
}

func open(log *zap.SugaredLogger, opts ...options.OptionFunc) (*DB, error) {
	cfg := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	eng, err := engine.Open(engine.Config{Options: cfg, Logger: log})
	if err != nil {
		return nil, err
	}
	return &DB{eng: eng}, nil
}

// Put stores value under key, overwriting any existing value.
func (db *DB) Put(key, value []byte) error { return db.eng.Put(key, value) }

// Get returns the value currently stored under key.
func (db *DB) Get(key []byte) ([]byte, error) { return db.eng.Get(key) }

// Delete removes key. Deleting an absent key is a no-op.
func (db *DB) Delete(key []byte) error { return db.eng.Delete(key) }

// ListKeys returns every live key in ascending order.
func (db *DB) ListKeys() [][]byte { return db.eng.ListKeys() }

// NewBatch starts an atomic multi-key transaction.
func (db *DB) NewBatch(opts ...options.BatchOptionFunc) *batch.Batch {
	cfg := options.NewDefaultBatchOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return db.eng.NewBatch(cfg)
}

// Iterator constructs a key-ordered cursor over live keys.
func (db *DB) Iterator(opts options.IteratorOptions) *iterator.Iterator {
	return db.eng.Iterator(opts)
}

// Merge compacts sealed data files, dropping dead records.
func (db *DB) Merge() error { return db.eng.Merge() }

// Sync flushes the active file's unsynced bytes to stable storage.
func (db *DB) Sync() error { return db.eng.Sync() }

// Stat reports the engine's current size and reclaim profile.
func (db *DB) Stat() (engine.Stat, error) { return db.eng.Stat() }

// Close flushes a sequence checkpoint, closes every open file, and releases
// the directory lock. Close is idempotent.
func (db *DB) Close() error { return db.eng.Close() }
