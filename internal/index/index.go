// Package index implements the in-memory, concurrent, ordered key→position
// map at the heart of the Bitcask architecture: every live key's most
// recent on-disk location lives here, rebuilt at Open from the data files
// (and hint file) and kept current by every Put/Delete.
//
// Two interchangeable implementations share the Indexer contract: a
// read-write-locked balanced tree (Balanced) and a lock-free concurrent map
// (SkipList). Callers select one via pkg/options.IndexType and otherwise
// treat them identically. This mirrors the core Bitcask principle: keep
// every key in memory with minimal per-entry metadata, while values stay
// on disk.
package index

import (
	"go.uber.org/zap"

	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

// Entry is one (key, position) pair as handed back by Iterator/ListKeys.
type Entry struct {
	Key []byte
	Pos codec.Position
}

// Iterator is a snapshot-style ordered cursor captured at construction
// time: later Put/Delete calls on the index never alter what an
// already-constructed Iterator yields.
type Iterator interface {
	// Rewind resets the cursor to the first entry.
	Rewind()
	// Seek positions the cursor at the first entry comparing >= key (or <=
	// key when the iterator was constructed with Reverse).
	Seek(key []byte)
	// Next advances the cursor and returns the next entry matching the
	// iterator's prefix filter, or ok=false once exhausted.
	Next() (entry Entry, ok bool)
	// Close releases the iterator's resources. Safe to call multiple times.
	Close()
}

// Indexer is the capability set both index implementations provide.
type Indexer interface {
	// Put upserts key->pos and returns the previous position, if any, so
	// the engine can add its size to the reclaimable-bytes counter.
	Put(key []byte, pos codec.Position) (prev codec.Position, hadPrev bool)

	// Get performs a point lookup.
	Get(key []byte) (pos codec.Position, ok bool)

	// Delete removes key and returns its previous position, if any.
	Delete(key []byte) (prev codec.Position, hadPrev bool)

	// Iterator constructs a new ordered cursor per opts.
	Iterator(opts options.IteratorOptions) Iterator

	// ListKeys returns every live key in ascending order, independent of
	// any iterator construction.
	ListKeys() [][]byte

	// Len reports the number of live keys.
	Len() int

	// Close releases the index's resources.
	Close() error
}

// Config configures New.
type Config struct {
	Type   options.IndexType
	Logger *zap.SugaredLogger
}

// New constructs the Indexer selected by config.Type.
func New(config Config) Indexer {
	log := config.Logger
	if config.Type == options.IndexSkipList {
		return newSkipList(log)
	}
	return newBalanced(log)
}
