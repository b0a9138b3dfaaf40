// Package options provides data structures and functions for configuring
// the lucasdb storage engine. It defines the parameters that control data
// file sizing and rotation, durability policy, which index implementation
// backs the engine, whether recovery uses memory-mapped IO, and the
// reclaim ratio that gates merge/compaction, plus the narrower option sets
// accepted by batches and iterators.
package options

import (
	"strings"

	"github.com/iamNilotpal/lucasdb/pkg/errors"
)

// IndexType selects which concurrent ordered map implementation backs the
// engine's in-memory index.
type IndexType int

const (
	// IndexBalancedTree backs the index with a read-write-locked balanced
	// ordered tree. Simpler and more memory-deterministic; writers block
	// readers briefly.
	IndexBalancedTree IndexType = iota
	// IndexSkipList backs the index with a concurrent hash map with
	// lock-free reads, preferred for write-heavy workloads. The map keeps no
	// key order; ordered listing and iteration sort a snapshot on each call.
	IndexSkipList
)

// Options configures a lucasdb engine instance.
type Options struct {
	// DirPath is the directory holding data files, the lock file and the
	// merge sidecar files. Must be non-empty.
	//
	// Default: "/var/lib/lucasdb"
	DirPath string `json:"dirPath"`

	// DataFileSize is the byte threshold at which the active data file is
	// sealed and a new one opened. Must be positive.
	//
	// Default: 256MB
	DataFileSize uint64 `json:"dataFileSize"`

	// SyncWrites, when true, fsyncs the active file after every append.
	//
	// Default: false
	SyncWrites bool `json:"syncWrites"`

	// BytesPerSync, when positive, fsyncs the active file once this many
	// unsynced bytes have accumulated since the last sync. 0 disables this
	// policy (SyncWrites or an explicit Sync() call are the only remaining
	// durability levers).
	//
	// Default: 0
	BytesPerSync uint64 `json:"bytesPerSync"`

	// IndexType selects the index implementation.
	//
	// Default: IndexBalancedTree
	IndexType IndexType `json:"indexType"`

	// UseMmapOnOpen enables the memory-mapped IO manager while replaying
	// data files during Open; the engine always switches back to standard
	// IO once replay completes.
	//
	// Default: true
	UseMmapOnOpen bool `json:"useMmapOnOpen"`

	// MergeRatio is the minimum reclaimable/total-disk-size ratio required
	// before Merge proceeds; otherwise Merge fails with RatioUnreached.
	//
	// Default: 0.5
	MergeRatio float64 `json:"mergeRatio"`
}

// Validate checks the options the spec requires to be checked at Open time.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.DirPath) == "" {
		return errors.NewDirEmptyPathError()
	}
	if o.DataFileSize == 0 {
		return errors.NewFileSizeTooSmallError()
	}
	return nil
}

// BatchOptions configures a single batch transaction.
type BatchOptions struct {
	// MaxBatchNum bounds how many pending writes a batch may hold at commit
	// time; exceeding it fails commit with BatchTooLarge.
	//
	// Default: 10000
	MaxBatchNum uint32 `json:"maxBatchNum"`

	// SyncWrites, when true, fsyncs the active file once at the end of commit.
	//
	// Default: true
	SyncWrites bool `json:"syncWrites"`
}

// BatchOptionFunc is a function that modifies a batch's configuration.
type BatchOptionFunc func(*BatchOptions)

// WithMaxBatchNum bounds how many pending writes a batch may hold at commit time.
func WithMaxBatchNum(max uint32) BatchOptionFunc {
	return func(o *BatchOptions) {
		if max > 0 {
			o.MaxBatchNum = max
		}
	}
}

// WithBatchSyncWrites toggles fsync-at-commit for a batch.
func WithBatchSyncWrites(sync bool) BatchOptionFunc {
	return func(o *BatchOptions) {
		o.SyncWrites = sync
	}
}

// IteratorOptions configures a key-ordered cursor.
type IteratorOptions struct {
	// Prefix restricts the iterator to keys starting with this byte string.
	// An empty prefix yields every live key.
	Prefix []byte `json:"prefix"`

	// Reverse, when true, walks keys in descending order.
	Reverse bool `json:"reverse"`
}

// OptionFunc is a function that modifies an engine's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies the package's baseline configuration.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDirPath sets the directory lucasdb stores its files in.
func WithDirPath(dirPath string) OptionFunc {
	return func(o *Options) {
		dirPath = strings.TrimSpace(dirPath)
		if dirPath != "" {
			o.DirPath = dirPath
		}
	}
}

// WithDataFileSize sets the rotation threshold for data files.
func WithDataFileSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinDataFileSize {
			o.DataFileSize = size
		}
	}
}

// WithSyncWrites toggles fsync-per-append.
func WithSyncWrites(sync bool) OptionFunc {
	return func(o *Options) {
		o.SyncWrites = sync
	}
}

// WithBytesPerSync sets the accumulated-bytes fsync threshold.
func WithBytesPerSync(bytes uint64) OptionFunc {
	return func(o *Options) {
		o.BytesPerSync = bytes
	}
}

// WithIndexType selects the index implementation.
func WithIndexType(t IndexType) OptionFunc {
	return func(o *Options) {
		o.IndexType = t
	}
}

// WithMmapOnOpen toggles memory-mapped IO during recovery.
func WithMmapOnOpen(useMmap bool) OptionFunc {
	return func(o *Options) {
		o.UseMmapOnOpen = useMmap
	}
}

// WithMergeRatio sets the minimum reclaimable ratio required to merge.
func WithMergeRatio(ratio float64) OptionFunc {
	return func(o *Options) {
		if ratio >= 0 && ratio <= 1 {
			o.MergeRatio = ratio
		}
	}
}
