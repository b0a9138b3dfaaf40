package options

const (
	// DefaultDirPath is the directory NewDefaultOptions starts from; Open
	// uses it unless WithDirPath supplies another.
	DefaultDirPath = "/var/lib/lucasdb"

	// MinDataFileSize is the smallest data_file_size WithDataFileSize will
	// apply; a smaller value passed to it is ignored. Validate itself rejects
	// only zero.
	MinDataFileSize uint64 = 1 * 1024 * 1024

	// DefaultDataFileSize is the target size of a single data file before rotation.
	DefaultDataFileSize uint64 = 256 * 1024 * 1024

	// DefaultSyncWrites disables fsync-per-write; durability instead relies on
	// DefaultBytesPerSync or an explicit Sync() call.
	DefaultSyncWrites = false

	// DefaultBytesPerSync is 0 (disabled); set a positive value to fsync every
	// N bytes written to the active file.
	DefaultBytesPerSync uint64 = 0

	// DefaultUseMmapOnOpen enables the memory-mapped IO manager while
	// rebuilding the index during Open; the engine switches back to standard
	// IO once recovery finishes.
	DefaultUseMmapOnOpen = true

	// DefaultMergeRatio is the minimum reclaimable/total ratio required
	// before Merge will proceed.
	DefaultMergeRatio = 0.5

	// DefaultMaxBatchNum bounds the number of pending writes a Batch may
	// accumulate before Commit.
	DefaultMaxBatchNum uint32 = 10000

	// DefaultBatchSyncWrites controls whether a batch commit fsyncs.
	DefaultBatchSyncWrites = true
)

// NewDefaultOptions returns the baseline Options every Open call starts from.
func NewDefaultOptions() Options {
	return Options{
		DirPath:       DefaultDirPath,
		DataFileSize:  DefaultDataFileSize,
		SyncWrites:    DefaultSyncWrites,
		BytesPerSync:  DefaultBytesPerSync,
		IndexType:     IndexBalancedTree,
		UseMmapOnOpen: DefaultUseMmapOnOpen,
		MergeRatio:    DefaultMergeRatio,
	}
}

// NewDefaultBatchOptions returns the baseline BatchOptions NewBatch starts from.
func NewDefaultBatchOptions() BatchOptions {
	return BatchOptions{
		MaxBatchNum: DefaultMaxBatchNum,
		SyncWrites:  DefaultBatchSyncWrites,
	}
}

// NewDefaultIteratorOptions returns the baseline IteratorOptions Iterator starts from.
func NewDefaultIteratorOptions() IteratorOptions {
	return IteratorOptions{Prefix: nil, Reverse: false}
}
