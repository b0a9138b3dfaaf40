// Package iomanager provides the uniform random-read / append-write / fsync
// capability every data file is built on, with two interchangeable
// implementations: a standard os.File-backed manager safe for concurrent
// reads and exclusive writes, and a read-only memory-mapped manager used
// only while the engine rebuilds its index during Open.
package iomanager

// IOManager is the capability set both variants implement. Only Standard
// supports Write/Sync; Mmap's implementations of those return an error so
// callers can fail fast instead of silently discarding writes.
type IOManager interface {
	// ReadAt performs a positional read into buf starting at offset and
	// returns the number of bytes read. Safe for concurrent callers.
	ReadAt(buf []byte, offset int64) (int, error)

	// Write appends buf and returns the number of bytes written. Mutually
	// exclusive with other Write calls on the same manager.
	Write(buf []byte) (int, error)

	// Sync durably flushes any buffered writes to storage.
	Sync() error

	// Size returns the current length of the underlying file.
	Size() (int64, error)

	// Close releases the manager's resources (the file handle, or the
	// mapped region).
	Close() error
}
