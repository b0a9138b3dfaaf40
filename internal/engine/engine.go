// Package engine coordinates the subsystems a lucasdb instance is built
// from: the append-only data files (internal/datafile), the in-memory
// ordered index (internal/index), batch transactions (internal/batch),
// merge/compaction (internal/compaction) and the live-key iterator
// (internal/iterator). It is the only package that is allowed to mutate a
// data file set and an index together, since every other package only sees
// the narrow Host interface engine exposes to it.
package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	natomic "github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lucasdb/internal/batch"
	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/internal/compaction"
	"github.com/iamNilotpal/lucasdb/internal/datafile"
	"github.com/iamNilotpal/lucasdb/internal/index"
	"github.com/iamNilotpal/lucasdb/internal/iterator"
	"github.com/iamNilotpal/lucasdb/pkg/errors"
	"github.com/iamNilotpal/lucasdb/pkg/filesys"
	"github.com/iamNilotpal/lucasdb/pkg/options"
	"github.com/iamNilotpal/lucasdb/pkg/seginfo"
)

// Engine is the storage engine coordinating a single lucasdb data directory.
// Exactly one Engine may hold an open, unlocked Close-able handle on a given
// directory at a time, enforced by an OS-level advisory lock file.
type Engine struct {
	dirPath string
	options options.Options
	log     *zap.SugaredLogger

	// mu guards activeFile, olderFiles and idx together: rotation and merge
	// adoption both replace more than one of these at once and must never be
	// observed half-applied.
	mu         sync.RWMutex
	activeFile *datafile.DataFile
	olderFiles map[uint32]*datafile.DataFile
	idx        index.Indexer

	// commitMu serializes batch commits: exactly one sequence number is
	// handed out and made visible at a time, giving every batch atomic
	// cross-key visibility.
	commitMu sync.Mutex
	nextSeq  uint64 // atomic

	reclaimSize uint64 // atomic, bytes of on-disk space no live index entry references

	bytesSinceSync uint64 // atomic, reset whenever a sync actually runs

	mergeMu atomic.Bool // true while a merge holds the lock

	lock   *flock.Flock
	closed atomic.Bool
}

// Config supplies Open with the options and logger an Engine should use.
type Config struct {
	Options options.Options
	Logger  *zap.SugaredLogger
}

// Open validates config.Options, acquires the directory's exclusive lock,
// adopts any completed merge left behind by a prior run, and rebuilds the
// in-memory index from the hint file (if present) and the data files.
func Open(config Config) (*Engine, error) {
	opts := config.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if err := filesys.CreateDir(opts.DirPath, 0755, true); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create data directory").
			WithPath(opts.DirPath)
	}

	lockPath := filepath.Join(opts.DirPath, seginfo.LockFileName)
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to acquire directory lock").
			WithPath(lockPath)
	}
	if !locked {
		return nil, errors.NewInUseError(opts.DirPath)
	}

	if err := loadMergeFiles(opts.DirPath, log); err != nil {
		fl.Unlock()
		return nil, err
	}

	ids, err := seginfo.ListFileIDs(opts.DirPath)
	if err != nil {
		fl.Unlock()
		return nil, errors.NewCorruptError(err, "failed to enumerate data files")
	}

	e := &Engine{
		dirPath:    opts.DirPath,
		options:    opts,
		log:        log,
		olderFiles: make(map[uint32]*datafile.DataFile),
		idx:        index.New(index.Config{Type: opts.IndexType, Logger: log}),
		lock:       fl,
	}

	var activeID uint32
	sealedIDs := ids
	if len(ids) == 0 {
		activeID = 0
	} else {
		activeID = ids[len(ids)-1]
		sealedIDs = ids[:len(ids)-1]
	}

	mmapMode := datafile.Standard
	if opts.UseMmapOnOpen {
		mmapMode = datafile.Mmap
	}

	for _, id := range sealedIDs {
		df, err := datafile.New(opts.DirPath, id, mmapMode, log)
		if err != nil {
			e.closeOpenedFiles()
			fl.Unlock()
			return nil, err
		}
		e.olderFiles[id] = df
	}

	active, err := datafile.New(opts.DirPath, activeID, datafile.Standard, log)
	if err != nil {
		e.closeOpenedFiles()
		fl.Unlock()
		return nil, err
	}
	e.activeFile = active

	maxSeq, err := e.rebuildIndex(append(append([]uint32{}, sealedIDs...), activeID))
	if err != nil {
		e.closeOpenedFiles()
		fl.Unlock()
		return nil, err
	}

	if opts.UseMmapOnOpen {
		for id, df := range e.olderFiles {
			if err := df.Rebind(opts.DirPath, datafile.Standard, log); err != nil {
				e.closeOpenedFiles()
				fl.Unlock()
				return nil, err
			}
			e.olderFiles[id] = df
		}
	}

	// stored, if present, is itself the next sequence number to assign (what
	// Close persisted), not the max used sequence number, so it compares
	// against maxSeq+1, not maxSeq.
	next := maxSeq + 1
	if stored, ok := readSeqNoFile(opts.DirPath); ok && stored > next {
		next = stored
	}
	atomic.StoreUint64(&e.nextSeq, next)

	log.Infow("engine opened", "dirPath", opts.DirPath, "activeFileID", activeID,
		"sealedFiles", len(e.olderFiles), "keys", e.idx.Len())
	return e, nil
}

func (e *Engine) closeOpenedFiles() {
	if e.activeFile != nil {
		e.activeFile.Close()
	}
	for _, df := range e.olderFiles {
		df.Close()
	}
}

// Put durably appends key/value and updates the index. An empty key is rejected.
func (e *Engine) Put(key, value []byte) error {
	if e.closed.Load() {
		return errors.NewUseAfterCloseError()
	}
	if len(key) == 0 {
		return errors.NewKeyEmptyError()
	}

	rec := &codec.Record{Type: codec.Normal, Key: codec.LogKeyWithSeq(0, key), Value: value}
	pos, err := e.AppendRecord(rec)
	if err != nil {
		return err
	}

	e.IndexPut(key, pos)
	return nil
}

// Get returns the value currently associated with key.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, errors.NewUseAfterCloseError()
	}

	e.mu.RLock()
	pos, ok := e.idx.Get(key)
	e.mu.RUnlock()
	if !ok {
		return nil, errors.NewKeyNotFoundEngineError(string(key))
	}

	return e.ReadValue(pos)
}

// Delete marks key as logically removed. Deleting a key with no live entry
// is a no-op, matching the rest of the Bitcask family.
func (e *Engine) Delete(key []byte) error {
	if e.closed.Load() {
		return errors.NewUseAfterCloseError()
	}
	if len(key) == 0 {
		return errors.NewKeyEmptyError()
	}

	e.mu.RLock()
	_, ok := e.idx.Get(key)
	e.mu.RUnlock()
	if !ok {
		return nil
	}

	rec := &codec.Record{Type: codec.Tombstone, Key: codec.LogKeyWithSeq(0, key), Value: nil}
	if _, err := e.AppendRecord(rec); err != nil {
		return err
	}

	e.IndexDelete(key)
	return nil
}

// ListKeys returns every live key in ascending order.
func (e *Engine) ListKeys() [][]byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.ListKeys()
}

// Iterator constructs a snapshot-ordered cursor over live keys matching opts.
func (e *Engine) Iterator(opts options.IteratorOptions) *iterator.Iterator {
	return iterator.New(e, opts)
}

// NewBatch starts a new atomic, multi-key transaction against this engine.
func (e *Engine) NewBatch(opts options.BatchOptions) *batch.Batch {
	return batch.New(e, opts)
}

// Sync flushes the active file's unsynced bytes to stable storage.
func (e *Engine) Sync() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	atomic.StoreUint64(&e.bytesSinceSync, 0)
	return e.activeFile.Sync()
}

// Stat reports the engine's current size and reclaim profile.
type Stat struct {
	KeyNum          int
	SealedFileCount int
	ReclaimSize     uint64
	DiskSize        int64
}

// Stat computes the current Stat snapshot.
func (e *Engine) Stat() (Stat, error) {
	diskSize, err := filesys.DirSize(e.dirPath)
	if err != nil {
		return Stat{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to compute directory size").
			WithPath(e.dirPath)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stat{
		KeyNum:          e.idx.Len(),
		SealedFileCount: len(e.olderFiles),
		ReclaimSize:     atomic.LoadUint64(&e.reclaimSize),
		DiskSize:        diskSize,
	}, nil
}

// Merge compacts the engine's sealed data files, dropping dead records and
// reclaiming their space, then adopts the result into the live engine.
func (e *Engine) Merge() error {
	if e.closed.Load() {
		return errors.NewUseAfterCloseError()
	}

	sealedUpTo, err := compaction.Run(e)
	if err != nil {
		return err
	}

	return e.adoptMergeOutput(sealedUpTo)
}

// Close flushes a sequence-number checkpoint, closes every open file and
// releases the directory lock. Close is idempotent: a second call is a no-op.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seqPath := filepath.Join(e.dirPath, seginfo.SeqNoFileName)
	seqVal := atomic.LoadUint64(&e.nextSeq)
	decimal := strconv.FormatUint(seqVal, 10)
	if err := natomic.WriteFile(seqPath, bytes.NewReader([]byte(decimal))); err != nil {
		e.log.Warnw("failed to persist sequence checkpoint", "error", err)
	}

	var firstErr error
	if err := e.activeFile.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.activeFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, df := range e.olderFiles {
		if err := df.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := e.idx.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}

	e.log.Infow("engine closed", "dirPath", e.dirPath)
	return firstErr
}

// AppendRecord serializes rec into the active file, rotating to a new active
// file first if the record would overflow data_file_size. Exported for
// internal/batch's Commit path.
func (e *Engine) AppendRecord(rec *codec.Record) (codec.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	size := codec.EncodedSize(len(rec.Key), len(rec.Value))
	if e.activeFile.WriteOff()+int64(size) > int64(e.options.DataFileSize) {
		if err := e.rotateLocked(); err != nil {
			return codec.Position{}, err
		}
	}

	pos, err := e.activeFile.Append(rec)
	if err != nil {
		return codec.Position{}, err
	}

	if e.options.SyncWrites {
		if err := e.activeFile.Sync(); err != nil {
			return codec.Position{}, err
		}
		atomic.StoreUint64(&e.bytesSinceSync, 0)
	} else if e.options.BytesPerSync > 0 {
		total := atomic.AddUint64(&e.bytesSinceSync, uint64(size))
		if total >= e.options.BytesPerSync {
			if err := e.activeFile.Sync(); err != nil {
				return codec.Position{}, err
			}
			atomic.StoreUint64(&e.bytesSinceSync, 0)
		}
	}

	return pos, nil
}

// rotateLocked seals the current active file and opens a fresh one. Callers
// must hold e.mu.
func (e *Engine) rotateLocked() error {
	if err := e.activeFile.Sync(); err != nil {
		return err
	}

	sealedID := e.activeFile.GetFileID()
	e.olderFiles[sealedID] = e.activeFile

	next, err := datafile.New(e.dirPath, sealedID+1, datafile.Standard, e.log)
	if err != nil {
		return err
	}

	e.activeFile = next
	e.log.Infow("rotated active data file", "sealedID", sealedID, "newActiveID", sealedID+1)
	return nil
}

// IndexPut applies a committed Put/Delete-overwrite to the index and
// accounts for any position it displaces.
func (e *Engine) IndexPut(key []byte, pos codec.Position) {
	e.mu.Lock()
	prev, had := e.idx.Put(key, pos)
	e.mu.Unlock()
	if had {
		atomic.AddUint64(&e.reclaimSize, uint64(prev.Size))
	}
}

// IndexDelete removes key from the index, accounting for the position it displaces.
func (e *Engine) IndexDelete(key []byte) {
	e.mu.Lock()
	prev, had := e.idx.Delete(key)
	e.mu.Unlock()
	if had {
		atomic.AddUint64(&e.reclaimSize, uint64(prev.Size))
	}
}

// IndexGet performs a raw index lookup, bypassing the closed check — used by
// compaction's liveness test.
func (e *Engine) IndexGet(key []byte) (codec.Position, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Get(key)
}

// NextSequence atomically hands out the next batch sequence number.
func (e *Engine) NextSequence() uint64 {
	return atomic.AddUint64(&e.nextSeq, 1) - 1
}

// CommitLock serializes batch commits against each other.
func (e *Engine) CommitLock() { e.commitMu.Lock() }

// CommitUnlock releases the batch commit lock.
func (e *Engine) CommitUnlock() { e.commitMu.Unlock() }

// ReadValue reads and decodes the record at pos and returns its value.
func (e *Engine) ReadValue(pos codec.Position) ([]byte, error) {
	e.mu.RLock()
	df := e.fileByIDLocked(pos.FileID)
	e.mu.RUnlock()
	if df == nil {
		return nil, errors.NewCorruptError(nil, "index referenced a data file id that is not open").
			WithDetail("fileID", pos.FileID)
	}

	rec, _, err := df.ReadRecord(int64(pos.Offset))
	if err != nil {
		return nil, err
	}
	if rec.Type == codec.Tombstone {
		return nil, errors.NewKeyNotFoundEngineError("")
	}
	return rec.Value, nil
}

func (e *Engine) fileByIDLocked(id uint32) *datafile.DataFile {
	if e.activeFile != nil && e.activeFile.GetFileID() == id {
		return e.activeFile
	}
	return e.olderFiles[id]
}

// IndexIterator builds an index-level cursor for opts, used by internal/iterator.
func (e *Engine) IndexIterator(opts options.IteratorOptions) index.Iterator {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Iterator(opts)
}

// DirPath returns the engine's data directory.
func (e *Engine) DirPath() string { return e.dirPath }

// Options returns the engine's effective configuration.
func (e *Engine) Options() options.Options { return e.options }

// ReclaimSize returns the current reclaimable-bytes counter.
func (e *Engine) ReclaimSize() uint64 { return atomic.LoadUint64(&e.reclaimSize) }

// DiskSize reports the data directory's total apparent size.
func (e *Engine) DiskSize() (int64, error) { return filesys.DirSize(e.dirPath) }

// TryLockMerge attempts to acquire the in-process merge-exclusivity flag.
func (e *Engine) TryLockMerge() bool { return e.mergeMu.CompareAndSwap(false, true) }

// UnlockMerge releases the in-process merge-exclusivity flag.
func (e *Engine) UnlockMerge() { e.mergeMu.Store(false) }

// RotateActive seals the current active file into the sealed set and opens
// a fresh active file, returning the id of the file that was just sealed.
func (e *Engine) RotateActive() (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.rotateLocked(); err != nil {
		return 0, err
	}
	// The file that was just sealed is the new active file's id minus one.
	return e.activeFile.GetFileID() - 1, nil
}

// SealedFileIDsAscending lists every currently sealed file id, ascending.
func (e *Engine) SealedFileIDsAscending() []uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]uint32, 0, len(e.olderFiles))
	for id := range e.olderFiles {
		ids = append(ids, id)
	}
	sortUint32s(ids)
	return ids
}

// SealedFile returns the already-open handle for a sealed file id, reusing
// it rather than opening a second file descriptor for the same segment.
func (e *Engine) SealedFile(id uint32) *datafile.DataFile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.olderFiles[id]
}

// Logger exposes the engine's logger to compaction.
func (e *Engine) Logger() *zap.SugaredLogger { return e.log }

func sortUint32s(ids []uint32) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// adoptMergeOutput hot-swaps the engine's on-disk and in-memory state with a
// merge's output: every file with id <= sealedUpTo is discarded, the merge
// directory's files take their place, and the index is rebuilt from the new
// hint file plus any sealed/active file the merge didn't touch.
func (e *Engine) adoptMergeOutput(sealedUpTo uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	mergeDir := seginfo.MergeDirPath(e.dirPath)
	entries, err := os.ReadDir(mergeDir)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read merge output directory").
			WithPath(mergeDir)
	}

	for id, df := range e.olderFiles {
		if id <= sealedUpTo {
			if err := df.Close(); err != nil {
				e.log.Warnw("failed to close pre-merge data file", "fileID", id, "error", err)
			}
			os.Remove(seginfo.DataFilePath(e.dirPath, id))
			delete(e.olderFiles, id)
		}
	}

	for _, entry := range entries {
		if entry.Name() == seginfo.MergeFinishedName {
			continue
		}
		from := filepath.Join(mergeDir, entry.Name())
		to := filepath.Join(e.dirPath, entry.Name())
		if err := os.Rename(from, to); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to adopt merge output file").
				WithPath(from)
		}
	}
	filesys.DeleteDir(mergeDir)

	ids, err := seginfo.ListFileIDs(e.dirPath)
	if err != nil {
		return errors.NewCorruptError(err, "failed to enumerate data files after merge adoption")
	}

	activeID := e.activeFile.GetFileID()
	for _, id := range ids {
		if id == activeID {
			continue
		}
		if _, open := e.olderFiles[id]; open {
			continue
		}
		df, err := datafile.New(e.dirPath, id, datafile.Standard, e.log)
		if err != nil {
			return err
		}
		e.olderFiles[id] = df
	}

	newIdx := index.New(index.Config{Type: e.options.IndexType, Logger: e.log})
	oldIdx := e.idx
	e.idx = newIdx

	e.reclaimSize = 0
	if _, err := e.rebuildIndex(ids); err != nil {
		e.idx = oldIdx
		return err
	}
	oldIdx.Close()

	e.log.Infow("adopted merge output", "sealedUpTo", sealedUpTo, "sealedFiles", len(e.olderFiles))
	return nil
}

// readSeqNoFile reads the next-sequence-number checkpoint Close wrote, if
// any, then removes it: it is only ever consulted once, on the open that
// immediately follows a clean shutdown.
func readSeqNoFile(dirPath string) (uint64, bool) {
	path := filepath.Join(dirPath, seginfo.SeqNoFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	defer os.Remove(path)

	v, perr := strconv.ParseUint(string(data), 10, 64)
	if perr != nil {
		return 0, false
	}
	return v, true
}
