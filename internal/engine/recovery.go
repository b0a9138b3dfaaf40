package engine

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/internal/datafile"
	"github.com/iamNilotpal/lucasdb/pkg/errors"
	"github.com/iamNilotpal/lucasdb/pkg/seginfo"
)

type pendingTxn struct {
	put    map[string]codec.Position
	delete map[string]bool
}

// rebuildIndex replays the hint file (if present) and the given file ids,
// ascending, into e.idx. Callers must already hold whatever synchronization
// the engine's idx/file fields require — rebuildIndex does not take e.mu
// itself, since it runs either before the engine is reachable (Open) or
// while e.mu is already held exclusively (merge adoption).
func (e *Engine) rebuildIndex(fileIDsAscending []uint32) (maxSeq uint64, err error) {
	hintMaxFileID, hasHint, err := e.loadHintFile()
	if err != nil {
		return 0, err
	}

	pending := make(map[uint64]*pendingTxn)

	for _, id := range fileIDsAscending {
		if hasHint && id <= hintMaxFileID {
			continue
		}

		df := e.fileForRecoveryLocked(id)
		if df == nil {
			continue
		}

		var offset int64
		for {
			rec, size, readErr := df.ReadRecord(offset)
			if readErr != nil {
				if ee, ok := errors.AsEngineError(readErr); ok && ee.Code() == errors.ErrorCodeReadEof {
					if df.GetFileID() == e.activeFile.GetFileID() {
						df.SetWriteOff(offset)
						if terr := os.Truncate(seginfo.DataFilePath(e.dirPath, id), offset); terr != nil {
							return 0, errors.NewStorageError(terr, errors.ErrorCodeIO, "failed to truncate active data file")
						}
					}
					break
				}
				if df.GetFileID() == e.activeFile.GetFileID() {
					// A torn write at the tail of the active file is expected
					// after a crash; truncate the file there and stop.
					e.log.Warnw("truncating active file at first undecodable record",
						"fileID", id, "offset", offset, "error", readErr)
					df.SetWriteOff(offset)
					if terr := os.Truncate(seginfo.DataFilePath(e.dirPath, id), offset); terr != nil {
						return 0, errors.NewStorageError(terr, errors.ErrorCodeIO, "failed to truncate active data file")
					}
					break
				}
				return 0, errors.NewCorruptError(readErr, "failed to replay sealed data file").
					WithDetail("fileID", id).WithDetail("offset", offset)
			}

			seq, userKey, perr := codec.ParseLogKey(rec.Key)
			if perr != nil {
				return 0, errors.NewCorruptError(perr, "failed to parse record key").
					WithDetail("fileID", id).WithDetail("offset", offset)
			}
			if seq > maxSeq {
				maxSeq = seq
			}

			pos := codec.Position{FileID: id, Offset: uint64(offset), Size: uint32(size)}

			switch {
			case rec.Type == codec.TxnCommit:
				txn, ok := pending[seq]
				if !ok {
					return 0, errors.NewTxnRecordMissingError(seq)
				}
				e.applyPendingLocked(txn)
				delete(pending, seq)
			case seq == 0:
				e.applyRecordLocked(rec.Type, userKey, pos)
			default:
				txn, ok := pending[seq]
				if !ok {
					txn = &pendingTxn{put: make(map[string]codec.Position), delete: make(map[string]bool)}
					pending[seq] = txn
				}
				if rec.Type == codec.Tombstone {
					txn.delete[string(userKey)] = true
					delete(txn.put, string(userKey))
				} else {
					txn.put[string(userKey)] = pos
					delete(txn.delete, string(userKey))
				}
			}

			offset += int64(size)
		}
	}

	// Any batch whose commit sentinel was never observed never happened.
	return maxSeq, nil
}

func (e *Engine) applyRecordLocked(t codec.RecordType, key []byte, pos codec.Position) {
	if t == codec.Tombstone {
		if prev, had := e.idx.Delete(key); had {
			atomic.AddUint64(&e.reclaimSize, uint64(prev.Size))
		}
		return
	}
	if prev, had := e.idx.Put(key, pos); had {
		atomic.AddUint64(&e.reclaimSize, uint64(prev.Size))
	}
}

func (e *Engine) applyPendingLocked(txn *pendingTxn) {
	for key := range txn.delete {
		if prev, had := e.idx.Delete([]byte(key)); had {
			atomic.AddUint64(&e.reclaimSize, uint64(prev.Size))
		}
	}
	for key, pos := range txn.put {
		if prev, had := e.idx.Put([]byte(key), pos); had {
			atomic.AddUint64(&e.reclaimSize, uint64(prev.Size))
		}
	}
}

func (e *Engine) fileForRecoveryLocked(id uint32) *datafile.DataFile {
	if e.activeFile != nil && e.activeFile.GetFileID() == id {
		return e.activeFile
	}
	return e.olderFiles[id]
}

// loadHintFile populates e.idx directly from the hint-index file, if one
// exists, and reports the highest file id it certifies — replay then skips
// full-record decoding for every file at or below that id.
func (e *Engine) loadHintFile() (maxFileID uint32, present bool, err error) {
	hintPath := seginfo.HintFilePath(e.dirPath)
	if _, statErr := os.Stat(hintPath); statErr != nil {
		return 0, false, nil
	}

	hintFile, err := datafile.OpenAt(hintPath, 0, datafile.Standard, e.log)
	if err != nil {
		return 0, false, err
	}
	defer hintFile.Close()

	var offset int64
	for {
		rec, size, readErr := hintFile.ReadRecord(offset)
		if readErr != nil {
			if ee, ok := errors.AsEngineError(readErr); ok && ee.Code() == errors.ErrorCodeReadEof {
				break
			}
			return 0, false, errors.NewCorruptError(readErr, "failed to read hint index file")
		}

		pos, perr := codec.DecodePosition(rec.Value)
		if perr != nil {
			return 0, false, errors.NewCorruptError(perr, "failed to decode hint index entry")
		}
		if pos.FileID > maxFileID {
			maxFileID = pos.FileID
		}

		if prev, had := e.idx.Put(rec.Key, pos); had {
			atomic.AddUint64(&e.reclaimSize, uint64(prev.Size))
		}
		offset += int64(size)
	}

	return maxFileID, true, nil
}

// loadMergeFiles adopts a completed merge found on disk (from a run that
// crashed or exited between finishing the merge and hot-swapping state), or
// discards an incomplete one. Runs once, at the very start of Open, before
// any data file from dirPath is opened.
func loadMergeFiles(dirPath string, log *zap.SugaredLogger) error {
	mergeDir := seginfo.MergeDirPath(dirPath)
	entries, err := os.ReadDir(mergeDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to inspect merge directory").
			WithPath(mergeDir)
	}

	finishedPath := seginfo.MergeFinishedPath(mergeDir)
	finishedData, err := os.ReadFile(finishedPath)
	if err != nil {
		log.Warnw("discarding incomplete merge directory", "mergeDir", mergeDir)
		return os.RemoveAll(mergeDir)
	}

	nonMergedFileID, n := decodeUvarint(finishedData)
	if n <= 0 {
		return os.RemoveAll(mergeDir)
	}

	for id := uint32(0); id <= uint32(nonMergedFileID); id++ {
		os.Remove(seginfo.DataFilePath(dirPath, id))
	}

	for _, entry := range entries {
		if entry.Name() == seginfo.MergeFinishedName {
			continue
		}
		from := mergeDir + string(os.PathSeparator) + entry.Name()
		to := dirPath + string(os.PathSeparator) + entry.Name()
		if err := os.Rename(from, to); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to adopt merge output file").
				WithPath(from)
		}
	}

	return os.RemoveAll(mergeDir)
}

func decodeUvarint(buf []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, b := range buf {
		if b < 0x80 {
			return x | uint64(b)<<s, i + 1
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, 0
}
