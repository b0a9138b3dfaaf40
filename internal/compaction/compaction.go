// Package compaction implements merge: rewriting an engine's sealed data
// files into a smaller set that holds only live records, plus a hint file
// that lets the next recovery skip re-validating every one of them.
package compaction

import (
	"bytes"

	natomic "github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/internal/datafile"
	"github.com/iamNilotpal/lucasdb/pkg/errors"
	"github.com/iamNilotpal/lucasdb/pkg/filesys"
	"github.com/iamNilotpal/lucasdb/pkg/options"
	"github.com/iamNilotpal/lucasdb/pkg/seginfo"
)

// Host is the engine behavior a merge run needs. SealedFile deliberately
// hands back the engine's own already-open file handle rather than asking
// Host to open a second one for the same segment — sealed files are
// immutable once rotated, so sharing the handle is safe and avoids a
// redundant file descriptor.
type Host interface {
	DirPath() string
	Options() options.Options
	ReclaimSize() uint64
	DiskSize() (int64, error)
	Logger() *zap.SugaredLogger

	TryLockMerge() bool
	UnlockMerge()

	RotateActive() (sealedUpTo uint32, err error)
	SealedFileIDsAscending() []uint32
	SealedFile(id uint32) *datafile.DataFile
	IndexGet(key []byte) (codec.Position, bool)
}

// Run executes one merge pass against h: it checks eligibility, rewrites
// every currently-live record out of h's sealed files into a fresh sibling
// directory, and durably marks that output complete. Apart from the
// active-file rotation RotateActive performs, it does not mutate h's
// in-memory state; the caller is responsible for adopting the result (see
// internal/engine's adoptMergeOutput, which reuses the same on-disk layout
// Open's merge-adoption step already knows how to read).
func Run(h Host) (sealedUpTo uint32, err error) {
	if !h.TryLockMerge() {
		return 0, errors.NewMergeInProgressError()
	}
	defer h.UnlockMerge()

	diskSize, err := h.DiskSize()
	if err != nil {
		return 0, err
	}
	reclaim := h.ReclaimSize()

	var ratio float64
	if diskSize > 0 {
		ratio = float64(reclaim) / float64(diskSize)
	}
	if ratio < h.Options().MergeRatio {
		return 0, errors.NewRatioUnreachedError(ratio, h.Options().MergeRatio)
	}

	liveSize := uint64(diskSize) - reclaim
	available, err := filesys.AvailableDiskSize(h.DirPath())
	if err != nil {
		return 0, err
	}
	if available < liveSize {
		return 0, errors.NewNoSpaceError(liveSize, available)
	}

	sealedUpTo, err = h.RotateActive()
	if err != nil {
		return 0, err
	}

	mergeDir := seginfo.MergeDirPath(h.DirPath())
	filesys.DeleteDir(mergeDir)
	if err := filesys.CreateDir(mergeDir, 0755, true); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create merge directory").
			WithPath(mergeDir)
	}

	w, err := newWriter(mergeDir, h.Options().DataFileSize, h.Logger())
	if err != nil {
		filesys.DeleteDir(mergeDir)
		return 0, err
	}

	for _, id := range h.SealedFileIDsAscending() {
		if id > sealedUpTo {
			continue
		}
		if err := mergeOneFile(h, w, id); err != nil {
			w.close()
			filesys.DeleteDir(mergeDir)
			return 0, err
		}
	}

	if err := w.finish(sealedUpTo); err != nil {
		filesys.DeleteDir(mergeDir)
		return 0, err
	}

	h.Logger().Infow("merge complete", "sealedUpTo", sealedUpTo, "mergeDir", mergeDir)
	return sealedUpTo, nil
}

// mergeOneFile scans one sealed file's records in order, rewriting the ones
// the live index still points at into w.
func mergeOneFile(h Host, w *writer, id uint32) error {
	df := h.SealedFile(id)
	if df == nil {
		return nil
	}

	var offset int64
	for {
		rec, size, err := df.ReadRecord(offset)
		if err != nil {
			if ee, ok := errors.AsEngineError(err); ok && ee.Code() == errors.ErrorCodeReadEof {
				return nil
			}
			return errors.NewCorruptError(err, "failed to replay sealed data file during merge").
				WithDetail("fileID", id).WithDetail("offset", offset)
		}

		if rec.Type == codec.Normal {
			_, userKey, perr := codec.ParseLogKey(rec.Key)
			if perr == nil {
				if current, ok := h.IndexGet(userKey); ok &&
					current.FileID == id && current.Offset == uint64(offset) {
					if err := w.writeLive(userKey, rec.Value); err != nil {
						return err
					}
				}
			}
		}

		offset += int64(size)
	}
}

// writer owns the merge output's rotating data files plus its hint file.
type writer struct {
	dir      string
	maxSize  uint64
	log      *zap.SugaredLogger
	active   *datafile.DataFile
	nextID   uint32
	hintFile *datafile.DataFile
}

func newWriter(dir string, maxSize uint64, log *zap.SugaredLogger) (*writer, error) {
	active, err := datafile.New(dir, 0, datafile.Standard, log)
	if err != nil {
		return nil, err
	}
	hint, err := datafile.OpenAt(seginfo.HintFilePath(dir), 0, datafile.Standard, log)
	if err != nil {
		active.Close()
		return nil, err
	}
	return &writer{dir: dir, maxSize: maxSize, log: log, active: active, nextID: 1, hintFile: hint}, nil
}

func (w *writer) writeLive(key, value []byte) error {
	rec := &codec.Record{Type: codec.Normal, Key: codec.LogKeyWithSeq(0, key), Value: value}
	size := codec.EncodedSize(len(rec.Key), len(rec.Value))

	if w.active.WriteOff()+int64(size) > int64(w.maxSize) {
		if err := w.active.Sync(); err != nil {
			return err
		}
		if err := w.active.Close(); err != nil {
			return err
		}
		next, err := datafile.New(w.dir, w.nextID, datafile.Standard, w.log)
		if err != nil {
			return err
		}
		w.active = next
		w.nextID++
	}

	pos, err := w.active.Append(rec)
	if err != nil {
		return err
	}
	return w.hintFile.WriteHintEntry(key, pos)
}

func (w *writer) close() {
	w.active.Close()
	w.hintFile.Close()
}

func (w *writer) finish(sealedUpTo uint32) error {
	if err := w.active.Sync(); err != nil {
		return err
	}
	if err := w.hintFile.Sync(); err != nil {
		return err
	}
	w.close()

	buf := make([]byte, 0, 5)
	v := uint64(sealedUpTo)
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	buf = append(buf, byte(v))

	return natomic.WriteFile(seginfo.MergeFinishedPath(w.dir), bytes.NewReader(buf))
}
