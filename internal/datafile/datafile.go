// Package datafile owns one on-disk log segment: its IO manager, its
// append offset, and the record-level read/write operations the engine and
// merge build on top of.
package datafile

import (
	"go.uber.org/zap"

	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/internal/iomanager"
	"github.com/iamNilotpal/lucasdb/pkg/errors"
	"github.com/iamNilotpal/lucasdb/pkg/seginfo"
)

// IOMode selects which IOManager implementation backs a newly opened
// DataFile.
type IOMode int

const (
	// Standard opens the file for both reading and appending.
	Standard IOMode = iota
	// Mmap opens the file read-only via a memory-mapped region, used only
	// during the index-rebuild scan at Open.
	Mmap
)

// DataFile represents one log segment: an immutable file id, a mutable
// write offset, and the IO manager that performs the actual reads/writes.
type DataFile struct {
	fileID   uint32
	writeOff int64
	io       iomanager.IOManager
	log      *zap.SugaredLogger
}

// New opens (creating if necessary) the data file identified by fileID
// inside dir, using the requested IO mode.
func New(dir string, fileID uint32, mode IOMode, log *zap.SugaredLogger) (*DataFile, error) {
	return OpenAt(seginfo.DataFilePath(dir, fileID), fileID, mode, log)
}

// OpenAt opens (creating if necessary) the file at an arbitrary path,
// tagging it with fileID. Used for the fixed-name hint-index file a merge
// writes, which doesn't live under seginfo's numbered naming scheme.
func OpenAt(path string, fileID uint32, mode IOMode, log *zap.SugaredLogger) (*DataFile, error) {
	var mgr iomanager.IOManager
	var err error
	switch mode {
	case Mmap:
		mgr, err = iomanager.NewMmapIO(path)
	default:
		mgr, err = iomanager.NewStandardIO(path)
	}
	if err != nil {
		return nil, err
	}

	size, err := mgr.Size()
	if err != nil {
		mgr.Close()
		return nil, err
	}

	df := &DataFile{fileID: fileID, writeOff: size, io: mgr, log: log}
	if log != nil {
		log.Infow("opened data file", "fileID", fileID, "path", path, "writeOff", size, "mmap", mode == Mmap)
	}
	return df, nil
}

// GetFileID returns this data file's immutable id.
func (d *DataFile) GetFileID() uint32 { return d.fileID }

// WriteOff returns the current append offset.
func (d *DataFile) WriteOff() int64 { return d.writeOff }

// SetWriteOff overrides the tracked append offset. Used when replay
// discovers a data file's logical tail is shorter than its physical size
// (a torn write from a prior crash) and the file must be truncated to the
// last valid record boundary before new appends resume.
func (d *DataFile) SetWriteOff(off int64) { d.writeOff = off }

// Append writes the encoded record and returns the position it now lives
// at. Successive Append calls are guaranteed to advance WriteOff() by
// exactly the returned Position.Size.
func (d *DataFile) Append(r *codec.Record) (codec.Position, error) {
	encoded := codec.Encode(r)

	n, err := d.io.Write(encoded)
	if err != nil {
		return codec.Position{}, err
	}

	pos := codec.Position{FileID: d.fileID, Offset: uint64(d.writeOff), Size: uint32(n)}
	d.writeOff += int64(n)
	return pos, nil
}

// ReadRecord reads and decodes the record beginning at off, returning the
// record and its total encoded size. A zero-length header at off surfaces
// errors.ErrReadEOF, which replay and merge treat as "nothing more to read
// in this file" rather than corruption.
func (d *DataFile) ReadRecord(off int64) (*codec.Record, int, error) {
	headerBuf := make([]byte, codec.HeaderHint)
	n, err := d.io.ReadAt(headerBuf, off)
	if err != nil {
		return nil, 0, err
	}
	headerBuf = headerBuf[:n]

	header, err := codec.DecodeHeader(headerBuf)
	if err != nil {
		return nil, 0, err
	}

	total := header.TotalLen()
	body := headerBuf
	if total > len(headerBuf) {
		body, err = d.readFull(off, total)
		if err != nil {
			return nil, 0, err
		}
		if len(body) < total {
			return nil, 0, errors.ErrReadEOF
		}
	}

	rec, err := codec.DecodeBody(header, body)
	if err != nil {
		return nil, total, err
	}
	return rec, total, nil
}

// readFull re-reads size bytes starting at off; used when the conservative
// HeaderHint window under-read a record whose key or value is unusually
// large relative to the varint header.
func (d *DataFile) readFull(off int64, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := d.io.ReadAt(buf, off)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// WriteHintEntry appends a pseudo-record whose key is the real user key and
// whose value is the encoded Position, accelerating the next Open's index
// rebuild. Hint entries carry no sequence-number prefix; they're only ever
// written for keys merge has already proven live.
func (d *DataFile) WriteHintEntry(key []byte, pos codec.Position) error {
	rec := &codec.Record{Type: codec.Normal, Key: key, Value: codec.EncodePosition(pos)}
	_, err := d.Append(rec)
	return err
}

// Sync durably flushes this file's appended bytes.
func (d *DataFile) Sync() error { return d.io.Sync() }

// Close releases the underlying IO manager.
func (d *DataFile) Close() error { return d.io.Close() }

// Rebind swaps this data file's IO manager, used by the engine to switch a
// sealed file from Mmap back to Standard once recovery finishes.
func (d *DataFile) Rebind(dir string, mode IOMode, log *zap.SugaredLogger) error {
	if err := d.io.Close(); err != nil {
		return err
	}

	path := seginfo.DataFilePath(dir, d.fileID)
	var mgr iomanager.IOManager
	var err error
	switch mode {
	case Mmap:
		mgr, err = iomanager.NewMmapIO(path)
	default:
		mgr, err = iomanager.NewStandardIO(path)
	}
	if err != nil {
		return err
	}

	d.io = mgr
	if log != nil {
		log.Infow("rebound data file io manager", "fileID", d.fileID, "mmap", mode == Mmap)
	}
	return nil
}
