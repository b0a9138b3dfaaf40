package iomanager

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/iamNilotpal/lucasdb/pkg/errors"
)

// MmapIO is a read-only IOManager backed by a memory-mapped region of a
// data file. spec.md §4.1 restricts it to recovery: the engine uses it
// purely to make the index-rebuild scan fast (random reads served straight
// out of page cache with no syscall per read), then discards it in favor of
// StandardIO once replay finishes.
type MmapIO struct {
	mu   sync.RWMutex
	file *os.File
	data []byte
	path string
}

var _ IOManager = (*MmapIO)(nil)

// ErrMmapWriteUnsupported is returned by Write and Sync: the mmap manager
// is read-only by design.
var ErrMmapWriteUnsupported = errors.NewEngineError(nil, errors.ErrorCodeInternal, "mmap io manager is read-only")

// NewMmapIO opens path read-only (creating an empty file if none exists)
// and maps its current contents. A zero-length file is mapped as an empty
// manager rather than failing, since a freshly rotated or still-empty data
// file is a legal thing to recover.
func NewMmapIO(path string) (*MmapIO, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat data file for mmap").WithPath(path)
	}

	if info.Size() == 0 {
		return &MmapIO{file: file, data: nil, path: path}, nil
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to mmap data file").WithPath(path)
	}

	return &MmapIO{file: file, data: data, path: path}, nil
}

func (m *MmapIO) ReadAt(buf []byte, offset int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if offset < 0 || int(offset) > len(m.data) {
		return 0, errors.NewStorageError(nil, errors.ErrorCodeIO, "read offset out of range").
			WithPath(m.path).WithOffset(int(offset))
	}
	n := copy(buf, m.data[offset:])
	return n, nil
}

func (m *MmapIO) Write([]byte) (int, error) { return 0, ErrMmapWriteUnsupported }

func (m *MmapIO) Sync() error { return ErrMmapWriteUnsupported }

func (m *MmapIO) Size() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.data)), nil
}

func (m *MmapIO) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}
	return m.file.Close()
}
