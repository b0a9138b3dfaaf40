// Package seginfo names, parses and discovers the data files a lucasdb
// engine owns inside its directory.
//
// Filename format: {file_id:09}.data
//
// Where:
//   - file_id: a u32 file id, left-padded to nine digits.
//   - .data: fixed extension.
//
// Example filenames:
//
//	000000001.data
//	000000042.data
//	4294967295.data (the maximum u32 id: ids of ten digits are not padded,
//	                 and ParseFileID, which accepts exactly nine digits,
//	                 rejects such names)
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

const (
	extension = ".data"
	idWidth   = 9

	// HintFileName is the fixed name of the key->position accelerator file a
	// merge writes into its output directory.
	HintFileName = "hint-index.data"

	// MergeFinishedName is the fixed name of the marker file that certifies a
	// merge directory holds a complete, durable merge output rather than one
	// abandoned mid-write by a crash.
	MergeFinishedName = "merge-finished"

	// SeqNoFileName is the fixed name of the file Close writes recording the
	// next batch sequence number to assign; the next Open reads it and then
	// removes it.
	SeqNoFileName = "__seq_no_file__"

	// LockFileName is the fixed name of the OS-level advisory lock file that
	// enforces single-writer-per-directory.
	LockFileName = "lucasdb.lock"

	// mergeDirSuffix is appended to an engine's own directory name to derive
	// its merge sibling directory.
	mergeDirSuffix = "-merge"
)

// MergeDirPath returns the sibling directory a merge writes its output into
// before the result is adopted into dirPath.
func MergeDirPath(dirPath string) string {
	clean := strings.TrimRight(dirPath, string(filepath.Separator))
	return clean + mergeDirSuffix
}

// HintFilePath joins dirPath with the fixed hint-index file name.
func HintFilePath(dirPath string) string {
	return filepath.Join(dirPath, HintFileName)
}

// MergeFinishedPath joins dirPath with the fixed merge-finished marker name.
func MergeFinishedPath(dirPath string) string {
	return filepath.Join(dirPath, MergeFinishedName)
}

// DataFileName formats a data file's on-disk name from its id.
func DataFileName(id uint32) string {
	return fmt.Sprintf("%0*d%s", idWidth, id, extension)
}

// DataFilePath joins dirPath with the formatted name for id.
func DataFilePath(dirPath string, id uint32) string {
	return filepath.Join(dirPath, DataFileName(id))
}

// ParseFileID extracts the file id from a data file's base name. Returns an
// error for any name that isn't exactly idWidth decimal digits followed by
// the data extension — the engine surfaces this as a Corrupt error at Open.
func ParseFileID(name string) (uint32, error) {
	if !strings.HasSuffix(name, extension) {
		return 0, fmt.Errorf("seginfo: %q does not have the %s extension", name, extension)
	}

	digits := strings.TrimSuffix(name, extension)
	if len(digits) != idWidth {
		return 0, fmt.Errorf("seginfo: %q id component is not %d digits", name, idWidth)
	}

	id, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("seginfo: %q id component is not numeric: %w", name, err)
	}

	return uint32(id), nil
}

// ListFileIDs scans dirPath for data files and returns their ids in
// ascending order. Non-data-file entries (hint-index.data, merge-finished,
// __seq_no_file__, lucasdb.lock, the -merge sibling directory) are ignored;
// any name that looks like a data file but fails to parse is reported via err.
func ListFileIDs(dirPath string) ([]uint32, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	ids := make([]uint32, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == HintFileName || !strings.HasSuffix(entry.Name(), extension) {
			continue
		}
		id, err := ParseFileID(entry.Name())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, nil
}
