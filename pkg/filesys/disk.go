package filesys

import (
	"os"
	"path/filepath"
	"syscall"
)

// DirSize walks dirPath and sums the apparent size of every regular file
// under it. Used by the engine's Stat() to report disk_size.
func DirSize(dirPath string) (int64, error) {
	var total int64

	err := filepath.WalkDir(dirPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

// AvailableDiskSize reports the free space available on the filesystem that
// hosts dirPath, in bytes. Unlike a probe rooted at "/", this reflects the
// filesystem the engine actually writes to, which matters when the data
// directory lives on a different mount (a separate disk, a tmpfs, a bind
// mount) than the root filesystem.
func AvailableDiskSize(dirPath string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dirPath, &stat); err != nil {
		return 0, err
	}
	// Bavail (blocks available to unprivileged users) is the conservative,
	// portable choice over Bfree, which includes blocks reserved for root.
	return stat.Bavail * uint64(stat.Bsize), nil
}
