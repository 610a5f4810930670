//go:build !windows
// +build !windows

package download

import (
	"fmt"
	"syscall"
)

// availableSpace returns the free bytes on the filesystem holding dir.
func availableSpace(dir string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("failed to get disk stats: %w", err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
