//go:build !windows

package filesystems

import "golang.org/x/sys/unix"

func statInodes(path string) (*InodeStat, error) {
	stat := unix.Statfs_t{}
	if err := unix.Statfs(path, &stat); err != nil {
		return nil, err
	}
	return &InodeStat{
		Total: uint64(stat.Files),
		Free:  uint64(stat.Ffree),
	}, nil
}
