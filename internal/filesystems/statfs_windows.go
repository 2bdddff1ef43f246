package filesystems

import "errors"

func statInodes(path string) (*InodeStat, error) {
	return nil, errors.New("inode statistics are not available on windows")
}
