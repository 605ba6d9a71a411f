package engine

import (
	"os"
	"sync"
)

// fileCaches memoizes per-path binary/symlink classification across an
// entire hook run; concurrent job builders hit the same paths
// repeatedly, so a sync.Map (Go's lock-free concurrent map) avoids
// redundant stat/read calls without a global mutex (spec §4.5 "cached in
// a lock-free map").
type fileCaches struct {
	binary  sync.Map // path -> bool
	symlink sync.Map // path -> bool
}

func newFileCaches() *fileCaches {
	return &fileCaches{}
}

// isBinary reports whether path's first 8 KiB contain a null byte. I/O
// errors are not cached, so a transient failure gets retried on the next
// call instead of being permanently (and wrongly) remembered.
func (c *fileCaches) isBinary(path string) bool {
	if v, ok := c.binary.Load(path); ok {
		return v.(bool)
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return false
	}
	binary := false
	for _, b := range buf[:n] {
		if b == 0 {
			binary = true
			break
		}
	}
	c.binary.Store(path, binary)
	return binary
}

// isSymlink reports whether path itself (not its target) is a symlink.
func (c *fileCaches) isSymlink(path string) bool {
	if v, ok := c.symlink.Load(path); ok {
		return v.(bool)
	}
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	isLink := info.Mode()&os.ModeSymlink != 0
	c.symlink.Store(path, isLink)
	return isLink
}
