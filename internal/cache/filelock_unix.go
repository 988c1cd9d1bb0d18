//go:build !windows

package cache

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an exclusive advisory flock on f, blocking until
// available. This backs the single critical section around index.json
// that §5 requires ("a file-level advisory lock is acceptable").
func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
