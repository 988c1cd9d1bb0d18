//go:build windows

package cache

import (
	"os"
	"sync"
)

// indexMu serializes the index critical section within one process on
// Windows, including install's bounded parallel fetch. No file-level lock
// is taken there, so separate processes sharing one cache are not
// serialized against each other.
var indexMu sync.Mutex

func lockFile(f *os.File) error { indexMu.Lock(); return nil }

func unlockFile(f *os.File) error { indexMu.Unlock(); return nil }
