// Package cache implements the on-disk fetch cache described in §4.3: a
// directory tree rooted at a configured path, with subdirectories per
// source type and a JSON index file (index.json) mapping cache keys to
// entries. The TTL-entry shape and the statistics-by-kind idea are
// adapted from the teacher's internal/cache.CapsuleCache (in-memory TTL
// entries keyed by digest) and internal/volume.Manager (cache-root
// ensure/stat-by-kind, there keyed by package-manager volume type). The
// index's single-writer critical section is a file-level advisory lock
// around index.json, per §9's "with_index_lock" guidance.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/logger"
	"github.com/google/uuid"
)

// Entry is one cache index record.
type Entry struct {
	Path       string            `json:"path"`
	Size       int64             `json:"size"`
	FetchedAt  time.Time         `json:"fetched_at"`
	SourceType depspec.SourceType `json:"source_type"`
}

// Index is the on-disk shape of index.json.
type Index struct {
	Entries map[string]Entry `json:"entries"`
}

// Cache owns the cache root directory and its index.json.
type Cache struct {
	Root string
	TTL  time.Duration
}

// New returns a Cache rooted at root with the given default TTL
// (0 means entries never expire).
func New(root string, ttl time.Duration) *Cache {
	return &Cache{Root: root, TTL: ttl}
}

func (c *Cache) indexPath() string { return filepath.Join(c.Root, "index.json") }

// withIndexLock opens index.json (creating it if absent) under an
// exclusive advisory flock, hands the parsed Index to fn, and — if fn
// reports a change — rewrites the file before releasing the lock. This
// is the cache's single shared-mutation point (§5, §9).
func (c *Cache) withIndexLock(fn func(*Index) (bool, error)) error {
	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.CacheError, "cannot create cache root")
	}
	f, err := os.OpenFile(c.indexPath(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return ovoerrors.Wrap(err, ovoerrors.CacheError, "cannot open cache index")
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.CacheError, "cannot lock cache index")
	}
	defer unlockFile(f)

	idx := &Index{Entries: make(map[string]Entry)}
	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		return ovoerrors.Wrap(err, ovoerrors.CacheError, "cannot read cache index")
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, idx); err != nil {
			// A corrupt index is treated as empty rather than fatal: the
			// cache degrades to "always miss", never to a crash.
			idx = &Index{Entries: make(map[string]Entry)}
		}
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]Entry)
	}

	changed, fnErr := fn(idx)
	if fnErr != nil {
		return fnErr
	}
	if !changed {
		return nil
	}

	out, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		// Flush failures are logged but never fail the fetch (§4.3); the
		// caller already has its FetchResult in hand.
		logger.Warnf("cache index not flushed: %v", err)
		return nil
	}
	tmp := c.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		logger.Warnf("cache index not flushed: %v", err)
		return nil
	}
	if err := os.Rename(tmp, c.indexPath()); err != nil {
		logger.Warnf("cache index not flushed: %v", err)
	}
	return nil
}

// Lookup reports a cache hit iff the index has an entry for key whose
// path still exists on disk and whose age does not exceed the cache's
// TTL (TTL=0 means never expire), per §4.3's hit policy.
func (c *Cache) Lookup(key string) (Entry, bool, error) {
	var result Entry
	var hit bool
	err := c.withIndexLock(func(idx *Index) (bool, error) {
		entry, ok := idx.Entries[key]
		if !ok {
			return false, nil
		}
		if _, statErr := os.Stat(entry.Path); statErr != nil {
			return false, nil
		}
		if c.TTL > 0 && time.Since(entry.FetchedAt) > c.TTL {
			return false, nil
		}
		result, hit = entry, true
		return false, nil
	})
	return result, hit, err
}

// Store records a fetched entry under key, overwriting any prior entry.
func (c *Cache) Store(key string, entry Entry) error {
	return c.withIndexLock(func(idx *Index) (bool, error) {
		idx.Entries[key] = entry
		return true, nil
	})
}

// Clean removes every entry whose TTL has elapsed, deleting its
// directory tree on disk, per §4.3's eviction algorithm.
func (c *Cache) Clean() ([]string, error) {
	var removed []string
	err := c.withIndexLock(func(idx *Index) (bool, error) {
		if c.TTL <= 0 {
			return false, nil
		}
		now := time.Now()
		for key, entry := range idx.Entries {
			if now.Sub(entry.FetchedAt) > c.TTL {
				removed = append(removed, key)
			}
		}
		for _, key := range removed {
			_ = os.RemoveAll(idx.Entries[key].Path)
			delete(idx.Entries, key)
		}
		return len(removed) > 0, nil
	})
	return removed, err
}

// Stats summarizes the index by source type.
type Stats struct {
	CountBySource map[depspec.SourceType]int
	TotalBytes    int64
}

// GetCacheStats computes counts-by-source-type and total byte size
// across the index.
func (c *Cache) GetCacheStats() (Stats, error) {
	stats := Stats{CountBySource: make(map[depspec.SourceType]int)}
	err := c.withIndexLock(func(idx *Index) (bool, error) {
		for _, entry := range idx.Entries {
			stats.CountBySource[entry.SourceType]++
			stats.TotalBytes += entry.Size
		}
		return false, nil
	})
	return stats, err
}

// NewEntryDir returns a unique directory under the source type's
// subdirectory, named "<source>-<name>-<timestamp>-<uuid>" per §4.3: the
// timestamp is in Unix nanoseconds, and the uuid keeps names unique when
// two fetches share a timestamp.
func NewEntryDir(root string, sourceType depspec.SourceType, name string) string {
	dirName := string(sourceType) + "-" + name + "-" + strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + uuid.NewString()
	return filepath.Join(root, string(sourceType), dirName)
}

// SourceTypeDir returns the cache subdirectory reserved for sourceType.
func SourceTypeDir(root string, sourceType depspec.SourceType) string {
	return filepath.Join(root, string(sourceType))
}
