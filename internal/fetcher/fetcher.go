// Package fetcher orchestrates the source adapters and the on-disk
// cache, implementing §4.3's public contract: given a ResolvedPackage,
// produce a local filesystem path containing its contents plus the
// content hash, consulting the cache before invoking any adapter.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/donaldfilimon/ovo/internal/cache"
	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/integrity"
	"github.com/donaldfilimon/ovo/internal/sourceadapter"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/logger"
)

// Result is returned by Fetch.
type Result struct {
	Path        string
	ContentHash string
	ResolvedRef string
	FromCache   bool
}

// Fetcher ties one Adapter per depspec.SourceType to a shared Cache.
type Fetcher struct {
	Cache   *cache.Cache
	Root    string // cache root, mirrored here for per-entry subdirectory naming
	Offline bool
	Force   bool

	Adapters map[depspec.SourceType]sourceadapter.Adapter
}

// New constructs a Fetcher over the given cache and adapter set.
func New(c *cache.Cache, root string, adapters map[depspec.SourceType]sourceadapter.Adapter) *Fetcher {
	return &Fetcher{Cache: c, Root: root, Adapters: adapters}
}

// Fetch resolves pkg's contents to a local path, consulting the cache
// first unless f.Force is set, per §4.3's hit/miss policy.
func (f *Fetcher) Fetch(ctx context.Context, pkg depspec.ResolvedPackage, src depspec.Source) (Result, error) {
	adapter, ok := f.Adapters[pkg.SourceType]
	if !ok {
		return Result{}, ovoerrors.New(ovoerrors.SourceUnavailable, "no adapter registered for source type "+string(pkg.SourceType))
	}

	key := cache.Key(pkg.Name, src, pkg.Version, pkg.ResolvedHash)
	if key != "" && !f.Force {
		if entry, hit, err := f.Cache.Lookup(key); err == nil && hit {
			res := Result{Path: entry.Path, FromCache: true}
			if pkg.SourceType != depspec.SourceSystem {
				if h, hashErr := integrity.HashDirectory(entry.Path, integrity.DirOptions{}); hashErr == nil {
					res.ContentHash = h.String()
				}
			}
			return res, nil
		}
	}

	if f.Offline {
		return Result{}, ovoerrors.New(ovoerrors.NetworkError, "offline: cannot fetch "+pkg.Name)
	}

	dest := pkg.SourceURL
	if key != "" {
		dest = cache.NewEntryDir(f.Root, pkg.SourceType, pkg.Name)
	}

	fetched, err := adapter.Fetch(ctx, pkg.Name, src, dest)
	if err != nil {
		return Result{}, err
	}

	contentHash := fetched.ContentHash
	if contentHash == "" && pkg.SourceType != depspec.SourceSystem {
		if h, hashErr := integrity.HashDirectory(fetched.Path, integrity.DirOptions{}); hashErr == nil {
			contentHash = h.String()
		}
	}

	if key != "" {
		entry := cache.Entry{
			Path:       fetched.Path,
			FetchedAt:  time.Now(),
			SourceType: pkg.SourceType,
		}
		if size, sizeErr := dirSize(fetched.Path); sizeErr == nil {
			entry.Size = size
		}
		// Flush failures are logged but never fail the fetch (§4.3); Store
		// logs its own write errors, and any other Store error is logged here.
		if err := f.Cache.Store(key, entry); err != nil {
			logger.Warnf("cache entry for %s not recorded: %v", pkg.Name, err)
		}
	}

	return Result{Path: fetched.Path, ContentHash: contentHash, ResolvedRef: fetched.ResolvedRef}, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
