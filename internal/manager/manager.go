// Package manager implements the PackageManager façade of §4.7: the
// high-level orchestrator wiring resolver, fetcher, and lockfile into
// resolve/fetch/install/update/clean/verify operations. Per the open
// design question over the teacher's two divergent PackageManager
// copies, this package is the single authoritative façade (see
// DESIGN.md's "Open Question decisions").
package manager

import (
	"context"
	"path/filepath"
	"time"

	"github.com/donaldfilimon/ovo/internal/cache"
	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/fetcher"
	"github.com/donaldfilimon/ovo/internal/integrity"
	"github.com/donaldfilimon/ovo/internal/lockfile"
	"github.com/donaldfilimon/ovo/internal/registryclient"
	"github.com/donaldfilimon/ovo/internal/resolver"
	"github.com/donaldfilimon/ovo/internal/sourceadapter"
	"golang.org/x/sync/semaphore"
)

// Config carries the façade's configuration: cache directory, lockfile
// path and usage, offline mode, registry URL, vcpkg root, parallel-
// download limit, and timeout, per §4.7.
type Config struct {
	CacheDir          string
	LockfilePath      string
	UseLockfile       bool
	Offline           bool
	RegistryURL       string
	RegistryMirrorDir string
	VcpkgRoot         string
	MaxParallel       int
	TimeoutSeconds    int
	CacheTTL          time.Duration
}

// registryMirrorDir returns the directory an offline registry mirror is
// read from: the configured override, or a "registry-mirror" subdirectory
// of the cache root when unset.
func (c Config) registryMirrorDir() string {
	if c.RegistryMirrorDir != "" {
		return c.RegistryMirrorDir
	}
	return filepath.Join(c.CacheDir, "registry-mirror")
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Manager is the PackageManager façade.
type Manager struct {
	cfg      Config
	cache    *cache.Cache
	fetcher  *fetcher.Fetcher
	adapters map[depspec.SourceType]sourceadapter.Adapter
}

// New constructs a Manager, wiring every source adapter against cfg.
func New(cfg Config) *Manager {
	c := cache.New(cfg.CacheDir, cfg.CacheTTL)
	timeout := cfg.timeout()

	adapters := map[depspec.SourceType]sourceadapter.Adapter{
		depspec.SourceGit:    sourceadapter.GitAdapter{Timeout: timeout, Offline: cfg.Offline},
		depspec.SourcePath:   sourceadapter.PathAdapter{BaseDir: "."},
		depspec.SourceVcpkg:  sourceadapter.VcpkgAdapter{Root: cfg.VcpkgRoot, Timeout: timeout, Offline: cfg.Offline},
		depspec.SourceConan:  sourceadapter.ConanAdapter{Timeout: timeout, Offline: cfg.Offline},
		depspec.SourceSystem: sourceadapter.SystemAdapter{Timeout: timeout},
	}
	archiveAdapter := sourceadapter.ArchiveAdapter{
		Timeout:   timeout,
		Offline:   cfg.Offline,
		CacheRoot: filepath.Join(cfg.CacheDir, "downloads"),
	}
	adapters[depspec.SourceArchive] = archiveAdapter

	var client *registryclient.Client
	var offlineRegistry *registryclient.OfflineRegistry
	if cfg.Offline {
		offlineRegistry = &registryclient.OfflineRegistry{Dir: cfg.registryMirrorDir()}
	} else if cfg.RegistryURL != "" {
		client = registryclient.NewClient(cfg.RegistryURL, 5*time.Minute)
	}
	adapters[depspec.SourceRegistry] = sourceadapter.RegistryAdapter{Client: client, Offline: offlineRegistry, Archive: archiveAdapter}

	f := fetcher.New(c, cfg.CacheDir, adapters)
	f.Offline = cfg.Offline

	return &Manager{cfg: cfg, cache: c, fetcher: f, adapters: adapters}
}

func (m *Manager) loadLockfile() (*lockfile.Lockfile, error) {
	lf, err := lockfile.TryLoad(m.cfg.LockfilePath)
	if err != nil {
		if err == lockfile.ErrAbsent {
			return lockfile.New(), nil
		}
		return nil, err
	}
	return lf, nil
}

// Resolve constructs a Resolver pointed at any existing lockfile and
// runs it, per §4.7.
func (m *Manager) Resolve(ctx context.Context, deps []depspec.Dependency) (*depspec.ResolutionResult, error) {
	lf, err := m.loadLockfile()
	if err != nil {
		return nil, err
	}
	r := resolver.New(m.adapters, lf, m.cfg.UseLockfile)
	r.Offline = m.cfg.Offline
	return r.Resolve(ctx, deps)
}

// Fetch lazily delegates to the Fetcher for a single resolved package.
func (m *Manager) Fetch(ctx context.Context, pkg depspec.ResolvedPackage, src depspec.Source) (fetcher.Result, error) {
	return m.fetcher.Fetch(ctx, pkg, src)
}

// InstallResult summarizes an install/update run.
type InstallResult struct {
	Resolution *depspec.ResolutionResult
	Fetched    map[string]fetcher.Result
}

// Install resolves deps, computes install order from the topological
// traversal, fetches each package in order (or with bounded parallelism
// when cfg.MaxParallel > 1), then writes the lockfile atomically exactly
// once after all fetches succeed, per §4.7 and §5's atomicity
// requirement.
func (m *Manager) Install(ctx context.Context, deps []depspec.Dependency) (*InstallResult, error) {
	return m.resolveAndFetch(ctx, deps, true)
}

// Update behaves like Install but temporarily disables lockfile priority
// so fresh versions are picked, per §4.7.
func (m *Manager) Update(ctx context.Context, deps []depspec.Dependency) (*InstallResult, error) {
	prior := m.cfg.UseLockfile
	m.cfg.UseLockfile = false
	defer func() { m.cfg.UseLockfile = prior }()
	return m.resolveAndFetch(ctx, deps, true)
}

func (m *Manager) resolveAndFetch(ctx context.Context, deps []depspec.Dependency, write bool) (*InstallResult, error) {
	lf, err := m.loadLockfile()
	if err != nil {
		return nil, err
	}
	r := resolver.New(m.adapters, lf, m.cfg.UseLockfile)
	r.Offline = m.cfg.Offline

	result, err := r.Resolve(ctx, deps)
	if err != nil {
		return nil, err
	}

	order := topologicalOrder(result)
	fetched := make(map[string]fetcher.Result, len(order))
	hashes := make(map[string]string, len(order))

	if m.cfg.MaxParallel > 1 {
		if err := m.fetchParallel(ctx, result, order, fetched, hashes); err != nil {
			return nil, err
		}
	} else {
		for _, name := range order {
			pkg := result.Packages[name]
			res, err := m.fetcher.Fetch(ctx, pkg, sourceOf(pkg))
			if err != nil {
				return nil, err
			}
			fetched[name] = res
			hashes[name] = res.ContentHash
		}
	}

	if write {
		manifestHash := ""
		newLock := resolver.ToLockfile(result, hashes, manifestHash)
		if err := newLock.Save(m.cfg.LockfilePath); err != nil {
			return nil, err
		}
	}

	return &InstallResult{Resolution: result, Fetched: fetched}, nil
}

// fetchParallel bounds concurrent fetches with a golang.org/x/sync
// semaphore sized to cfg.MaxParallel. The fetch goroutines report over
// channels and only the calling goroutine writes fetched/hashes, so no
// additional locking is required beyond the semaphore itself and the
// fetcher's own cache-index critical section (§5).
func (m *Manager) fetchParallel(ctx context.Context, result *depspec.ResolutionResult, order []string, fetched map[string]fetcher.Result, hashes map[string]string) error {
	sem := semaphore.NewWeighted(int64(m.cfg.MaxParallel))
	errCh := make(chan error, len(order))
	resultsCh := make(chan struct {
		name string
		res  fetcher.Result
	}, len(order))

	for _, name := range order {
		name := name
		pkg := result.Packages[name]
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func() {
			defer sem.Release(1)
			res, err := m.fetcher.Fetch(ctx, pkg, sourceOf(pkg))
			if err != nil {
				errCh <- err
				return
			}
			resultsCh <- struct {
				name string
				res  fetcher.Result
			}{name, res}
			errCh <- nil
		}()
	}

	for range order {
		if err := <-errCh; err != nil {
			return err
		}
		r := <-resultsCh
		fetched[r.name] = r.res
		hashes[r.name] = r.res.ContentHash
	}
	return nil
}

// topologicalOrder derives install order directly from the
// ResolutionResult (mirrors lockfile.TopologicalOrder but operates
// before any lockfile conversion happens).
func topologicalOrder(result *depspec.ResolutionResult) []string {
	visited := make(map[string]bool)
	var order []string
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		pkg, ok := result.Packages[name]
		if !ok {
			return
		}
		for _, dep := range pkg.Dependencies {
			visit(dep)
		}
		order = append(order, name)
	}
	for _, root := range result.Roots {
		visit(root)
	}
	return order
}

// sourceOf reconstructs a minimal Source value from a ResolvedPackage
// for the sole purpose of cache-key derivation and adapter dispatch at
// fetch time; the adapter itself only needs SourceURL/ResolvedHash,
// already carried on pkg.
func sourceOf(pkg depspec.ResolvedPackage) depspec.Source {
	switch pkg.SourceType {
	case depspec.SourceGit:
		return depspec.GitSource{URL: pkg.SourceURL, Ref: pkg.ResolvedHash}
	case depspec.SourceArchive:
		return depspec.ArchiveSource{URL: pkg.SourceURL, Hash: pkg.ResolvedHash}
	case depspec.SourcePath:
		return depspec.PathSource{Path: pkg.SourceURL}
	case depspec.SourceVcpkg:
		return depspec.VcpkgSource{Name: pkg.Name}
	case depspec.SourceConan:
		return depspec.ConanSource{Reference: pkg.SourceURL}
	case depspec.SourceSystem:
		return depspec.SystemSource{PkgConfigName: pkg.Name}
	case depspec.SourceRegistry:
		return depspec.RegistrySource{Name: pkg.Name}
	default:
		return nil
	}
}

// lockedSourceOf mirrors sourceOf for a persisted LockedPackage, so
// Verify can derive the same cache key Fetch used when the package was
// originally fetched.
func lockedSourceOf(pkg depspec.LockedPackage) depspec.Source {
	return sourceOf(depspec.ResolvedPackage{
		Name:         pkg.Name,
		Version:      pkg.Version,
		SourceType:   pkg.SourceType,
		SourceURL:    pkg.SourceURL,
		ResolvedHash: pkg.ResolvedHash,
	})
}

// Clean delegates to the Fetcher's cache eviction.
func (m *Manager) Clean() ([]string, error) {
	return m.cache.Clean()
}

// VerifyResult reports integrity mismatches found by Verify.
type VerifyResult struct {
	Mismatches []string
	Missing    []string
}

// Verify re-hashes every locked package's on-disk tree and compares it
// against its stored integrity_hash, per §4.7.
//
// The on-disk location isn't derivable from name/source-type alone:
// cache.NewEntryDir suffixes every fetch directory with a random uuid,
// so Verify rederives the same cache key Fetch used (via lockedSourceOf
// and cache.Key) and looks it up through the cache index to find the
// real path. Path sources have no cache key and are resolved in place
// at pkg.SourceURL.
func (m *Manager) Verify() (VerifyResult, error) {
	lf, err := m.loadLockfile()
	if err != nil {
		return VerifyResult{}, err
	}
	var result VerifyResult
	for name, pkg := range lf.Packages {
		if pkg.IntegrityHash == "" {
			continue
		}
		want, err := integrity.ParseHash(pkg.IntegrityHash)
		if err != nil {
			result.Mismatches = append(result.Mismatches, name)
			continue
		}

		var path string
		if pkg.SourceType == depspec.SourcePath {
			path = pkg.SourceURL
		} else {
			key := cache.Key(name, lockedSourceOf(pkg), pkg.Version, pkg.ResolvedHash)
			entry, hit, lookupErr := m.cache.Lookup(key)
			if lookupErr != nil {
				return VerifyResult{}, lookupErr
			}
			if !hit {
				result.Missing = append(result.Missing, name)
				continue
			}
			path = entry.Path
		}

		if ok, verr := integrity.VerifyDirectory(want, path, integrity.DirOptions{}); verr != nil {
			result.Missing = append(result.Missing, name)
		} else if !ok {
			result.Mismatches = append(result.Mismatches, name)
		}
	}
	return result, nil
}

// CacheStats exposes the underlying cache's statistics.
func (m *Manager) CacheStats() (cache.Stats, error) {
	return m.cache.GetCacheStats()
}
