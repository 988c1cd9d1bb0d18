package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/lockfile"
	"github.com/donaldfilimon/ovo/internal/sourceadapter"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
)

// DefaultMaxDepth bounds the depth-first walk so a malformed dependency
// graph fails fast with CyclicDependency instead of recursing forever.
const DefaultMaxDepth = 200

// ManifestReader discovers a resolved package's own dependency list. The
// source manifest format for fetched packages is deliberately left
// pluggable: the core spec's transitive-walk stub names the intent
// ("parse each resolved package's manifest to discover deps") without
// fixing a wire format, since manifest parsing is out of this system's
// scope. Callers that have a manifest parser wire it in here; Resolver
// falls back to treating a resolved package's reported dependency names
// as registry-sourced wildcard requirements when none is provided.
type ManifestReader func(ctx context.Context, pkg depspec.ResolvedPackage) ([]depspec.Dependency, error)

// Resolver performs the depth-first, lockfile-priority resolution
// algorithm of §4.6.
type Resolver struct {
	Adapters       map[depspec.SourceType]sourceadapter.Adapter
	Lockfile       *lockfile.Lockfile
	UseLockfile    bool
	Offline        bool
	MaxDepth       int
	TargetPlatform *depspec.Platform
	ReadManifest   ManifestReader
}

// New constructs a Resolver. lf may be nil; pass useLockfile=false to
// disable priority lookups entirely (update() does this, per §4.7).
func New(adapters map[depspec.SourceType]sourceadapter.Adapter, lf *lockfile.Lockfile, useLockfile bool) *Resolver {
	return &Resolver{
		Adapters:    adapters,
		Lockfile:    lf,
		UseLockfile: useLockfile,
		MaxDepth:    DefaultMaxDepth,
	}
}

type resolveState struct {
	resolving map[string]bool
	result    *depspec.ResolutionResult
}

// Resolve runs the full algorithm over roots, returning a complete
// ResolutionResult closed under transitive dependencies.
func (r *Resolver) Resolve(ctx context.Context, roots []depspec.Dependency) (*depspec.ResolutionResult, error) {
	start := time.Now()
	state := &resolveState{
		resolving: make(map[string]bool),
		result:    depspec.NewResolutionResult(),
	}

	for _, dep := range roots {
		if !r.passesPlatformFilter(dep) {
			state.result.Warnings = append(state.result.Warnings,
				fmt.Sprintf("skipped %s: platform mismatch", dep.Name))
			continue
		}
		if dep.DevOnly {
			state.result.Warnings = append(state.result.Warnings,
				fmt.Sprintf("skipped %s: dev-only", dep.Name))
			continue
		}
		pkg, err := r.resolveDependency(ctx, state, dep, 0)
		if err != nil {
			return nil, err
		}
		state.result.Roots = append(state.result.Roots, pkg.Name)
	}

	state.result.Stats.Total = len(state.result.Packages)
	state.result.Stats.ElapsedMS = time.Since(start).Milliseconds()
	return state.result, nil
}

func (r *Resolver) passesPlatformFilter(dep depspec.Dependency) bool {
	if len(dep.Platforms) == 0 || r.TargetPlatform == nil {
		return true
	}
	for _, p := range dep.Platforms {
		if p.Matches(*r.TargetPlatform) {
			return true
		}
	}
	return false
}

func (r *Resolver) resolveDependency(ctx context.Context, state *resolveState, dep depspec.Dependency, depth int) (depspec.ResolvedPackage, error) {
	if depth > r.MaxDepth {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.CyclicDependency,
			fmt.Sprintf("max resolution depth exceeded at %s", dep.Name))
	}
	if state.resolving[dep.Name] {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.CyclicDependency,
			fmt.Sprintf("cyclic dependency detected at %s", dep.Name))
	}
	if existing, ok := state.result.Packages[dep.Name]; ok {
		if Satisfies(dep.Version, existing.Version) {
			return existing, nil
		}
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.VersionConflict,
			fmt.Sprintf("%s requires %s but %s is already resolved", dep.Name, dep.Version, existing.Version))
	}

	if r.UseLockfile && r.Lockfile != nil {
		if locked, ok := r.Lockfile.GetPackage(dep.Name); ok && Satisfies(dep.Version, locked.Version) {
			pkg := depspec.ResolvedPackage{
				Name:         locked.Name,
				Version:      locked.Version,
				SourceType:   locked.SourceType,
				SourceURL:    locked.SourceURL,
				ResolvedHash: locked.ResolvedHash,
				Dependencies: append([]string(nil), locked.Dependencies...),
			}
			state.result.Packages[pkg.Name] = pkg
			state.result.Stats.FromLockfile++

			state.resolving[dep.Name] = true
			defer delete(state.resolving, dep.Name)
			if err := r.resolveTransitive(ctx, state, pkg, depth); err != nil {
				return depspec.ResolvedPackage{}, err
			}
			return pkg, nil
		}
	}

	state.resolving[dep.Name] = true
	defer delete(state.resolving, dep.Name)

	pkg, usedFallback, err := r.resolveFromSourceWithFallbacks(ctx, dep)
	if err != nil {
		return depspec.ResolvedPackage{}, err
	}

	state.result.Packages[pkg.Name] = pkg
	if usedFallback {
		state.result.Stats.FallbacksUsed++
	} else {
		state.result.Stats.NewlyResolved++
	}

	if err := r.resolveTransitive(ctx, state, pkg, depth); err != nil {
		return depspec.ResolvedPackage{}, err
	}
	return pkg, nil
}

func (r *Resolver) resolveFromSourceWithFallbacks(ctx context.Context, dep depspec.Dependency) (depspec.ResolvedPackage, bool, error) {
	pkg, err := r.resolveFromSource(ctx, dep.Name, dep.Version, dep.Source)
	if err == nil {
		return pkg, false, nil
	}
	lastErr := err
	for _, fallback := range dep.Fallbacks {
		pkg, err := r.resolveFromSource(ctx, dep.Name, dep.Version, fallback)
		if err == nil {
			return pkg, true, nil
		}
		lastErr = err
	}
	if len(dep.Fallbacks) > 0 {
		return depspec.ResolvedPackage{}, false, ovoerrors.Wrap(lastErr, ovoerrors.AllFallbacksFailed,
			"all fallback sources failed for "+dep.Name)
	}
	return depspec.ResolvedPackage{}, false, lastErr
}

func (r *Resolver) resolveFromSource(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	if source == nil {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.InvalidReference, "dependency "+name+" has no source")
	}
	if r.Offline {
		switch source.Type() {
		case depspec.SourceGit, depspec.SourceArchive, depspec.SourceRegistry:
			return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.NetworkError, "offline: cannot resolve "+name)
		}
	}
	adapter, ok := r.Adapters[source.Type()]
	if !ok {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.SourceUnavailable, "no adapter for source type "+string(source.Type()))
	}
	return adapter.Resolve(ctx, name, version, source)
}

// resolveTransitive discovers and resolves pkg's own dependencies. When
// ReadManifest is configured it supplies full Dependency specs
// (including source); otherwise pkg.Dependencies names are treated as
// registry-sourced wildcard requirements, preserving the dependency-
// closure invariant (§3.2) without requiring a fixed manifest format.
func (r *Resolver) resolveTransitive(ctx context.Context, state *resolveState, pkg depspec.ResolvedPackage, depth int) error {
	var children []depspec.Dependency
	if r.ReadManifest != nil {
		discovered, err := r.ReadManifest(ctx, pkg)
		if err != nil {
			return err
		}
		children = discovered
	} else {
		for _, name := range pkg.Dependencies {
			children = append(children, depspec.Dependency{
				Name:    name,
				Version: "*",
				Source:  depspec.RegistrySource{Name: name},
			})
		}
	}
	for _, child := range children {
		if _, err := r.resolveDependency(ctx, state, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// ToLockfile converts a completed ResolutionResult into a lockfile,
// hashing is left to the caller (package manager façade owns fetch +
// integrity hashing before this conversion happens), per §4.6's
// "Conversion to lockfile."
func ToLockfile(result *depspec.ResolutionResult, integrityHashes map[string]string, manifestHash string) *lockfile.Lockfile {
	lf := lockfile.New()
	now := time.Now()
	for name, pkg := range result.Packages {
		locked := depspec.FromResolved(pkg, integrityHashes[name], now)
		lf.PutPackage(locked)
	}
	lf.Roots = append([]string(nil), result.Roots...)
	lf.Metadata.UpdatedAt = now
	lf.Metadata.ManifestHash = manifestHash
	return lf
}
