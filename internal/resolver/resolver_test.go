package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/lockfile"
	"github.com/donaldfilimon/ovo/internal/sourceadapter"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/stretchr/testify/require"
)

// stubAdapter resolves any dependency of its type to a fixed version and
// a fixed list of transitive dependency names, driven by a name->deps
// map so tests can construct arbitrary graphs (A->B, B->C, A->B->A...).
type stubAdapter struct {
	sourceType   depspec.SourceType
	dependencies map[string][]string
	fail         map[string]bool
}

func (s stubAdapter) Type() depspec.SourceType { return s.sourceType }

func (s stubAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	if s.fail[name] {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.PackageNotFound, "stub failure for "+name)
	}
	return depspec.ResolvedPackage{
		Name:         name,
		Version:      "1.0.0",
		SourceType:   s.sourceType,
		Dependencies: s.dependencies[name],
	}, nil
}

func (s stubAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (sourceadapter.FetchResult, error) {
	return sourceadapter.FetchResult{Path: dest}, nil
}

func registrySource(name string) depspec.Source { return depspec.RegistrySource{Name: name} }

func TestResolveLinearChainS5(t *testing.T) {
	adapters := map[depspec.SourceType]sourceadapter.Adapter{
		depspec.SourceRegistry: stubAdapter{
			sourceType: depspec.SourceRegistry,
			dependencies: map[string][]string{
				"A": {"B"},
				"B": {"C"},
				"C": nil,
			},
		},
	}
	lf := lockfile.New()
	lf.PutPackage(depspec.LockedPackage{Name: "B", Version: "1.0.0", Dependencies: []string{"C"}})

	r := New(adapters, lf, true)
	result, err := r.Resolve(context.Background(), []depspec.Dependency{
		{Name: "A", Version: "*", Source: registrySource("A")},
	})
	require.NoError(t, err)
	require.Len(t, result.Packages, 3)
	require.Contains(t, result.Packages, "A")
	require.Contains(t, result.Packages, "B")
	require.Contains(t, result.Packages, "C")
	require.GreaterOrEqual(t, result.Stats.FromLockfile, 1)
}

func TestResolveCycleS6(t *testing.T) {
	adapters := map[depspec.SourceType]sourceadapter.Adapter{
		depspec.SourceRegistry: stubAdapter{
			sourceType: depspec.SourceRegistry,
			dependencies: map[string][]string{
				"A": {"B"},
				"B": {"A"},
			},
		},
	}
	r := New(adapters, nil, false)
	result, err := r.Resolve(context.Background(), []depspec.Dependency{
		{Name: "A", Version: "*", Source: registrySource("A")},
	})
	require.Error(t, err)
	require.Nil(t, result)
}

func TestResolveOfflineFailsOnNetworkSource(t *testing.T) {
	adapters := map[depspec.SourceType]sourceadapter.Adapter{
		depspec.SourceRegistry: stubAdapter{sourceType: depspec.SourceRegistry},
	}
	r := New(adapters, nil, false)
	r.Offline = true
	_, err := r.Resolve(context.Background(), []depspec.Dependency{
		{Name: "A", Version: "*", Source: registrySource("A")},
	})
	require.Error(t, err)
}

func TestResolvePlatformMismatchSkipsWithWarning(t *testing.T) {
	adapters := map[depspec.SourceType]sourceadapter.Adapter{
		depspec.SourceRegistry: stubAdapter{sourceType: depspec.SourceRegistry},
	}
	r := New(adapters, nil, false)
	r.TargetPlatform = &depspec.Platform{OS: "linux"}
	result, err := r.Resolve(context.Background(), []depspec.Dependency{
		{Name: "A", Version: "*", Source: registrySource("A"), Platforms: []depspec.Platform{{OS: "windows"}}},
	})
	require.NoError(t, err)
	require.Empty(t, result.Packages)
	require.Len(t, result.Warnings, 1)
}

func TestSharedWildcardDependencyNoConflict(t *testing.T) {
	adapters := map[depspec.SourceType]sourceadapter.Adapter{
		depspec.SourceRegistry: stubAdapter{
			sourceType: depspec.SourceRegistry,
			dependencies: map[string][]string{
				"A": {"C"},
				"B": {"C"},
			},
		},
	}
	r := New(adapters, nil, false)
	_, err := r.Resolve(context.Background(), []depspec.Dependency{
		{Name: "A", Version: "*", Source: registrySource("A")},
		{Name: "B", Version: "*", Source: registrySource("B")},
	})
	// Both A and B depend on C at version "*", which is always
	// compatible, so this must succeed rather than conflict.
	require.NoError(t, err)
}

func TestToLockfileCarriesRootsAndHashes(t *testing.T) {
	result := depspec.NewResolutionResult()
	result.Packages["foo"] = depspec.ResolvedPackage{Name: "foo", Version: "1.0.0"}
	result.Roots = []string{"foo"}

	lf := ToLockfile(result, map[string]string{"foo": "sha256-abc"}, "sha256-manifest")
	pkg, ok := lf.GetPackage("foo")
	require.True(t, ok)
	require.Equal(t, "sha256-abc", pkg.IntegrityHash)
	require.Equal(t, []string{"foo"}, lf.Roots)
	require.Equal(t, "sha256-manifest", lf.Metadata.ManifestHash)
	require.WithinDuration(t, time.Now(), lf.Metadata.UpdatedAt, time.Minute)
}
