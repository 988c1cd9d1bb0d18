package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/donaldfilimon/ovo/internal/cache"
	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/sourceadapter"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	sourceType depspec.SourceType
	fetchCalls int
	dest       string
}

func (a *fakeAdapter) Type() depspec.SourceType { return a.sourceType }

func (a *fakeAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	return depspec.ResolvedPackage{Name: name, Version: version, SourceType: a.sourceType}, nil
}

func (a *fakeAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (sourceadapter.FetchResult, error) {
	a.fetchCalls++
	a.dest = dest
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return sourceadapter.FetchResult{}, err
	}
	_ = os.WriteFile(filepath.Join(dest, "file.txt"), []byte("content"), 0o644)
	return sourceadapter.FetchResult{Path: dest}, nil
}

func TestFetchMissesThenHitsCache(t *testing.T) {
	root := t.TempDir()
	c := cache.New(root, 0)
	adapter := &fakeAdapter{sourceType: depspec.SourceGit}
	f := New(c, root, map[depspec.SourceType]sourceadapter.Adapter{depspec.SourceGit: adapter})

	pkg := depspec.ResolvedPackage{Name: "foo", Version: "1.0.0", SourceType: depspec.SourceGit}
	src := depspec.GitSource{URL: "https://example.com/foo.git"}

	res1, err := f.Fetch(context.Background(), pkg, src)
	require.NoError(t, err)
	require.False(t, res1.FromCache)
	require.Equal(t, 1, adapter.fetchCalls)

	res2, err := f.Fetch(context.Background(), pkg, src)
	require.NoError(t, err)
	require.True(t, res2.FromCache)
	require.Equal(t, 1, adapter.fetchCalls)
	require.Equal(t, res1.Path, res2.Path)
}

func TestFetchOfflineFailsOnMiss(t *testing.T) {
	root := t.TempDir()
	c := cache.New(root, 0)
	adapter := &fakeAdapter{sourceType: depspec.SourceGit}
	f := New(c, root, map[depspec.SourceType]sourceadapter.Adapter{depspec.SourceGit: adapter})
	f.Offline = true

	pkg := depspec.ResolvedPackage{Name: "foo", SourceType: depspec.SourceGit}
	_, err := f.Fetch(context.Background(), pkg, depspec.GitSource{URL: "https://example.com/foo.git"})
	require.Error(t, err)
}

func TestFetchForceBypassesCache(t *testing.T) {
	root := t.TempDir()
	c := cache.New(root, 0)
	adapter := &fakeAdapter{sourceType: depspec.SourceGit}
	f := New(c, root, map[depspec.SourceType]sourceadapter.Adapter{depspec.SourceGit: adapter})

	pkg := depspec.ResolvedPackage{Name: "foo", SourceType: depspec.SourceGit}
	src := depspec.GitSource{URL: "https://example.com/foo.git"}

	_, err := f.Fetch(context.Background(), pkg, src)
	require.NoError(t, err)

	f.Force = true
	_, err = f.Fetch(context.Background(), pkg, src)
	require.NoError(t, err)
	require.Equal(t, 2, adapter.fetchCalls)
}

func TestFetchPathSourceNeverCached(t *testing.T) {
	root := t.TempDir()
	c := cache.New(root, time.Hour)
	adapter := &fakeAdapter{sourceType: depspec.SourcePath}
	f := New(c, root, map[depspec.SourceType]sourceadapter.Adapter{depspec.SourcePath: adapter})

	pkg := depspec.ResolvedPackage{Name: "foo", SourceType: depspec.SourcePath, SourceURL: filepath.Join(root, "local")}
	src := depspec.PathSource{Path: pkg.SourceURL}

	_, err := f.Fetch(context.Background(), pkg, src)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), pkg, src)
	require.NoError(t, err)
	require.Equal(t, 2, adapter.fetchCalls)
}
