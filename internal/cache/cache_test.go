package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/stretchr/testify/require"
)

func TestStoreThenLookupHit(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "git", "foo")
	require.NoError(t, os.MkdirAll(target, 0o755))

	c := New(root, 0)
	require.NoError(t, c.Store("git:url", Entry{Path: target, SourceType: depspec.SourceGit, FetchedAt: time.Now()}))

	entry, hit, err := c.Lookup("git:url")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, target, entry.Path)
}

func TestLookupMissWhenPathGone(t *testing.T) {
	root := t.TempDir()
	c := New(root, 0)
	require.NoError(t, c.Store("git:url", Entry{Path: filepath.Join(root, "gone"), FetchedAt: time.Now()}))

	_, hit, err := c.Lookup("git:url")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestLookupTTLZeroNeverExpires(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "archive", "x")
	require.NoError(t, os.MkdirAll(target, 0o755))

	c := New(root, 0)
	require.NoError(t, c.Store("archive:h", Entry{Path: target, FetchedAt: time.Now().Add(-999 * time.Hour)}))

	_, hit, err := c.Lookup("archive:h")
	require.NoError(t, err)
	require.True(t, hit)
}

func TestLookupExpiresPastTTL(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "archive", "x")
	require.NoError(t, os.MkdirAll(target, 0o755))

	c := New(root, time.Minute)
	require.NoError(t, c.Store("archive:h", Entry{Path: target, FetchedAt: time.Now().Add(-time.Hour)}))

	_, hit, err := c.Lookup("archive:h")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCleanRemovesExpiredEntries(t *testing.T) {
	root := t.TempDir()
	fresh := filepath.Join(root, "git", "fresh")
	stale := filepath.Join(root, "git", "stale")
	require.NoError(t, os.MkdirAll(fresh, 0o755))
	require.NoError(t, os.MkdirAll(stale, 0o755))

	c := New(root, time.Minute)
	require.NoError(t, c.Store("fresh", Entry{Path: fresh, FetchedAt: time.Now()}))
	require.NoError(t, c.Store("stale", Entry{Path: stale, FetchedAt: time.Now().Add(-time.Hour)}))

	removed, err := c.Clean()
	require.NoError(t, err)
	require.Equal(t, []string{"stale"}, removed)

	_, err = os.Stat(stale)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	require.NoError(t, err)
}

func TestGetCacheStats(t *testing.T) {
	root := t.TempDir()
	c := New(root, 0)
	require.NoError(t, c.Store("a", Entry{SourceType: depspec.SourceGit, Size: 10, FetchedAt: time.Now(), Path: root}))
	require.NoError(t, c.Store("b", Entry{SourceType: depspec.SourceGit, Size: 20, FetchedAt: time.Now(), Path: root}))
	require.NoError(t, c.Store("c", Entry{SourceType: depspec.SourceArchive, Size: 5, FetchedAt: time.Now(), Path: root}))

	stats, err := c.GetCacheStats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.CountBySource[depspec.SourceGit])
	require.Equal(t, 1, stats.CountBySource[depspec.SourceArchive])
	require.Equal(t, int64(35), stats.TotalBytes)
}

func TestKeyDerivation(t *testing.T) {
	require.Equal(t, "git:https://x@v1", Key("foo", depspec.GitSource{URL: "https://x", Ref: "v1"}, "", ""))
	require.Equal(t, "git:https://x", Key("foo", depspec.GitSource{URL: "https://x"}, "", ""))
	require.Equal(t, "archive:abc", Key("foo", depspec.ArchiveSource{Hash: "abc"}, "", ""))
	require.Equal(t, "archive:sha256-xyz", Key("foo", depspec.ArchiveSource{URL: "https://host/foo.tar.gz"}, "", "sha256-xyz"))
	require.Equal(t, "", Key("foo", depspec.PathSource{Path: "x"}, "", ""))
	require.Equal(t, "vcpkg:foo@1.0.0", Key("foo", depspec.VcpkgSource{}, "1.0.0", ""))
	require.Equal(t, "conan:zlib/1.2.13", Key("foo", depspec.ConanSource{Reference: "zlib/1.2.13"}, "", ""))
	require.Equal(t, "system:foo", Key("foo", depspec.SystemSource{}, "", ""))
}

// TestKeyHashlessArchivesDoNotCollide guards against the bug where two
// archive dependencies without a pre-declared hash both keyed on the
// always-empty pre-fetch contentHash and collapsed to "archive:".
func TestKeyHashlessArchivesDoNotCollide(t *testing.T) {
	k1 := Key("foo", depspec.ArchiveSource{URL: "https://host/foo.tar.gz"}, "", "")
	k2 := Key("bar", depspec.ArchiveSource{URL: "https://host/bar.tar.gz"}, "", "")
	require.NotEqual(t, k1, k2)
	require.NotEqual(t, "archive:", k1)
	require.NotEqual(t, "archive:", k2)
}
