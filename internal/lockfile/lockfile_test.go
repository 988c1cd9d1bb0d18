package lockfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/stretchr/testify/require"
)

func TestRoundTripS4Scenario(t *testing.T) {
	l := New()
	l.PutPackage(depspec.LockedPackage{
		Name:          "test-pkg",
		Version:       "1.0.0",
		SourceType:    depspec.SourceGit,
		SourceURL:     "https://github.com/test/pkg.git",
		ResolvedHash:  "abc123",
		IntegrityHash: "def456",
		Dependencies:  []string{"dep1"},
	})
	l.AddRoot("test-pkg")
	l.Metadata.UpdatedAt = time.Unix(1234567890, 0).UTC()

	data, err := l.Serialize()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)

	pkg, ok := parsed.GetPackage("test-pkg")
	require.True(t, ok)
	require.Equal(t, "1.0.0", pkg.Version)
	require.Equal(t, "abc123", pkg.ResolvedHash)
}

func TestSerializeIsDeterministic(t *testing.T) {
	build := func() *Lockfile {
		l := New()
		l.PutPackage(depspec.LockedPackage{Name: "zeta", Version: "1.0.0", Dependencies: []string{}})
		l.PutPackage(depspec.LockedPackage{Name: "alpha", Version: "2.0.0", Dependencies: []string{}})
		l.AddRoot("zeta")
		l.AddRoot("alpha")
		return l
	}
	a, err := build().Serialize()
	require.NoError(t, err)
	b, err := build().Serialize()
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestTryLoadAbsentFile(t *testing.T) {
	_, err := TryLoad(filepath.Join(t.TempDir(), "missing.lock"))
	require.ErrorIs(t, err, ErrAbsent)
}

func TestSaveThenTryLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ovo.lock")
	l := New()
	l.PutPackage(depspec.LockedPackage{Name: "foo", Version: "1.0.0"})
	l.AddRoot("foo")
	require.NoError(t, l.Save(path))
	require.False(t, l.Dirty())

	loaded, err := TryLoad(path)
	require.NoError(t, err)
	pkg, ok := loaded.GetPackage("foo")
	require.True(t, ok)
	require.Equal(t, "1.0.0", pkg.Version)
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	l := New()
	l.PutPackage(depspec.LockedPackage{Name: "A", Dependencies: []string{"B"}})
	l.PutPackage(depspec.LockedPackage{Name: "B", Dependencies: []string{"C"}})
	l.PutPackage(depspec.LockedPackage{Name: "C"})
	l.AddRoot("A")

	order := l.TopologicalOrder()
	require.Equal(t, []string{"C", "B", "A"}, order)
}

func TestIsUpToDate(t *testing.T) {
	l := New()
	l.Metadata.ManifestHash = "sha256-abc"
	require.True(t, l.IsUpToDate("sha256-abc"))
	require.False(t, l.IsUpToDate("sha256-different"))
}

func TestValidateRejectsMissingFields(t *testing.T) {
	require.Error(t, Validate([]byte(`{"version": 1}`)))
	require.NoError(t, Validate([]byte(`{"version":1,"roots":[],"metadata":{},"packages":{}}`)))
}

func TestParseRejectsUnrecognizedVersion(t *testing.T) {
	_, err := Parse([]byte(`{"version":99,"roots":[],"metadata":{},"packages":{}}`))
	require.Error(t, err)
}

func TestTryLoadRejectsSchemaViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ovo.lock")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1}`), 0o644))

	_, err := TryLoad(path)
	require.Error(t, err)
}

func TestTryLoadRejectsUnrecognizedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ovo.lock")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"roots":[],"metadata":{},"packages":{}}`), 0o644))

	_, err := TryLoad(path)
	require.Error(t, err)
}
