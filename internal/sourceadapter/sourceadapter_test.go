package sourceadapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	require.Equal(t, formatTarGz, detectFormat("https://host/x.tar.gz"))
	require.Equal(t, formatTarGz, detectFormat("https://host/x.tgz"))
	require.Equal(t, formatZip, detectFormat("https://host/x.zip"))
	require.Equal(t, formatUnknown, detectFormat("https://host/x.rar"))
}

func TestIsCommitHash(t *testing.T) {
	require.True(t, isCommitHash("0123456789abcdef0123456789abcdef01234567"))
	require.False(t, isCommitHash("v1.0.0"))
	require.False(t, isCommitHash("main"))
}

func TestParseConanReferenceWithUserChannel(t *testing.T) {
	ref, err := ParseConanReference("openssl/3.0.0@_/_")
	require.NoError(t, err)
	require.Equal(t, ConanReference{Name: "openssl", Version: "3.0.0", User: "_", Channel: "_"}, ref)
	require.Equal(t, "openssl/3.0.0@_/_", ref.String())
}

func TestParseConanReferenceWithoutUserChannel(t *testing.T) {
	ref, err := ParseConanReference("zlib/1.2.13")
	require.NoError(t, err)
	require.Equal(t, "zlib", ref.Name)
	require.Equal(t, "1.2.13", ref.Version)
	require.Equal(t, "zlib/1.2.13", ref.String())
}

func TestDefaultTripletLiterals(t *testing.T) {
	// Exercises the spec's literal triplet forms indirectly: just assert
	// the shape "<arch>-<os>[-static]" holds for this host.
	triplet := DefaultTriplet(false)
	require.Contains(t, triplet, "-")
	require.Equal(t, DefaultTriplet(true), triplet+"-static")
}

func TestPathAdapterResolveMissingManifest(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "foo")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	a := PathAdapter{BaseDir: dir}
	_, err := a.Resolve(context.Background(), "foo", "*", depspec.PathSource{Path: "foo"})
	require.NoError(t, err) // missing manifest is tolerated, not an error per findManifest's empty-string-no-error contract
}

func TestPathAdapterResolveNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notadir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	a := PathAdapter{BaseDir: dir}
	_, err := a.Resolve(context.Background(), "notadir", "*", depspec.PathSource{Path: "notadir"})
	require.Error(t, err)
}

func TestPathAdapterFindsManifest(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "foo")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "ovo.zon"), []byte("{}"), 0o644))

	a := PathAdapter{BaseDir: dir}
	rp, err := a.Resolve(context.Background(), "foo", "*", depspec.PathSource{Path: "foo"})
	require.NoError(t, err)
	require.Equal(t, sub, rp.SourceURL)
}

func TestWorkspaceResolverMembers(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "packages", "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "packages", "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "other"), 0o755))

	r := WorkspaceResolver{Root: root}
	members, err := r.Members("packages/*")
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestSystemAdapterEnvVarFallback(t *testing.T) {
	t.Setenv("ZLIB_INCLUDE_DIR", "/opt/zlib/include")
	t.Setenv("ZLIB_LIB_DIR", "/opt/zlib/lib")

	a := SystemAdapter{}
	info, ok := a.viaEnvVars("zlib")
	require.True(t, ok)
	require.Equal(t, SourceEnvVar, info.Source)
	require.Equal(t, []string{"/opt/zlib/include"}, info.Build.IncludeDirs)
}

func TestSystemAdapterManualSearch(t *testing.T) {
	includeDir := t.TempDir()
	libDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(includeDir, "foo.h"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "libfoo.so"), []byte(""), 0o644))

	a := SystemAdapter{ExtraInclude: []string{includeDir}, ExtraLib: []string{libDir}}
	info, ok := a.viaManualSearch("foo", depspec.SystemSource{})
	require.True(t, ok)
	require.Equal(t, SourceManual, info.Source)
	require.Contains(t, info.Build.Libraries, "foo")
}

func TestParseToolchainCmake(t *testing.T) {
	content := `set(CONAN_INCLUDE_DIRS_ZLIB "/opt/zlib/include")
set(CONAN_LIB_DIRS_ZLIB "/opt/zlib/lib")
set(CONAN_DEFINES_ZLIB "ZLIB_STATIC")
`
	cfg := parseToolchainCmake(content)
	require.Equal(t, []string{"/opt/zlib/include"}, cfg.IncludeDirs)
	require.Equal(t, []string{"/opt/zlib/lib"}, cfg.LibDirs)
	require.Equal(t, []string{"ZLIB_STATIC"}, cfg.Defines)
}
