package depstring

import (
	"testing"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/stretchr/testify/require"
)

func TestParseGitLiteral(t *testing.T) {
	d, err := Parse("git:https://host/owner/repo.git#v1.0.0")
	require.NoError(t, err)
	require.Equal(t, "repo", d.Name)
	require.Equal(t, "v1.0.0", d.Version)
	src, ok := d.Source.(depspec.GitSource)
	require.True(t, ok)
	require.Equal(t, "https://host/owner/repo.git", src.URL)
	require.Equal(t, "v1.0.0", src.Ref)
}

func TestParseGitWithoutRef(t *testing.T) {
	d, err := Parse("git:https://host/owner/repo.git")
	require.NoError(t, err)
	require.Equal(t, "*", d.Version)
}

func TestParsePathBasename(t *testing.T) {
	d, err := Parse("path:./libs/foo")
	require.NoError(t, err)
	require.Equal(t, "foo", d.Name)
	require.Equal(t, "*", d.Version)
}

func TestParseVcpkgS3(t *testing.T) {
	d, err := Parse("vcpkg:openssl[tools,weak-ssl-ciphers]")
	require.NoError(t, err)
	require.Equal(t, "openssl", d.Name)
	require.Equal(t, "*", d.Version)
	src, ok := d.Source.(depspec.VcpkgSource)
	require.True(t, ok)
	require.Equal(t, []string{"tools", "weak-ssl-ciphers"}, src.Features)
}

func TestParseVcpkgWithoutFeatures(t *testing.T) {
	d, err := Parse("vcpkg:openssl")
	require.NoError(t, err)
	require.Empty(t, d.Source.(depspec.VcpkgSource).Features)
}

func TestParseConan(t *testing.T) {
	d, err := Parse("conan:zlib/1.2.13")
	require.NoError(t, err)
	require.Equal(t, "zlib", d.Name)
	src, ok := d.Source.(depspec.ConanSource)
	require.True(t, ok)
	require.Equal(t, "zlib/1.2.13", src.Reference)
}

func TestParseSystem(t *testing.T) {
	d, err := Parse("system:zlib")
	require.NoError(t, err)
	require.Equal(t, "zlib", d.Name)
	require.Equal(t, "*", d.Version)
}

func TestParseRegistryDefaultBareName(t *testing.T) {
	d, err := Parse("foo")
	require.NoError(t, err)
	require.Equal(t, "foo", d.Name)
	require.Equal(t, "*", d.Version)
	_, ok := d.Source.(depspec.RegistrySource)
	require.True(t, ok)
}

func TestParseRegistryWithVersion(t *testing.T) {
	d, err := Parse("foo@^1.2.0")
	require.NoError(t, err)
	require.Equal(t, "foo", d.Name)
	require.Equal(t, "^1.2.0", d.Version)
}

func TestParseRejectsEmptyString(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParseRejectsMalformedVcpkgBrackets(t *testing.T) {
	_, err := Parse("vcpkg:openssl[tools")
	require.Error(t, err)
}
