package registryclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, packages map[string]PackageMetadata) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for name, meta := range packages {
		meta := meta
		mux.HandleFunc("/packages/"+name, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(meta)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveVersionLatest(t *testing.T) {
	srv := newTestServer(t, map[string]PackageMetadata{
		"foo": {Name: "foo", LatestVersion: "2.0.0", Versions: []string{"1.0.0", "2.0.0"}},
	})
	c := NewClient(srv.URL, time.Minute)
	v, err := c.ResolveVersion(context.Background(), "foo", "latest")
	require.NoError(t, err)
	require.Equal(t, "2.0.0", v)
}

func TestResolveVersionCaret(t *testing.T) {
	srv := newTestServer(t, map[string]PackageMetadata{
		"foo": {Name: "foo", LatestVersion: "2.0.0", Versions: []string{"1.0.0", "1.2.4", "1.3.0", "2.0.0"}},
	})
	c := NewClient(srv.URL, time.Minute)
	v, err := c.ResolveVersion(context.Background(), "foo", "^1.2.0")
	require.NoError(t, err)
	require.Equal(t, "1.3.0", v)
}

func TestResolveVersionNotFound(t *testing.T) {
	srv := newTestServer(t, map[string]PackageMetadata{
		"foo": {Name: "foo", LatestVersion: "1.0.0", Versions: []string{"1.0.0"}},
	})
	c := NewClient(srv.URL, time.Minute)
	_, err := c.ResolveVersion(context.Background(), "foo", "9.9.9")
	require.Error(t, err)
}

func TestRequestCachesWithinTTL(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/packages/foo", func(w http.ResponseWriter, r *http.Request) {
		hits++
		_ = json.NewEncoder(w).Encode(PackageMetadata{Name: "foo", LatestVersion: "1.0.0"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Minute)
	_, err := c.GetPackage(context.Background(), "foo")
	require.NoError(t, err)
	_, err = c.GetPackage(context.Background(), "foo")
	require.NoError(t, err)
	require.Equal(t, 1, hits)
}

func TestOfflineRegistryResolveVersion(t *testing.T) {
	dir := t.TempDir()
	meta := PackageMetadata{Name: "foo", LatestVersion: "1.0.0", Versions: []string{"1.0.0"}}
	b, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.json"), b, 0o644))

	reg := OfflineRegistry{Dir: dir}
	v, err := reg.ResolveVersion("foo", "*")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", v)

	_, err = reg.GetPackage("missing")
	require.Error(t, err)
}
