package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	old := os.Getenv("HOME")
	require.NoError(t, os.Setenv("HOME", tmp))
	t.Cleanup(func() { _ = os.Setenv("HOME", old) })
	return tmp
}

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	withHome(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, &Config{}, cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	withHome(t)
	cfg := &Config{CacheDir: "/tmp/ovo-cache", Offline: true, MaxParallel: 4}
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestSaveIsAtomic(t *testing.T) {
	home := withHome(t)
	require.NoError(t, Save(&Config{CacheDir: "a"}))
	_, err := os.Stat(filepath.Join(home, ".ovo", "config.json.tmp"))
	require.True(t, os.IsNotExist(err))
}

func TestLoadMalformedFileIsNonFatal(t *testing.T) {
	withHome(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(Path()), 0o755))
	require.NoError(t, os.WriteFile(Path(), []byte("{not json"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, &Config{}, cfg)
}
