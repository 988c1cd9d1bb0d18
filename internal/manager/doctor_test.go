package manager

import (
	"path/filepath"
	"testing"

	"github.com/donaldfilimon/ovo/internal/cache"
	"github.com/stretchr/testify/require"
)

func TestDoctorRunProducesScoredReport(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(filepath.Join(dir, "cache"), 0)
	d := NewDoctor(Config{LockfilePath: filepath.Join(dir, "sub", "ovo.lock")}, c, false)

	report, results := d.Run()
	require.Equal(t, len(results), report.TotalChecks)
	require.GreaterOrEqual(t, report.Score, 0)
	require.LessOrEqual(t, report.Score, 100)
}

func TestConfigDirCheckDetectsMissingAndFixes(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "config")
	check := &ConfigDirCheck{Dir: target}

	res := check.Run()
	require.Equal(t, StatusWarning, res.Status)

	require.NoError(t, check.Fix())

	res = check.Run()
	require.Equal(t, StatusOK, res.Status)
}

func TestCacheHealthCheckReportsStatsAndFixCleans(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir, 0)
	check := &CacheHealthCheck{Cache: c}

	res := check.Run()
	require.Equal(t, StatusOK, res.Status)
	require.NoError(t, check.Fix())
}

func TestCacheHealthCheckWithNilCache(t *testing.T) {
	check := &CacheHealthCheck{}
	res := check.Run()
	require.Equal(t, StatusWarning, res.Status)
	require.NoError(t, check.Fix())
}
