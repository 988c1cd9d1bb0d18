// Package config provides persistence for the package manager's user-level
// configuration (cache directory, lockfile behavior, offline mode, registry
// URL, vcpkg root override, parallel-download limit, timeout). Storage and
// load/save semantics are adapted from the teacher's ~/.mitl.json loader:
// a missing file is not an error, and saves are atomic.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds user-level defaults for the PackageManager façade. Any field
// left zero-valued falls back to the façade's built-in default.
type Config struct {
	CacheDir       string        `json:"cache_dir,omitempty"`
	LockfilePath   string        `json:"lockfile_path,omitempty"`
	Offline        bool          `json:"offline,omitempty"`
	RegistryURL    string        `json:"registry_url,omitempty"`
	VcpkgRoot      string        `json:"vcpkg_root,omitempty"`
	MaxParallel    int           `json:"max_parallel,omitempty"`
	TimeoutSeconds int           `json:"timeout_seconds,omitempty"`
	CacheTTL       time.Duration `json:"cache_ttl,omitempty"`
}

// Path returns the absolute path to the configuration file (~/.ovo/config.json).
func Path() string {
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE")
	}
	if home == "" {
		if wd, err := os.Getwd(); err == nil {
			return filepath.Join(wd, ".ovo", "config.json")
		}
	}
	return filepath.Join(home, ".ovo", "config.json")
}

// Load reads the configuration from disk. A missing file yields an empty,
// non-error Config so the façade can fall back to built-in defaults.
func Load() (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		// A malformed config is treated like a missing one: non-fatal.
		return &Config{}, nil
	}
	return &cfg, nil
}

// Save writes the configuration atomically: write to a temp file in the
// same directory, then rename over the destination, so a crash mid-write
// never corrupts a previously valid config.
func Save(cfg *Config) error {
	p := Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
