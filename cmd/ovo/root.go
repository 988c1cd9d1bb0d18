package main

import (
	"time"

	"github.com/donaldfilimon/ovo/internal/config"
	"github.com/donaldfilimon/ovo/internal/manager"
	"github.com/spf13/cobra"
)

// globalFlags are bound once on the root command and read by every
// subcommand.
type globalFlags struct {
	cacheDir       string
	lockfile       string
	offline        bool
	registryURL    string
	registryMirror string
	vcpkgRoot      string
	maxParallel    int
	timeoutSecs    int
	cacheTTLMins   int
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	flags := &globalFlags{
		cacheDir:     firstNonEmpty(cfg.CacheDir, defaultCacheDir()),
		lockfile:     firstNonEmpty(cfg.LockfilePath, "ovo.lock"),
		offline:      cfg.Offline,
		registryURL:  cfg.RegistryURL,
		vcpkgRoot:    cfg.VcpkgRoot,
		maxParallel:  intOr(cfg.MaxParallel, 4),
		timeoutSecs:  cfg.TimeoutSeconds,
		cacheTTLMins: int(cfg.CacheTTL / time.Minute),
	}

	root := &cobra.Command{
		Use:   "ovo",
		Short: "ovo manages native-code package dependencies across git, archive, registry, vcpkg, conan, and system sources",
	}

	root.PersistentFlags().StringVar(&flags.cacheDir, "cache-dir", flags.cacheDir, "cache directory root")
	root.PersistentFlags().StringVar(&flags.lockfile, "lockfile", flags.lockfile, "lockfile path")
	root.PersistentFlags().BoolVar(&flags.offline, "offline", flags.offline, "resolve and fetch only from the lockfile and cache")
	root.PersistentFlags().StringVar(&flags.registryURL, "registry", flags.registryURL, "registry base URL")
	root.PersistentFlags().StringVar(&flags.registryMirror, "registry-mirror", flags.registryMirror, "offline registry mirror directory (used when --offline is set; defaults to <cache-dir>/registry-mirror)")
	root.PersistentFlags().StringVar(&flags.vcpkgRoot, "vcpkg-root", flags.vcpkgRoot, "vcpkg installation root (overrides VCPKG_ROOT)")
	root.PersistentFlags().IntVar(&flags.maxParallel, "max-parallel", flags.maxParallel, "maximum concurrent fetches")
	root.PersistentFlags().IntVar(&flags.timeoutSecs, "timeout", flags.timeoutSecs, "per-operation timeout in seconds (0 = no timeout)")

	root.AddCommand(
		newResolveCmd(flags),
		newInstallCmd(flags),
		newUpdateCmd(flags),
		newVerifyCmd(flags),
		newCleanCmd(flags),
		newCacheCmd(flags),
		newDoctorCmd(flags),
	)
	return root
}

func (f *globalFlags) managerConfig() manager.Config {
	return manager.Config{
		CacheDir:          f.cacheDir,
		LockfilePath:      f.lockfile,
		UseLockfile:       true,
		Offline:           f.offline,
		RegistryURL:       f.registryURL,
		RegistryMirrorDir: f.registryMirror,
		VcpkgRoot:         f.vcpkgRoot,
		MaxParallel:       f.maxParallel,
		TimeoutSeconds:    f.timeoutSecs,
		CacheTTL:          time.Duration(f.cacheTTLMins) * time.Minute,
	}
}

func defaultCacheDir() string {
	home := homeDir()
	if home == "" {
		return ".ovo-cache"
	}
	return home + "/.ovo/cache"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func intOr(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
