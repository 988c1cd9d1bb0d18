package sourceadapter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/tooldetect"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/executil"
)

// LibrarySource records which of the three discovery stages produced a
// system library's BuildConfig.
type LibrarySource string

const (
	SourcePkgConfig LibrarySource = "pkg-config"
	SourceManual    LibrarySource = "manual-search"
	SourceEnvVar    LibrarySource = "env-var"
)

// LibraryInfo is the result of SystemAdapter's three-stage discovery.
type LibraryInfo struct {
	Build  depspec.BuildConfig
	Source LibrarySource
	Found  bool
}

// SystemAdapter discovers system-installed libraries in three ordered
// stages (pkg-config, manual search, env vars), per §4.2's "System"
// component design.
type SystemAdapter struct {
	Timeout      time.Duration
	ExtraInclude []string
	ExtraLib     []string
}

func (a SystemAdapter) Type() depspec.SourceType { return depspec.SourceSystem }

// Discover runs the three-stage search for pkgName, returning the first
// stage that produces a match.
func (a SystemAdapter) Discover(ctx context.Context, pkgName string, src depspec.SystemSource) (LibraryInfo, error) {
	if info, ok := a.viaPkgConfig(ctx, pkgName, src); ok {
		return info, nil
	}
	if info, ok := a.viaManualSearch(pkgName, src); ok {
		return info, nil
	}
	if info, ok := a.viaEnvVars(pkgName); ok {
		return info, nil
	}
	return LibraryInfo{}, ovoerrors.New(ovoerrors.LibraryNotFound, "no system installation found for "+pkgName)
}

func (a SystemAdapter) viaPkgConfig(ctx context.Context, pkgName string, src depspec.SystemSource) (LibraryInfo, bool) {
	bin, ok := tooldetect.FindPkgConfig()
	if !ok {
		return LibraryInfo{}, false
	}
	name := src.PkgConfigName
	if name == "" {
		name = pkgName
	}
	if _, err := executil.Run(ctx, a.Timeout, bin, "--exists", name); err != nil {
		return LibraryInfo{}, false
	}

	cflagsRes, err := executil.Run(ctx, a.Timeout, bin, "--cflags", name)
	if err != nil {
		return LibraryInfo{}, false
	}
	libsRes, err := executil.Run(ctx, a.Timeout, bin, "--libs", name)
	if err != nil {
		return LibraryInfo{}, false
	}

	cfg := depspec.BuildConfig{}
	for _, tok := range strings.Fields(cflagsRes.Stdout) {
		switch {
		case strings.HasPrefix(tok, "-I"):
			cfg.IncludeDirs = append(cfg.IncludeDirs, strings.TrimPrefix(tok, "-I"))
		case strings.HasPrefix(tok, "-D"):
			cfg.Defines = append(cfg.Defines, strings.TrimPrefix(tok, "-D"))
		default:
			cfg.CFlags = append(cfg.CFlags, tok)
		}
	}
	for _, tok := range strings.Fields(libsRes.Stdout) {
		switch {
		case strings.HasPrefix(tok, "-L"):
			cfg.LibDirs = append(cfg.LibDirs, strings.TrimPrefix(tok, "-L"))
		case strings.HasPrefix(tok, "-l"):
			cfg.Libraries = append(cfg.Libraries, strings.TrimPrefix(tok, "-l"))
		default:
			cfg.LDFlags = append(cfg.LDFlags, tok)
		}
	}
	return LibraryInfo{Build: cfg, Source: SourcePkgConfig, Found: true}, true
}

func (a SystemAdapter) viaManualSearch(pkgName string, src depspec.SystemSource) (LibraryInfo, bool) {
	includeDirs := append(append([]string(nil), tooldetect.SystemIncludeDirs()...), append(src.IncludePaths, a.ExtraInclude...)...)
	libDirs := append(append([]string(nil), tooldetect.SystemLibDirs()...), append(src.LibraryPaths, a.ExtraLib...)...)

	cfg := depspec.BuildConfig{}
	found := false
	for _, dir := range includeDirs {
		if _, err := os.Stat(filepath.Join(dir, pkgName+".h")); err == nil {
			cfg.IncludeDirs = append(cfg.IncludeDirs, dir)
			found = true
		}
	}
	for _, static := range []bool{false, true} {
		libName := "lib" + pkgName + tooldetect.LibraryExt(static)
		for _, dir := range libDirs {
			if _, err := os.Stat(filepath.Join(dir, libName)); err == nil {
				cfg.LibDirs = append(cfg.LibDirs, dir)
				cfg.Libraries = append(cfg.Libraries, pkgName)
				found = true
			}
		}
	}
	if !found {
		return LibraryInfo{}, false
	}
	return LibraryInfo{Build: cfg, Source: SourceManual, Found: true}, true
}

func (a SystemAdapter) viaEnvVars(pkgName string) (LibraryInfo, bool) {
	upper := strings.ToUpper(pkgName)
	includeDir := os.Getenv(upper + "_INCLUDE_DIR")
	libDir := os.Getenv(upper + "_LIB_DIR")
	if includeDir == "" && libDir == "" {
		return LibraryInfo{}, false
	}
	cfg := depspec.BuildConfig{}
	if includeDir != "" {
		cfg.IncludeDirs = append(cfg.IncludeDirs, includeDir)
	}
	if libDir != "" {
		cfg.LibDirs = append(cfg.LibDirs, libDir)
		cfg.Libraries = append(cfg.Libraries, pkgName)
	}
	return LibraryInfo{Build: cfg, Source: SourceEnvVar, Found: true}, true
}

func (a SystemAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	src, ok := source.(depspec.SystemSource)
	if !ok {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.InvalidReference, "not a system source")
	}
	info, err := a.Discover(ctx, name, src)
	if err != nil {
		return depspec.ResolvedPackage{}, err
	}
	build := info.Build
	return depspec.ResolvedPackage{
		Name:       name,
		Version:    version,
		SourceType: depspec.SourceSystem,
		SourceURL:  "system",
		Build:      &build,
	}, nil
}

// Fetch is a no-op for system sources: nothing is downloaded, per §4.3's
// cache-key table entry "system: ... no fetched content."
func (a SystemAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (FetchResult, error) {
	src, ok := source.(depspec.SystemSource)
	if !ok {
		return FetchResult{}, ovoerrors.New(ovoerrors.InvalidReference, "not a system source")
	}
	if _, err := a.Discover(ctx, name, src); err != nil {
		return FetchResult{}, err
	}
	return FetchResult{Path: "system"}, nil
}
