package sourceadapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/tooldetect"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/executil"
)

// VcpkgAdapter installs packages through a discovered vcpkg root,
// grounded on §4.2's "vcpkg" component design: triplet derivation from
// host os+arch, BuildInfo scraped from the installed tree.
type VcpkgAdapter struct {
	Root    string // resolved VCPKG_ROOT, or discovered via tooldetect.FindVcpkgRoot
	Timeout time.Duration
	Offline bool
}

func (a VcpkgAdapter) Type() depspec.SourceType { return depspec.SourceVcpkg }

func (a VcpkgAdapter) root() (string, error) {
	if a.Root != "" {
		return a.Root, nil
	}
	if root, ok := tooldetect.FindVcpkgRoot(); ok {
		return root, nil
	}
	return "", ovoerrors.New(ovoerrors.VcpkgNotFound, "no vcpkg installation found")
}

// DefaultTriplet derives "<arch>-<os>[-static]" from the host, per the
// spec's example literals x64-linux, arm64-osx, x64-windows-static.
func DefaultTriplet(static bool) string {
	var arch string
	switch runtime.GOARCH {
	case "amd64":
		arch = "x64"
	case "arm64":
		arch = "arm64"
	case "386":
		arch = "x86"
	default:
		arch = runtime.GOARCH
	}
	var osName string
	switch runtime.GOOS {
	case "darwin":
		osName = "osx"
	case "windows":
		osName = "windows"
	default:
		osName = "linux"
	}
	triplet := arch + "-" + osName
	if static {
		triplet += "-static"
	}
	return triplet
}

func (a VcpkgAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	src, ok := source.(depspec.VcpkgSource)
	if !ok {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.InvalidReference, "not a vcpkg source")
	}
	root, err := a.root()
	if err != nil {
		return depspec.ResolvedPackage{}, err
	}
	pkgName := src.Name
	if pkgName == "" {
		pkgName = name
	}
	triplet := src.Triplet
	if triplet == "" {
		triplet = DefaultTriplet(false)
	}
	return depspec.ResolvedPackage{
		Name:       name,
		Version:    version,
		SourceType: depspec.SourceVcpkg,
		SourceURL:  filepath.Join(root, "installed", triplet),
	}, nil
}

func (a VcpkgAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (FetchResult, error) {
	if a.Offline {
		return FetchResult{}, ovoerrors.New(ovoerrors.NetworkError, "offline: cannot run vcpkg install")
	}
	src, ok := source.(depspec.VcpkgSource)
	if !ok {
		return FetchResult{}, ovoerrors.New(ovoerrors.InvalidReference, "not a vcpkg source")
	}
	root, err := a.root()
	if err != nil {
		return FetchResult{}, err
	}
	vcpkgBin, ok := tooldetect.Find(tooldetect.Vcpkg)
	if !ok {
		vcpkgBin = filepath.Join(root, "vcpkg")
	}
	pkgName := src.Name
	if pkgName == "" {
		pkgName = name
	}
	triplet := src.Triplet
	if triplet == "" {
		triplet = DefaultTriplet(false)
	}

	spec := pkgName
	if len(src.Features) > 0 {
		spec += "[" + strings.Join(src.Features, ",") + "]"
	}
	spec += ":" + triplet

	if _, err := executil.Run(ctx, a.Timeout, vcpkgBin, "install", spec); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.InstallFailed, "vcpkg install failed")
	}

	installedDir := filepath.Join(root, "installed", triplet)
	return FetchResult{Path: installedDir}, nil
}

// GetBuildInfo looks under <vcpkg_root>/installed/<triplet>: it adds the
// include directory when present, and lists lib, matching library names
// by substring against pkgName. The bin directory is not scanned.
func (a VcpkgAdapter) GetBuildInfo(pkgName, triplet string) (depspec.BuildConfig, error) {
	root, err := a.root()
	if err != nil {
		return depspec.BuildConfig{}, err
	}
	base := filepath.Join(root, "installed", triplet)
	cfg := depspec.BuildConfig{}

	includeDir := filepath.Join(base, "include")
	if info, statErr := os.Stat(includeDir); statErr == nil && info.IsDir() {
		cfg.IncludeDirs = append(cfg.IncludeDirs, includeDir)
	}
	libDir := filepath.Join(base, "lib")
	entries, _ := os.ReadDir(libDir)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name()), strings.ToLower(pkgName)) {
			cfg.Libraries = append(cfg.Libraries, e.Name())
		}
	}
	if len(cfg.Libraries) > 0 {
		cfg.LibDirs = append(cfg.LibDirs, libDir)
	}
	return cfg, nil
}

// ListInstalled enumerates the triplet directories under
// <root>/installed.
func (a VcpkgAdapter) ListInstalled() ([]string, error) {
	root, err := a.root()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(root, "installed"))
	if err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.VcpkgNotFound, "cannot list installed vcpkg packages")
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Search runs `vcpkg search <query>`.
func (a VcpkgAdapter) Search(ctx context.Context, query string) (string, error) {
	vcpkgBin, ok := tooldetect.Find(tooldetect.Vcpkg)
	if !ok {
		return "", ovoerrors.New(ovoerrors.VcpkgNotFound, "vcpkg binary not found")
	}
	res, err := executil.Run(ctx, a.Timeout, vcpkgBin, "search", query)
	if err != nil {
		return "", ovoerrors.Wrap(err, ovoerrors.CommandFailed, "vcpkg search failed")
	}
	return res.Stdout, nil
}

// Remove runs `vcpkg remove <name>:<triplet>`.
func (a VcpkgAdapter) Remove(ctx context.Context, pkgName, triplet string) error {
	vcpkgBin, ok := tooldetect.Find(tooldetect.Vcpkg)
	if !ok {
		return ovoerrors.New(ovoerrors.VcpkgNotFound, "vcpkg binary not found")
	}
	if _, err := executil.Run(ctx, a.Timeout, vcpkgBin, "remove", fmt.Sprintf("%s:%s", pkgName, triplet)); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.CommandFailed, "vcpkg remove failed")
	}
	return nil
}
