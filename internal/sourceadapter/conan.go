package sourceadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/tooldetect"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/executil"
)

// ConanReference is a parsed "name/version[@user/channel]" reference,
// per S2's literal scenario.
type ConanReference struct {
	Name    string
	Version string
	User    string
	Channel string
}

var conanRefPattern = regexp.MustCompile(`^([^/]+)/([^@]+)(?:@([^/]*)/([^/]*))?$`)

// ParseConanReference parses s into its components.
func ParseConanReference(s string) (ConanReference, error) {
	m := conanRefPattern.FindStringSubmatch(s)
	if m == nil {
		return ConanReference{}, ovoerrors.New(ovoerrors.InvalidReference, "malformed conan reference "+s)
	}
	return ConanReference{Name: m[1], Version: m[2], User: m[3], Channel: m[4]}, nil
}

// String renders the reference back to "name/version[@user/channel]",
// round-tripping S2's literal.
func (r ConanReference) String() string {
	if r.User == "" && r.Channel == "" {
		return r.Name + "/" + r.Version
	}
	return fmt.Sprintf("%s/%s@%s/%s", r.Name, r.Version, r.User, r.Channel)
}

// ConanAdapter installs packages via the conan package manager, grounded
// on §4.2's "Conan" component design.
type ConanAdapter struct {
	Timeout   time.Duration
	Offline   bool
	OutputDir string
}

func (a ConanAdapter) Type() depspec.SourceType { return depspec.SourceConan }

func hostSettings() (os_, arch string) {
	switch runtime.GOOS {
	case "darwin":
		os_ = "Macos"
	case "windows":
		os_ = "Windows"
	default:
		os_ = "Linux"
	}
	switch runtime.GOARCH {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "armv8"
	default:
		arch = runtime.GOARCH
	}
	return
}

func (a ConanAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	src, ok := source.(depspec.ConanSource)
	if !ok {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.InvalidReference, "not a conan source")
	}
	ref, err := ParseConanReference(src.Reference)
	if err != nil {
		return depspec.ResolvedPackage{}, err
	}
	return depspec.ResolvedPackage{
		Name:       name,
		Version:    ref.Version,
		SourceType: depspec.SourceConan,
		SourceURL:  ref.String(),
	}, nil
}

// InstallOptions configures a conan install invocation.
type InstallOptions struct {
	Profile      string
	Options      []string
	BuildMissing bool
}

func (a ConanAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (FetchResult, error) {
	if a.Offline {
		return FetchResult{}, ovoerrors.New(ovoerrors.NetworkError, "offline: cannot run conan install")
	}
	src, ok := source.(depspec.ConanSource)
	if !ok {
		return FetchResult{}, ovoerrors.New(ovoerrors.InvalidReference, "not a conan source")
	}
	conanBin, ok := tooldetect.Find(tooldetect.Conan)
	if !ok {
		return FetchResult{}, ovoerrors.New(ovoerrors.ConanNotFound, "conan binary not found")
	}

	osName, arch := hostSettings()
	args := []string{
		"install", src.Reference,
		"-s", "build_type=Release",
		"-s", "os=" + osName,
		"-s", "arch=" + arch,
		"-of", dest,
	}
	for _, opt := range src.Options {
		args = append(args, "-o", opt)
	}
	args = append(args, "--build=missing")

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.InstallFailed, "cannot create conan output dir")
	}
	if _, err := executil.Run(ctx, a.Timeout, conanBin, args...); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.InstallFailed, "conan install failed")
	}
	return FetchResult{Path: dest}, nil
}

// conanBuildInfoJSON models the subset of conanbuildinfo.json consumed by
// GetBuildInfo.
type conanBuildInfoJSON struct {
	Dependencies []struct {
		IncludePaths []string `json:"include_paths"`
		LibPaths     []string `json:"lib_paths"`
		BinPaths     []string `json:"bin_paths"`
		Libs         []string `json:"libs"`
		Defines      []string `json:"defines"`
	} `json:"dependencies"`
}

// GetBuildInfo parses conanbuildinfo.json under dir, collecting each
// dependency's include/lib paths and libs/defines (bin paths are parsed
// but not carried into the BuildConfig), falling back to a grep-style
// scan of conan_toolchain.cmake when the JSON file is absent.
func (a ConanAdapter) GetBuildInfo(dir string) (depspec.BuildConfig, error) {
	jsonPath := filepath.Join(dir, "conanbuildinfo.json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		var parsed conanBuildInfoJSON
		if err := json.Unmarshal(data, &parsed); err != nil {
			return depspec.BuildConfig{}, ovoerrors.Wrap(err, ovoerrors.InvalidManifest, "malformed conanbuildinfo.json")
		}
		cfg := depspec.BuildConfig{}
		for _, dep := range parsed.Dependencies {
			cfg.IncludeDirs = append(cfg.IncludeDirs, dep.IncludePaths...)
			cfg.LibDirs = append(cfg.LibDirs, dep.LibPaths...)
			cfg.Libraries = append(cfg.Libraries, dep.Libs...)
			cfg.Defines = append(cfg.Defines, dep.Defines...)
		}
		return cfg, nil
	}

	toolchainPath := filepath.Join(dir, "conan_toolchain.cmake")
	data, err := os.ReadFile(toolchainPath)
	if err != nil {
		return depspec.BuildConfig{}, ovoerrors.Wrap(err, ovoerrors.InstallFailed, "no conanbuildinfo.json or conan_toolchain.cmake in "+dir)
	}
	return parseToolchainCmake(string(data)), nil
}

var cmakeListPattern = regexp.MustCompile(`set\(\s*(\w+)\s+((?:"[^"]*"\s*)+)\)`)

func parseToolchainCmake(content string) depspec.BuildConfig {
	cfg := depspec.BuildConfig{}
	for _, m := range cmakeListPattern.FindAllStringSubmatch(content, -1) {
		var values []string
		for _, raw := range regexp.MustCompile(`"([^"]*)"`).FindAllStringSubmatch(m[2], -1) {
			if raw[1] != "" {
				values = append(values, raw[1])
			}
		}
		switch {
		case strings.Contains(m[1], "INCLUDE"):
			cfg.IncludeDirs = append(cfg.IncludeDirs, values...)
		case strings.Contains(m[1], "LIB") && strings.Contains(m[1], "DIR"):
			cfg.LibDirs = append(cfg.LibDirs, values...)
		case strings.Contains(m[1], "DEFINE"):
			cfg.Defines = append(cfg.Defines, values...)
		}
	}
	return cfg
}
