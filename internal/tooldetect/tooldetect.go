// Package tooldetect locates the external binaries the source adapters
// shell out to (git, curl, tar, unzip, pkg-config/pkgconf, vcpkg, conan),
// plus the standard install locations for vcpkg and conan when they are
// not simply on PATH. The ordered-candidate-list-plus-env-override idiom
// is adapted from the teacher's container runtime auto-detection
// (internal/container/runtime.go in mitl), generalized from "pick the
// fastest container engine" to "find the tool this adapter needs".
package tooldetect

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/donaldfilimon/ovo/pkg/executil"
)

// Tool names used throughout the adapters and §6's external-binaries list.
const (
	Git       = "git"
	Curl      = "curl"
	Tar       = "tar"
	Unzip     = "unzip"
	PkgConfig = "pkg-config"
	Pkgconf   = "pkgconf"
	Vcpkg     = "vcpkg"
	Conan     = "conan"
)

// Find locates a binary by name, honoring PATH only. Returns ("", false)
// when not found.
func Find(name string) (string, bool) {
	return executil.LookPath(name)
}

// FindPkgConfig prefers pkgconf, falling back to pkg-config, mirroring the
// spec's "pkg-config (or pkgconf)" wording in §4.2. The PKG_CONFIG env var
// (§6) overrides both when set and resolvable.
func FindPkgConfig() (string, bool) {
	if env := os.Getenv("PKG_CONFIG"); env != "" {
		if p, ok := Find(env); ok {
			return p, true
		}
	}
	if p, ok := Find(Pkgconf); ok {
		return p, true
	}
	return Find(PkgConfig)
}

// FindVcpkgRoot resolves VCPKG_ROOT or a set of common home-relative
// install locations, per §4.2's "Discovers a vcpkg install via VCPKG_ROOT
// env or common home-relative locations."
func FindVcpkgRoot() (string, bool) {
	if env := os.Getenv("VCPKG_ROOT"); env != "" {
		if isDir(env) {
			return env, true
		}
	}
	for _, candidate := range vcpkgCandidates() {
		if isDir(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func vcpkgCandidates() []string {
	home := userHome()
	if home == "" {
		return nil
	}
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(home, "vcpkg"),
			`C:\vcpkg`,
			`C:\tools\vcpkg`,
		}
	case "darwin":
		return []string{
			filepath.Join(home, "vcpkg"),
			filepath.Join(home, ".vcpkg"),
			"/usr/local/vcpkg",
			"/opt/homebrew/vcpkg",
		}
	default:
		return []string{
			filepath.Join(home, "vcpkg"),
			filepath.Join(home, ".vcpkg"),
			"/usr/local/vcpkg",
			"/opt/vcpkg",
		}
	}
}

// FindConanHome resolves CONAN_USER_HOME, falling back to HOME/.conan2.
// The returned path is not checked for existence.
func FindConanHome() string {
	if env := os.Getenv("CONAN_USER_HOME"); env != "" {
		return env
	}
	home := userHome()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".conan2")
}

func userHome() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	if h := os.Getenv("USERPROFILE"); h != "" {
		return h
	}
	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// SystemIncludeDirs returns the built-in search paths for the system
// adapter's manual header search (§4.2 stage 2).
func SystemIncludeDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/usr/include", "/usr/local/include", "/opt/homebrew/include"}
	case "windows":
		return nil
	default:
		return []string{"/usr/include", "/usr/local/include"}
	}
}

// SystemLibDirs returns the built-in search paths for the system adapter's
// manual library search (§4.2 stage 2).
func SystemLibDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/usr/lib", "/usr/local/lib", "/opt/homebrew/lib"}
	case "windows":
		return nil
	default:
		return []string{"/usr/lib", "/usr/lib64", "/usr/local/lib"}
	}
}

// LibraryExt returns ".a" when static is set, and otherwise the
// OS-appropriate shared-library extension.
func LibraryExt(static bool) string {
	if static {
		return ".a"
	}
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}
