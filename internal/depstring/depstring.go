// Package depstring implements the dependency-string parser of §4.7: the
// six prefix grammars (git:, path:, vcpkg:, conan:, system:, and the
// bare-name registry default) a manifest or CLI argument may use to
// declare a dependency without the full struct form.
package depstring

import (
	"path"
	"strings"

	"github.com/donaldfilimon/ovo/internal/depspec"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
)

// Parse converts a single dependency-string surface form into a
// depspec.Dependency, per §4.7's table.
func Parse(s string) (depspec.Dependency, error) {
	switch {
	case strings.HasPrefix(s, "git:"):
		return parseGit(strings.TrimPrefix(s, "git:"))
	case strings.HasPrefix(s, "path:"):
		return parsePath(strings.TrimPrefix(s, "path:"))
	case strings.HasPrefix(s, "vcpkg:"):
		return parseVcpkg(strings.TrimPrefix(s, "vcpkg:"))
	case strings.HasPrefix(s, "conan:"):
		return parseConan(strings.TrimPrefix(s, "conan:"))
	case strings.HasPrefix(s, "system:"):
		return parseSystem(strings.TrimPrefix(s, "system:"))
	default:
		return parseRegistry(s)
	}
}

// parseGit handles "git:https://host/owner/repo.git#v1" -> url +
// optional #ref, name derived from the last URL segment stripped of
// ".git", per the spec's literal `git:https://host/owner/repo.git#v1.0.0`
// → name=repo, version=v1.0.0.
func parseGit(rest string) (depspec.Dependency, error) {
	if rest == "" {
		return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidReference, "empty git dependency string")
	}
	url, ref, _ := strings.Cut(rest, "#")
	segments := strings.Split(strings.TrimSuffix(url, "/"), "/")
	last := segments[len(segments)-1]
	name := strings.TrimSuffix(last, ".git")
	if name == "" {
		return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidReference, "cannot derive name from git url "+url)
	}
	version := ref
	if version == "" {
		version = "*"
	}
	return depspec.Dependency{
		Name:    name,
		Version: version,
		Source:  depspec.GitSource{URL: url, Ref: ref},
	}, nil
}

// parsePath handles "path:./libs/foo" -> name = basename.
func parsePath(rest string) (depspec.Dependency, error) {
	if rest == "" {
		return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidReference, "empty path dependency string")
	}
	name := path.Base(strings.TrimSuffix(rest, "/"))
	return depspec.Dependency{
		Name:    name,
		Version: "*",
		Source:  depspec.PathSource{Path: rest},
	}, nil
}

// parseVcpkg handles "vcpkg:openssl[tools,weak-ssl-ciphers]" -> parsed
// feature list, version "*", per S3's literal scenario.
func parseVcpkg(rest string) (depspec.Dependency, error) {
	if rest == "" {
		return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidReference, "empty vcpkg dependency string")
	}
	name := rest
	var features []string
	if open := strings.IndexByte(rest, '['); open >= 0 {
		closeIdx := strings.IndexByte(rest, ']')
		if closeIdx < open {
			return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidReference, "malformed vcpkg feature list in "+rest)
		}
		name = rest[:open]
		featureList := rest[open+1 : closeIdx]
		for _, f := range strings.Split(featureList, ",") {
			f = strings.TrimSpace(f)
			if f != "" {
				features = append(features, f)
			}
		}
	}
	return depspec.Dependency{
		Name:    name,
		Version: "*",
		Source:  depspec.VcpkgSource{Name: name, Features: features},
	}, nil
}

// parseConan handles "conan:zlib/1.2.13" -> full reference preserved,
// name = substring before "/".
func parseConan(rest string) (depspec.Dependency, error) {
	name, _, found := strings.Cut(rest, "/")
	if !found || name == "" {
		return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidReference, "malformed conan dependency string "+rest)
	}
	return depspec.Dependency{
		Name:    name,
		Version: "*",
		Source:  depspec.ConanSource{Reference: rest},
	}, nil
}

// parseSystem handles "system:zlib" -> version "*".
func parseSystem(rest string) (depspec.Dependency, error) {
	if rest == "" {
		return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidReference, "empty system dependency string")
	}
	return depspec.Dependency{
		Name:    rest,
		Version: "*",
		Source:  depspec.SystemSource{PkgConfigName: rest},
	}, nil
}

// parseRegistry handles the bare-name default: "name" or "name@req".
func parseRegistry(s string) (depspec.Dependency, error) {
	if s == "" {
		return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidPackageName, "empty dependency string")
	}
	name, version, found := strings.Cut(s, "@")
	if !found {
		version = "*"
	}
	if name == "" {
		return depspec.Dependency{}, ovoerrors.New(ovoerrors.InvalidPackageName, "empty package name in "+s)
	}
	if version == "" {
		version = "*"
	}
	return depspec.Dependency{
		Name:    name,
		Version: version,
		Source:  depspec.RegistrySource{Name: name},
	}, nil
}
