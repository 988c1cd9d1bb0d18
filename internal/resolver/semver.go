// Package resolver implements the transitive dependency solver of §4.6:
// depth-first resolution with lockfile priority, cycle detection via an
// in-progress "resolving" set, and a fallback chain per dependency. This
// file implements the minimal, hand-rolled caret/tilde/exact/wildcard
// comparator the resolver itself uses — deliberately distinct from the
// richer github.com/Masterminds/semver/v3 facility that
// internal/registryclient uses for search, per §4.6's note that "a
// richer SemVer facility... is available for registry search but is not
// mandatory for basic resolution."
package resolver

import (
	"strconv"
	"strings"
)

type semverParts struct {
	major, minor, patch int
	hasMinor, hasPatch  bool
}

func parseSemverParts(s string) (semverParts, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "^"), "~")
	fields := strings.SplitN(s, ".", 3)
	var p semverParts
	var err error
	p.major, err = strconv.Atoi(fields[0])
	if err != nil {
		return semverParts{}, false
	}
	if len(fields) > 1 {
		p.minor, err = strconv.Atoi(fields[1])
		if err != nil {
			return semverParts{}, false
		}
		p.hasMinor = true
	}
	if len(fields) > 2 {
		p.patch, err = strconv.Atoi(fields[2])
		if err != nil {
			return semverParts{}, false
		}
		p.hasPatch = true
	}
	return p, true
}

// Satisfies reports whether version satisfies requirement, implementing
// §4.6's exact/wildcard/caret/tilde forms.
func Satisfies(requirement, version string) bool {
	switch {
	case requirement == "" || requirement == "*":
		return true
	case strings.HasPrefix(requirement, "^"):
		return satisfiesCaret(requirement, version)
	case strings.HasPrefix(requirement, "~"):
		return satisfiesTilde(requirement, version)
	default:
		return requirement == version
	}
}

// satisfiesCaret implements "^X.Y.Z matches V iff major(V)==X and
// (V.minor>Y or (V.minor==Y and V.patch>=Z))", with absent trailing
// constraint components short-circuiting the comparison (only present
// components are checked).
func satisfiesCaret(requirement, version string) bool {
	req, ok := parseSemverParts(requirement)
	if !ok {
		return false
	}
	ver, ok := parseSemverParts(version)
	if !ok {
		return false
	}
	if ver.major != req.major {
		return false
	}
	if !req.hasMinor {
		return true
	}
	if ver.minor > req.minor {
		return true
	}
	if ver.minor < req.minor {
		return false
	}
	if !req.hasPatch {
		return true
	}
	return ver.patch >= req.patch
}

// satisfiesTilde implements "~X.Y.Z matches V iff major(V)==X and
// minor(V)==Y and patch(V)>=Z", with the same short-circuit-on-absence
// rule as caret.
func satisfiesTilde(requirement, version string) bool {
	req, ok := parseSemverParts(requirement)
	if !ok {
		return false
	}
	ver, ok := parseSemverParts(version)
	if !ok {
		return false
	}
	if ver.major != req.major {
		return false
	}
	if !req.hasMinor {
		return true
	}
	if ver.minor != req.minor {
		return false
	}
	if !req.hasPatch {
		return true
	}
	return ver.patch >= req.patch
}
