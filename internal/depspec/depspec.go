// Package depspec holds the data model shared by every other package
// package: declared Dependency values, resolved and locked packages, and
// the tagged-union Source variants describing where a package comes
// from. Deep-clone-on-insertion semantics (§9 "Deep-clone semantics")
// are implemented as plain value-returning Clone methods, since Go
// values already copy by assignment; only the map/slice fields need an
// explicit copy.
package depspec

import "time"

// SourceType tags a Source variant and doubles as the cache's
// source_type and the lockfile's source_type field.
type SourceType string

const (
	SourceGit      SourceType = "git"
	SourceArchive  SourceType = "archive"
	SourcePath     SourceType = "path"
	SourceRegistry SourceType = "registry"
	SourceVcpkg    SourceType = "vcpkg"
	SourceConan    SourceType = "conan"
	SourceSystem   SourceType = "system"
)

// Source is implemented by every concrete source-spec variant. Type
// switches over Type() stand in for the tagged union the original
// describes.
type Source interface {
	Type() SourceType
	Clone() Source
}

// GitSource fetches a package from a git remote.
type GitSource struct {
	URL       string
	Ref       string // branch, tag, or commit; empty means default branch
	Subdir    string
	Depth     int // 0 means default (1)
	Recursive bool
	AuthToken string
}

func (s GitSource) Type() SourceType { return SourceGit }
func (s GitSource) Clone() Source    { return s }

// ArchiveSource fetches and extracts a downloadable archive.
type ArchiveSource struct {
	URL          string
	Hash         string // optional expected sha256 hex
	StripPrefix  int
}

func (s ArchiveSource) Type() SourceType { return SourceArchive }
func (s ArchiveSource) Clone() Source    { return s }

// PathSource references a local directory, absolute or relative to a base.
type PathSource struct {
	Path string
}

func (s PathSource) Type() SourceType { return SourcePath }
func (s PathSource) Clone() Source    { return s }

// RegistrySource resolves against the configured package registry.
type RegistrySource struct {
	Name        string // defaults to the dependency's own name when empty
	RegistryURL string // overrides the façade's default registry
}

func (s RegistrySource) Type() SourceType { return SourceRegistry }
func (s RegistrySource) Clone() Source    { return s }

// VcpkgSource installs a package via a discovered vcpkg root.
type VcpkgSource struct {
	Name     string
	Features []string
	Triplet  string
}

func (s VcpkgSource) Type() SourceType { return SourceVcpkg }
func (s VcpkgSource) Clone() Source {
	clone := s
	clone.Features = append([]string(nil), s.Features...)
	return clone
}

// ConanSource installs a package via the conan package manager.
type ConanSource struct {
	Reference string // "name/version[@user/channel]"
	Options   []string
}

func (s ConanSource) Type() SourceType { return SourceConan }
func (s ConanSource) Clone() Source {
	clone := s
	clone.Options = append([]string(nil), s.Options...)
	return clone
}

// SystemSource resolves a library already installed on the host.
type SystemSource struct {
	PkgConfigName string
	IncludePaths  []string
	LibraryPaths  []string
	Libraries     []string
}

func (s SystemSource) Type() SourceType { return SourceSystem }
func (s SystemSource) Clone() Source {
	clone := s
	clone.IncludePaths = append([]string(nil), s.IncludePaths...)
	clone.LibraryPaths = append([]string(nil), s.LibraryPaths...)
	clone.Libraries = append([]string(nil), s.Libraries...)
	return clone
}

// Platform constrains a dependency to hosts matching the specified
// fields; unset fields are wildcards on both sides of a comparison.
type Platform struct {
	OS   string
	Arch string
	Libc string
}

// Matches reports whether p is compatible with target, treating unset
// fields on either side as wildcards, per §4.6's platform filter.
func (p Platform) Matches(target Platform) bool {
	if p.OS != "" && target.OS != "" && p.OS != target.OS {
		return false
	}
	if p.Arch != "" && target.Arch != "" && p.Arch != target.Arch {
		return false
	}
	if p.Libc != "" && target.Libc != "" && p.Libc != target.Libc {
		return false
	}
	return true
}

// Dependency is a declared requirement, produced by manifest parsing or
// the dependency-string parser (internal/depstring).
type Dependency struct {
	Name      string
	Version   string // semver range, tag, branch, commit id, or "*"
	Source    Source
	Optional  bool
	BuildOnly bool
	DevOnly   bool
	Platforms []Platform
	Fallbacks []Source
}

// Clone deep-copies d so ownership rules (§9 "String ownership") hold
// when a Dependency is retained past the scope that produced it.
func (d Dependency) Clone() Dependency {
	clone := d
	if d.Source != nil {
		clone.Source = d.Source.Clone()
	}
	if d.Platforms != nil {
		clone.Platforms = append([]Platform(nil), d.Platforms...)
	}
	if d.Fallbacks != nil {
		clone.Fallbacks = make([]Source, len(d.Fallbacks))
		for i, f := range d.Fallbacks {
			clone.Fallbacks[i] = f.Clone()
		}
	}
	return clone
}

// BuildConfig carries the compiler/linker inputs a source adapter
// discovers (system libraries, vcpkg/conan build info).
type BuildConfig struct {
	IncludeDirs []string
	LibDirs     []string
	Libraries   []string
	Defines     []string
	CFlags      []string
	LDFlags     []string
}

// Clone deep-copies the slice fields.
func (b BuildConfig) Clone() BuildConfig {
	return BuildConfig{
		IncludeDirs: append([]string(nil), b.IncludeDirs...),
		LibDirs:     append([]string(nil), b.LibDirs...),
		Libraries:   append([]string(nil), b.Libraries...),
		Defines:     append([]string(nil), b.Defines...),
		CFlags:      append([]string(nil), b.CFlags...),
		LDFlags:     append([]string(nil), b.LDFlags...),
	}
}

// ResolvedPackage is an exact resolution: a name and version nailed to a
// concrete source.
type ResolvedPackage struct {
	Name         string
	Version      string
	SourceType   SourceType
	SourceURL    string // canonical location: git url, archive url, path, etc.
	ResolvedHash string // git commit id or archive content hash, if any
	Dependencies []string
	Build        *BuildConfig
}

// Clone deep-copies rp.
func (rp ResolvedPackage) Clone() ResolvedPackage {
	clone := rp
	clone.Dependencies = append([]string(nil), rp.Dependencies...)
	if rp.Build != nil {
		b := rp.Build.Clone()
		clone.Build = &b
	}
	return clone
}

// LockedPackage is the persisted form of a ResolvedPackage.
type LockedPackage struct {
	Name          string
	Version       string
	SourceType    SourceType
	SourceURL     string
	ResolvedHash  string
	IntegrityHash string
	Dependencies  []string
	LockedAt      time.Time
	Platform      *Platform
}

// Clone deep-copies lp.
func (lp LockedPackage) Clone() LockedPackage {
	clone := lp
	clone.Dependencies = append([]string(nil), lp.Dependencies...)
	if lp.Platform != nil {
		p := *lp.Platform
		clone.Platform = &p
	}
	return clone
}

// FromResolved converts a ResolvedPackage into its persisted form.
func FromResolved(rp ResolvedPackage, integrityHash string, lockedAt time.Time) LockedPackage {
	return LockedPackage{
		Name:          rp.Name,
		Version:       rp.Version,
		SourceType:    rp.SourceType,
		SourceURL:     rp.SourceURL,
		ResolvedHash:  rp.ResolvedHash,
		IntegrityHash: integrityHash,
		Dependencies:  append([]string(nil), rp.Dependencies...),
		LockedAt:      lockedAt,
	}
}

// Stats accumulates resolution counters for a ResolutionResult.
type Stats struct {
	Total         int
	FromLockfile  int
	NewlyResolved int
	FallbacksUsed int
	ElapsedMS     int64
}

// ResolutionResult is the output of a full resolve, closed under
// transitive dependencies.
type ResolutionResult struct {
	Packages map[string]ResolvedPackage
	Roots    []string
	Warnings []string
	Stats    Stats
}

// NewResolutionResult returns an empty, ready-to-populate result.
func NewResolutionResult() *ResolutionResult {
	return &ResolutionResult{Packages: make(map[string]ResolvedPackage)}
}
