package cache

import "github.com/donaldfilimon/ovo/internal/depspec"

// Key derives the cache key for a dependency name and its resolved
// source, per §4.3's per-source-type derivation table. Path sources
// have no cache key (resolved in place) and return "".
//
// contentHash is the caller-supplied expected archive hash, not a
// post-fetch result: Key is always called before the adapter runs
// (Fetcher.Fetch consults the cache before fetching), so when an
// archive dependency has no pre-declared hash there is nothing derived
// yet to key on. In that case the key falls back to the archive URL,
// which is known up front and still distinguishes one archive
// dependency from another.
func Key(name string, src depspec.Source, version string, contentHash string) string {
	switch s := src.(type) {
	case depspec.GitSource:
		if s.Ref != "" {
			return "git:" + s.URL + "@" + s.Ref
		}
		return "git:" + s.URL
	case depspec.ArchiveSource:
		if s.Hash != "" {
			return "archive:" + s.Hash
		}
		if contentHash != "" {
			return "archive:" + contentHash
		}
		return "archive:" + s.URL
	case depspec.PathSource:
		return ""
	case depspec.VcpkgSource:
		n := s.Name
		if n == "" {
			n = name
		}
		return "vcpkg:" + n + "@" + version
	case depspec.ConanSource:
		return "conan:" + s.Reference
	case depspec.SystemSource:
		return "system:" + name
	case depspec.RegistrySource:
		n := s.Name
		if n == "" {
			n = name
		}
		return "registry:" + n + "@" + version
	default:
		return ""
	}
}
