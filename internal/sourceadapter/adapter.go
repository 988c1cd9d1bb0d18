// Package sourceadapter implements one adapter per depspec.SourceType:
// git, archive, path, registry, vcpkg, conan, system. Each adapter
// resolves a Dependency to a depspec.ResolvedPackage and fetches its
// content to a destination directory; none of them touch the cache
// index or the lockfile directly, per §4.2's adapter contract. The
// shared Commander-backed process abstraction is grounded on the
// teacher's pkg/exec.Commander, now living in pkg/executil.
package sourceadapter

import (
	"context"

	"github.com/donaldfilimon/ovo/internal/depspec"
)

// FetchResult is returned by every adapter's Fetch.
type FetchResult struct {
	Path         string
	ContentHash  string
	ResolvedRef  string
	FromCache    bool
}

// Adapter resolves and fetches one depspec.SourceType.
type Adapter interface {
	Type() depspec.SourceType
	Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error)
	Fetch(ctx context.Context, name string, source depspec.Source, dest string) (FetchResult, error)
}

// Options carries the cross-adapter configuration every adapter may
// consult: timeout and offline mode. It carries no target platform.
type Options struct {
	Timeout int // seconds; 0 means no timeout
	Offline bool
}
