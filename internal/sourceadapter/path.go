package sourceadapter

import (
	"context"
	"os"
	"path/filepath"

	"github.com/donaldfilimon/ovo/internal/depspec"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/gobwas/glob"
)

// manifestNames lists the filenames a path dependency is searched for,
// in priority order, per §4.2's "Path" component design.
var manifestNames = []string{"build.zon", "ovo.zon", "build.zig.zon", "build.zig"}

// maxSymlinkDepth bounds the visited-set walk guarding against symlink
// loops when resolving a path dependency.
const maxSymlinkDepth = 40

// PathAdapter resolves dependencies referenced by local directory, either
// relative to a base directory or absolute.
type PathAdapter struct {
	BaseDir string
	Symlink bool // true = symlink into dest, false = use the source directory in place (no copy mode)
}

func (a PathAdapter) Type() depspec.SourceType { return depspec.SourcePath }

func (a PathAdapter) resolvedPath(src depspec.PathSource) string {
	if filepath.IsAbs(src.Path) {
		return src.Path
	}
	return filepath.Join(a.BaseDir, src.Path)
}

// findManifest walks real-path resolution up to maxSymlinkDepth,
// looking for the first manifest filename present in dir.
func findManifest(dir string) (string, error) {
	resolved, err := resolveSymlinks(dir, maxSymlinkDepth)
	if err != nil {
		return "", err
	}
	for _, name := range manifestNames {
		candidate := filepath.Join(resolved, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

func resolveSymlinks(path string, depth int) (string, error) {
	visited := make(map[string]bool)
	current := path
	for i := 0; i < depth; i++ {
		info, err := os.Lstat(current)
		if err != nil {
			return "", ovoerrors.Wrap(err, ovoerrors.PathNotFound, "path does not exist: "+current)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return current, nil
		}
		if visited[current] {
			return "", ovoerrors.New(ovoerrors.SymlinkLoop, "symlink loop detected at "+current)
		}
		visited[current] = true
		target, err := os.Readlink(current)
		if err != nil {
			return "", ovoerrors.Wrap(err, ovoerrors.AccessDenied, "cannot read symlink "+current)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = target
	}
	return "", ovoerrors.New(ovoerrors.SymlinkLoop, "symlink depth exceeded at "+path)
}

func (a PathAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	src, ok := source.(depspec.PathSource)
	if !ok {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.InvalidReference, "not a path source")
	}
	resolved := a.resolvedPath(src)
	info, err := os.Stat(resolved)
	if err != nil {
		return depspec.ResolvedPackage{}, ovoerrors.Wrap(err, ovoerrors.PathNotFound, "path dependency not found: "+resolved)
	}
	if !info.IsDir() {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.NotADirectory, resolved+" is not a directory")
	}
	if _, err := findManifest(resolved); err != nil {
		return depspec.ResolvedPackage{}, err
	}
	return depspec.ResolvedPackage{
		Name:       name,
		Version:    version,
		SourceType: depspec.SourcePath,
		SourceURL:  resolved,
	}, nil
}

func (a PathAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (FetchResult, error) {
	src, ok := source.(depspec.PathSource)
	if !ok {
		return FetchResult{}, ovoerrors.New(ovoerrors.InvalidReference, "not a path source")
	}
	resolved := a.resolvedPath(src)
	if _, err := os.Stat(resolved); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.PathNotFound, "path dependency not found: "+resolved)
	}
	// Path fetches are resolved in-place per §4.3's cache-key table: no
	// copy is ever made; with Symlink set, dest becomes a symlink to the
	// source directory.
	if !a.Symlink {
		return FetchResult{Path: resolved}, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.AccessDenied, "cannot create symlink parent")
	}
	if err := os.Symlink(resolved, dest); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.AccessDenied, "cannot symlink path dependency")
	}
	return FetchResult{Path: dest}, nil
}

// WorkspaceResolver expands glob patterns like "packages/*" against a
// workspace root into a list of member directories.
type WorkspaceResolver struct {
	Root string
}

// Members expands pattern (relative to r.Root) into matching directory
// paths, skipping non-directory matches.
func (r WorkspaceResolver) Members(pattern string) ([]string, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.InvalidReference, "invalid workspace glob "+pattern)
	}
	var out []string
	err = filepath.WalkDir(r.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == r.Root {
			return nil
		}
		rel, relErr := filepath.Rel(r.Root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() && g.Match(filepath.ToSlash(rel)) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
