package sourceadapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/executil"
)

var commitHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// isCommitHash reports whether ref looks like a full git commit id.
func isCommitHash(ref string) bool { return commitHashPattern.MatchString(ref) }

// GitAdapter fetches dependencies from a git remote. Clone/fetch/checkout
// sequencing is grounded on §4.2's "Git" component design: shallow clone
// by default, commit ids get a targeted fetch+checkout instead of a
// branch checkout.
type GitAdapter struct {
	Timeout time.Duration
	Offline bool
}

func (a GitAdapter) Type() depspec.SourceType { return depspec.SourceGit }

func (a GitAdapter) authURL(src depspec.GitSource) string {
	if src.AuthToken == "" || !strings.HasPrefix(src.URL, "https://") {
		return src.URL
	}
	return "https://" + src.AuthToken + "@" + strings.TrimPrefix(src.URL, "https://")
}

// ResolveRef returns the commit id that ref points to on the remote, via
// `git ls-remote <url> <ref>`.
func (a GitAdapter) ResolveRef(ctx context.Context, url, ref string) (string, error) {
	res, err := executil.Run(ctx, a.Timeout, "git", "ls-remote", url, ref)
	if err != nil {
		return "", ovoerrors.Wrap(err, ovoerrors.CommandFailed, "git ls-remote failed")
	}
	line := strings.SplitN(strings.TrimSpace(res.Stdout), "\n", 2)[0]
	fields := strings.Fields(line)
	if len(fields) == 0 || len(fields[0]) != 40 {
		return "", ovoerrors.New(ovoerrors.RefNotFound, fmt.Sprintf("ref %q not found at %s", ref, url))
	}
	return fields[0], nil
}

// ListRefs runs `git ls-remote --tags|--heads <url>` and returns a
// dereferenced-tag-stripped map of ref name to commit id.
func (a GitAdapter) ListRefs(ctx context.Context, url string, tags bool) (map[string]string, error) {
	flag := "--heads"
	if tags {
		flag = "--tags"
	}
	res, err := executil.Run(ctx, a.Timeout, "git", "ls-remote", flag, url)
	if err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.CommandFailed, "git ls-remote failed")
	}
	refs := make(map[string]string)
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		name := strings.TrimSuffix(fields[1], "^{}")
		refs[name] = fields[0]
	}
	return refs, nil
}

func (a GitAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	if a.Offline {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.NetworkError, "offline: cannot resolve git ref")
	}
	src, ok := source.(depspec.GitSource)
	if !ok {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.InvalidReference, "not a git source")
	}
	ref := src.Ref
	if ref == "" {
		ref = "HEAD"
	}
	var hash string
	var err error
	if isCommitHash(ref) {
		hash = ref
	} else {
		hash, err = a.ResolveRef(ctx, src.URL, ref)
		if err != nil {
			return depspec.ResolvedPackage{}, err
		}
	}
	return depspec.ResolvedPackage{
		Name:         name,
		Version:      version,
		SourceType:   depspec.SourceGit,
		SourceURL:    src.URL,
		ResolvedHash: hash,
	}, nil
}

func (a GitAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (FetchResult, error) {
	if a.Offline {
		return FetchResult{}, ovoerrors.New(ovoerrors.NetworkError, "offline: cannot clone")
	}
	src, ok := source.(depspec.GitSource)
	if !ok {
		return FetchResult{}, ovoerrors.New(ovoerrors.InvalidReference, "not a git source")
	}
	depth := src.Depth
	if depth <= 0 {
		depth = 1
	}
	url := a.authURL(src)
	ref := src.Ref

	args := []string{"clone", "--depth", fmt.Sprintf("%d", depth)}
	if src.Recursive {
		args = append(args, "--recursive")
	}
	commit := ref != "" && isCommitHash(ref)
	if ref != "" && !commit {
		args = append(args, "--branch", ref)
	}
	args = append(args, url, dest)

	if _, err := executil.Run(ctx, a.Timeout, "git", args...); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.CloneFailed, "git clone failed")
	}

	if commit {
		if _, err := executil.Run(ctx, a.Timeout, "git", "-C", dest, "fetch", "--depth", "1", "origin", ref); err != nil {
			return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.FetchFailed, "git fetch of commit failed")
		}
		if _, err := executil.Run(ctx, a.Timeout, "git", "-C", dest, "checkout", ref); err != nil {
			return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.CheckoutFailed, "git checkout failed")
		}
	}

	if src.Recursive {
		if _, err := executil.Run(ctx, a.Timeout, "git", "-C", dest, "submodule", "update", "--init", "--recursive"); err != nil {
			return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.SubmoduleFailed, "git submodule update failed")
		}
	}

	head, err := a.GetHead(ctx, dest)
	if err != nil {
		return FetchResult{}, err
	}

	path := dest
	if src.Subdir != "" {
		path = dest + "/" + src.Subdir
	}
	return FetchResult{Path: path, ResolvedRef: head}, nil
}

// GetHead runs `git -C <repo> rev-parse HEAD`.
func (a GitAdapter) GetHead(ctx context.Context, repo string) (string, error) {
	res, err := executil.Run(ctx, a.Timeout, "git", "-C", repo, "rev-parse", "HEAD")
	if err != nil {
		return "", ovoerrors.Wrap(err, ovoerrors.CommandFailed, "git rev-parse HEAD failed")
	}
	return strings.TrimSpace(res.Stdout), nil
}
