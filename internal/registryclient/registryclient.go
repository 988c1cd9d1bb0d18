// Package registryclient implements the HTTPS client for the central
// package registry described in §4.5: a single request(path) routine
// shared by every typed operation, an in-memory TTL response cache keyed
// by request path, and version-requirement resolution built on
// github.com/Masterminds/semver/v3 for caret/tilde/exact/latest
// handling beyond the resolver's own minimal comparator (§4.6's "richer
// SemVer facility... available for registry search").
package registryclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cespare/xxhash/v2"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
)

// PackageMetadata is the registry's package record.
type PackageMetadata struct {
	Name          string   `json:"name"`
	LatestVersion string   `json:"latest_version"`
	Versions      []string `json:"versions"`
	Description   string   `json:"description,omitempty"`
}

// VersionMetadata describes one published version of a package.
type VersionMetadata struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	SourceURL string `json:"source_url"`
	Hash      string `json:"hash,omitempty"`
}

// SearchResult is the response shape of a registry search query.
type SearchResult struct {
	Packages []PackageMetadata `json:"packages"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// Client is the HTTPS registry client.
type Client struct {
	BaseURL    string
	Token      string
	TTL        time.Duration
	HTTPClient *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewClient constructs a Client pointed at baseURL with the given
// response-cache TTL.
func NewClient(baseURL string, ttl time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		TTL:        ttl,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		cache:      make(map[string]cacheEntry),
	}
}

func cacheKey(path string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(path))
}

// request is the single shared routine every typed operation funnels
// through: TTL cache lookup, URL composition, HTTP GET with optional
// bearer auth, and body read.
func (c *Client) request(ctx context.Context, path string) ([]byte, error) {
	key := cacheKey(path)

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.body, nil
	}
	c.mu.Unlock()

	full, err := url.JoinPath(c.BaseURL, path)
	if err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.NetworkError, "invalid registry path "+path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.NetworkError, "cannot build registry request")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.NetworkError, "registry request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ovoerrors.Wrap(err, ovoerrors.NetworkError, "cannot read registry response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fallthrough to cache + return
	case http.StatusNotFound:
		return nil, ovoerrors.New(ovoerrors.PackageNotFound, "registry returned 404 for "+path)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ovoerrors.New(ovoerrors.AuthenticationFailed, "registry rejected credentials")
	case http.StatusTooManyRequests:
		return nil, ovoerrors.New(ovoerrors.NetworkError, "registry rate limited the request")
	default:
		if resp.StatusCode >= 500 {
			return nil, ovoerrors.New(ovoerrors.NetworkError, fmt.Sprintf("registry server error %d", resp.StatusCode))
		}
		return nil, ovoerrors.New(ovoerrors.NetworkError, fmt.Sprintf("unexpected registry status %d", resp.StatusCode))
	}

	if c.TTL > 0 {
		c.mu.Lock()
		c.cache[key] = cacheEntry{body: body, expires: time.Now().Add(c.TTL)}
		c.mu.Unlock()
	}
	return body, nil
}

// GetPackage fetches a package's top-level metadata.
func (c *Client) GetPackage(ctx context.Context, name string) (PackageMetadata, error) {
	body, err := c.request(ctx, "/packages/"+url.PathEscape(name))
	if err != nil {
		return PackageMetadata{}, err
	}
	var meta PackageMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return PackageMetadata{}, ovoerrors.Wrap(err, ovoerrors.NetworkError, "malformed package metadata")
	}
	return meta, nil
}

// GetVersion fetches a single published version's metadata.
func (c *Client) GetVersion(ctx context.Context, name, version string) (VersionMetadata, error) {
	body, err := c.request(ctx, "/packages/"+url.PathEscape(name)+"/"+url.PathEscape(version))
	if err != nil {
		return VersionMetadata{}, err
	}
	var meta VersionMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return VersionMetadata{}, ovoerrors.Wrap(err, ovoerrors.NetworkError, "malformed version metadata")
	}
	return meta, nil
}

// SearchOptions controls pagination and ordering for Search.
type SearchOptions struct {
	Page    int
	PerPage int
	Sort    string
}

// Search queries the registry's package index.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if opts.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.PerPage > 0 {
		q.Set("per_page", fmt.Sprintf("%d", opts.PerPage))
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	body, err := c.request(ctx, "/search?"+q.Encode())
	if err != nil {
		return SearchResult{}, err
	}
	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return SearchResult{}, ovoerrors.Wrap(err, ovoerrors.NetworkError, "malformed search response")
	}
	return result, nil
}

// ResolveVersion implements §4.5's resolve_version(name, requirement):
// "latest"/"*" pick the package's latest_version, an exact listed version
// matches literally, and a caret/tilde-prefixed requirement scans listed
// versions (sorted descending) for the first satisfying entry via
// Masterminds/semver/v3 constraint parsing.
func (c *Client) ResolveVersion(ctx context.Context, name, requirement string) (string, error) {
	meta, err := c.GetPackage(ctx, name)
	if err != nil {
		return "", err
	}
	if requirement == "" || requirement == "latest" || requirement == "*" {
		if meta.LatestVersion == "" {
			return "", ovoerrors.New(ovoerrors.VersionNotFound, "no latest_version recorded for "+name)
		}
		return meta.LatestVersion, nil
	}
	for _, v := range meta.Versions {
		if v == requirement {
			return v, nil
		}
	}
	if len(requirement) > 0 && (requirement[0] == '^' || requirement[0] == '~') {
		constraint, err := semver.NewConstraint(requirement)
		if err != nil {
			return "", ovoerrors.Wrap(err, ovoerrors.InvalidVersion, "invalid version requirement "+requirement)
		}
		versions := make([]*semver.Version, 0, len(meta.Versions))
		for _, v := range meta.Versions {
			if sv, err := semver.NewVersion(v); err == nil {
				versions = append(versions, sv)
			}
		}
		sort.Sort(sort.Reverse(semver.Collection(versions)))
		for _, sv := range versions {
			if constraint.Check(sv) {
				return sv.Original(), nil
			}
		}
	}
	return "", ovoerrors.New(ovoerrors.VersionNotFound, fmt.Sprintf("no version of %s satisfies %q", name, requirement))
}
