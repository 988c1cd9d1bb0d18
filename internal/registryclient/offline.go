package registryclient

import (
	"encoding/json"
	"os"
	"path/filepath"

	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
)

// OfflineRegistry serves package metadata from a local mirror directory
// instead of the network, per §4.5's "same public surface minus
// network-dependent operations". The mirror layout is one JSON file per
// package, named "<name>.json", holding a PackageMetadata document.
type OfflineRegistry struct {
	Dir string
}

// GetPackage reads "<dir>/<name>.json".
func (r OfflineRegistry) GetPackage(name string) (PackageMetadata, error) {
	body, err := os.ReadFile(filepath.Join(r.Dir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return PackageMetadata{}, ovoerrors.New(ovoerrors.PackageNotFound, "no offline mirror entry for "+name)
		}
		return PackageMetadata{}, ovoerrors.Wrap(err, ovoerrors.CacheError, "cannot read offline registry mirror")
	}
	var meta PackageMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return PackageMetadata{}, ovoerrors.Wrap(err, ovoerrors.InvalidManifest, "malformed offline mirror entry for "+name)
	}
	return meta, nil
}

// ResolveVersion mirrors Client.ResolveVersion's literal/latest/* paths
// without any caret/tilde scan, since an offline mirror is expected to
// hold exact versions only.
func (r OfflineRegistry) ResolveVersion(name, requirement string) (string, error) {
	meta, err := r.GetPackage(name)
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
	return "", ovoerrors.New(ovoerrors.VersionNotFound, "no matching offline version for "+name)
}
