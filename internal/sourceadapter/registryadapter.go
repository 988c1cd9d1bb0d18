package sourceadapter

import (
	"context"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/registryclient"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
)

// RegistryAdapter resolves and fetches registry-sourced dependencies. It
// delegates version resolution to registryclient and fetching to the
// embedded ArchiveAdapter, since registry-hosted packages are served as
// downloadable archives at the URL the registry records.
type RegistryAdapter struct {
	Client  *registryclient.Client
	Offline *registryclient.OfflineRegistry
	Archive ArchiveAdapter
}

func (a RegistryAdapter) Type() depspec.SourceType { return depspec.SourceRegistry }

func (a RegistryAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	src, ok := source.(depspec.RegistrySource)
	if !ok {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.InvalidReference, "not a registry source")
	}
	pkgName := src.Name
	if pkgName == "" {
		pkgName = name
	}

	if a.Client == nil {
		if a.Offline == nil {
			return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.NetworkError, "no registry client configured")
		}
		resolvedVersion, err := a.Offline.ResolveVersion(pkgName, version)
		if err != nil {
			return depspec.ResolvedPackage{}, err
		}
		meta, err := a.Offline.GetPackage(pkgName)
		if err != nil {
			return depspec.ResolvedPackage{}, err
		}
		return depspec.ResolvedPackage{
			Name:       name,
			Version:    resolvedVersion,
			SourceType: depspec.SourceRegistry,
			SourceURL:  meta.Name,
		}, nil
	}

	resolvedVersion, err := a.Client.ResolveVersion(ctx, pkgName, version)
	if err != nil {
		return depspec.ResolvedPackage{}, err
	}
	meta, err := a.Client.GetVersion(ctx, pkgName, resolvedVersion)
	if err != nil {
		return depspec.ResolvedPackage{}, err
	}
	return depspec.ResolvedPackage{
		Name:         name,
		Version:      resolvedVersion,
		SourceType:   depspec.SourceRegistry,
		SourceURL:    meta.SourceURL,
		ResolvedHash: meta.Hash,
	}, nil
}

func (a RegistryAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (FetchResult, error) {
	src, ok := source.(depspec.RegistrySource)
	if !ok {
		return FetchResult{}, ovoerrors.New(ovoerrors.InvalidReference, "not a registry source")
	}
	pkgName := src.Name
	if pkgName == "" {
		pkgName = name
	}
	rp, err := a.Resolve(ctx, name, "", source)
	if err != nil {
		return FetchResult{}, err
	}
	return a.Archive.Fetch(ctx, pkgName, depspec.ArchiveSource{URL: rp.SourceURL, Hash: rp.ResolvedHash}, dest)
}
