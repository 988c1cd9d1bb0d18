package sourceadapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/donaldfilimon/ovo/internal/depspec"
	"github.com/donaldfilimon/ovo/internal/integrity"
	ovoerrors "github.com/donaldfilimon/ovo/pkg/errors"
	"github.com/donaldfilimon/ovo/pkg/executil"
	"github.com/google/uuid"
)

// ArchiveAdapter downloads and extracts a tarball or zip file. Format
// detection by filename suffix and the tar-flag mapping are taken
// directly from §4.2's "Archive" component design.
type ArchiveAdapter struct {
	Timeout   time.Duration
	Offline   bool
	CacheRoot string // scratch directory for downloads, e.g. <cache_dir>/downloads
}

func (a ArchiveAdapter) Type() depspec.SourceType { return depspec.SourceArchive }

type archiveFormat int

const (
	formatUnknown archiveFormat = iota
	formatTarGz
	formatTarXz
	formatTarBz2
	formatTar
	formatZip
)

func detectFormat(url string) archiveFormat {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return formatTarGz
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return formatTarXz
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return formatTarBz2
	case strings.HasSuffix(lower, ".tar"):
		return formatTar
	case strings.HasSuffix(lower, ".zip"):
		return formatZip
	default:
		return formatUnknown
	}
}

func (a ArchiveAdapter) Resolve(ctx context.Context, name, version string, source depspec.Source) (depspec.ResolvedPackage, error) {
	src, ok := source.(depspec.ArchiveSource)
	if !ok {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.InvalidReference, "not an archive source")
	}
	if detectFormat(src.URL) == formatUnknown {
		return depspec.ResolvedPackage{}, ovoerrors.New(ovoerrors.UnsupportedFormat, "cannot infer archive format from "+src.URL)
	}
	return depspec.ResolvedPackage{
		Name:         name,
		Version:      version,
		SourceType:   depspec.SourceArchive,
		SourceURL:    src.URL,
		ResolvedHash: src.Hash,
	}, nil
}

func (a ArchiveAdapter) Fetch(ctx context.Context, name string, source depspec.Source, dest string) (FetchResult, error) {
	if a.Offline {
		return FetchResult{}, ovoerrors.New(ovoerrors.NetworkError, "offline: cannot download archive")
	}
	src, ok := source.(depspec.ArchiveSource)
	if !ok {
		return FetchResult{}, ovoerrors.New(ovoerrors.InvalidReference, "not an archive source")
	}
	format := detectFormat(src.URL)
	if format == formatUnknown {
		return FetchResult{}, ovoerrors.New(ovoerrors.UnsupportedFormat, "cannot infer archive format from "+src.URL)
	}

	scratch := a.CacheRoot
	if scratch == "" {
		scratch = os.TempDir()
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.CacheError, "cannot create download scratch dir")
	}
	tmp := filepath.Join(scratch, fmt.Sprintf("%s-%s.download", name, randomSuffix()))
	defer os.Remove(tmp)

	timeoutSeconds := int(a.Timeout / time.Second)
	args := []string{"-L", "-f", "-o", tmp}
	if timeoutSeconds > 0 {
		args = append(args, "--max-time", fmt.Sprintf("%d", timeoutSeconds))
	}
	args = append(args, src.URL)
	if _, err := executil.Run(ctx, a.Timeout, "curl", args...); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.DownloadFailed, "curl download failed")
	}

	contentHash, err := integrity.HashFile(integrity.SHA256, tmp)
	if err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.ExtractionFailed, "cannot hash downloaded archive")
	}
	if src.Hash != "" && !strings.EqualFold(src.Hash, contentHash.Hex) {
		return FetchResult{}, ovoerrors.New(ovoerrors.HashMismatch, "downloaded archive hash does not match expected").
			WithDetails(fmt.Sprintf("expected %s, got %s", src.Hash, contentHash.Hex))
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return FetchResult{}, ovoerrors.Wrap(err, ovoerrors.ExtractionFailed, "cannot create extraction dir")
	}
	if err := a.extract(ctx, tmp, dest, format, src.StripPrefix); err != nil {
		return FetchResult{}, err
	}

	return FetchResult{Path: dest, ContentHash: contentHash.String()}, nil
}

func (a ArchiveAdapter) extract(ctx context.Context, archive, dest string, format archiveFormat, strip int) error {
	if format == formatZip {
		args := []string{"-q", "-o", archive, "-d", dest}
		if _, err := executil.Run(ctx, a.Timeout, "unzip", args...); err != nil {
			return ovoerrors.Wrap(err, ovoerrors.ExtractionFailed, "unzip failed")
		}
		return nil
	}

	var tarFlag string
	switch format {
	case formatTarGz:
		tarFlag = "-xzf"
	case formatTarXz:
		tarFlag = "-xJf"
	case formatTarBz2:
		tarFlag = "-xjf"
	case formatTar:
		tarFlag = "-xf"
	default:
		return ovoerrors.New(ovoerrors.UnsupportedFormat, "unsupported archive format")
	}
	args := []string{tarFlag, archive, "-C", dest}
	if strip > 0 {
		args = append(args, fmt.Sprintf("--strip-components=%d", strip))
	}
	if _, err := executil.Run(ctx, a.Timeout, "tar", args...); err != nil {
		return ovoerrors.Wrap(err, ovoerrors.ExtractionFailed, "tar extraction failed")
	}
	return nil
}

func randomSuffix() string {
	return uuid.NewString()
}
