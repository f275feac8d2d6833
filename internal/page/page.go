// Package page defines the Page/AssetSource/PageSource contract: lookup of
// pages on the upstream forge and of assets within a page.
package page

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mrrpnya/pageshelf/internal/asset"
)

// DomainFilePath is the reserved in-repo asset listing hostnames a repo
// claims for custom-domain resolution.
const DomainFilePath = "/.domain"

// Sentinel errors forming the error taxonomy. ProviderError and NotFound are
// both surfaced as HTTP 404 by the dispatcher; callers distinguish them only
// for logging. Corrupted is reserved and unused on the request path.
// CannotInterpret is local to byte-to-UTF8 conversions.
var (
	ErrNotFound        = errors.New("not found")
	ErrProviderError   = errors.New("provider error")
	ErrCorrupted       = errors.New("corrupted")
	ErrCannotInterpret = errors.New("cannot interpret as utf-8")
)

// Location uniquely identifies a page. It is the canonical map key used by
// the scanner snapshot and the cache key space.
type Location struct {
	Owner  string
	Name   string
	Branch string
}

func (l Location) String() string {
	return fmt.Sprintf("%s/%s:%s", l.Owner, l.Name, l.Branch)
}

// AssetLocation identifies one asset within one page. Asset begins with "/";
// "/" denotes the page root, implying an index lookup.
type AssetLocation struct {
	Page  Location
	Asset string
}

// Page is a behavioral entity exposing identity and version. Pages are
// ephemeral views: they carry no mutable state and may be constructed fresh
// per request.
type Page interface {
	AssetSource

	Owner() string
	Name() string
	Branch() string
	// Version is an opaque commit-id comparable only for equality.
	Version() string
}

// AssetSource looks up a single asset by in-repo path.
type AssetSource interface {
	// GetAsset fetches the asset at path, which is interpreted as an in-repo
	// path. A leading "/" is stripped by implementations that talk to an
	// upstream expecting repo-relative paths.
	GetAsset(ctx context.Context, assetPath string) (asset.Asset, error)
}

// Source looks up pages by location, enumerates them, and resolves custom
// domains.
type Source interface {
	// PageAt returns the page at (owner, name, branch), or ErrNotFound /
	// ErrProviderError.
	PageAt(ctx context.Context, owner, name, branch string) (Page, error)
	// Pages enumerates every page currently known to the source.
	Pages(ctx context.Context) ([]Page, error)
	// DefaultBranch is the branch used when a resolution carries none.
	DefaultBranch() string
	// FindByDomains resolves a custom-domain claim. Implementations without
	// a faster path should call DefaultFindByDomains.
	FindByDomains(ctx context.Context, domains []string) (Page, error)
}

// DefaultFindByDomains implements the spec-mandated default algorithm for
// FindByDomains: walk every page, read its /.domain file, and match trimmed
// lines against domains. Sources without a faster index (and CacheLayer on
// a cache miss) delegate to this.
func DefaultFindByDomains(ctx context.Context, src Source, domains []string) (Page, error) {
	pages, err := src.Pages(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		a, err := p.GetAsset(ctx, DomainFilePath)
		if err != nil {
			continue
		}
		text, ok := a.Text()
		if !ok {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			for _, d := range domains {
				if line == d {
					return p, nil
				}
			}
		}
	}
	return nil, ErrNotFound
}

// CleanAssetPath normalizes an asset path to the form upstream forge file
// lookups expect: no leading slash, "/" collapses to "".
func CleanAssetPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	return path.Clean(p)
}
