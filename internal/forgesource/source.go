// Package forgesource implements the forge-backed PageSource (C5): it
// bridges the scanner's snapshot to the forge client's raw-file fetches.
package forgesource

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/mrrpnya/pageshelf/internal/asset"
	"github.com/mrrpnya/pageshelf/internal/forge"
	"github.com/mrrpnya/pageshelf/internal/page"
	"github.com/mrrpnya/pageshelf/internal/scanner"
)

// SnapshotSource is the view of a Scanner that Source depends on. It is
// satisfied by *scanner.Scanner; tests may substitute a fake.
type SnapshotSource interface {
	Current() *scanner.Snapshot
	TargetBranches() []string
}

// Source is the forge-backed page.Source. It never talks to the upstream
// directly to answer page_at/pages; it only consults the scanner's current
// snapshot, then fetches raw file bytes on demand.
type Source struct {
	client        *forge.Client
	scanner       SnapshotSource
	defaultBranch string
	logger        *slog.Logger
}

// New builds a Source reading from scanner's snapshot.
func New(client *forge.Client, sc SnapshotSource, defaultBranch string, logger *slog.Logger) *Source {
	if defaultBranch == "" {
		defaultBranch = "pages"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{client: client, scanner: sc, defaultBranch: defaultBranch, logger: logger}
}

// PageAt implements page.Source. A branch outside target_branches is
// NotFound outright; a branch that is tracked but absent from the current
// snapshot is a ProviderError, per this design's decision to keep the
// snapshot authoritative during its lifetime (see the Open Question this
// resolves to ProviderError rather than NotFound).
func (s *Source) PageAt(ctx context.Context, owner, name, branch string) (page.Page, error) {
	if !slices.Contains(s.scanner.TargetBranches(), branch) {
		s.logger.Warn("page_at requested untracked branch", "owner", owner, "name", name, "branch", branch)
		return nil, page.ErrNotFound
	}

	loc := page.Location{Owner: owner, Name: name, Branch: branch}
	version, ok := s.scanner.Current().Lookup(loc)
	if !ok {
		s.logger.Error("page_at snapshot miss", "owner", owner, "name", name, "branch", branch)
		return nil, page.ErrProviderError
	}

	return &forgePage{loc: loc, version: version, client: s.client}, nil
}

// Pages implements page.Source by materializing one forgePage per snapshot
// entry.
func (s *Source) Pages(ctx context.Context) ([]page.Page, error) {
	snap := s.scanner.Current()
	locs := snap.Locations()
	out := make([]page.Page, 0, len(locs))
	for _, loc := range locs {
		version, _ := snap.Lookup(loc)
		out = append(out, &forgePage{loc: loc, version: version, client: s.client})
	}
	return out, nil
}

// DefaultBranch implements page.Source.
func (s *Source) DefaultBranch() string {
	return s.defaultBranch
}

// FindByDomains implements page.Source using the shared default walk over
// /.domain (there is no index at this layer; CacheLayer provides one).
func (s *Source) FindByDomains(ctx context.Context, domains []string) (page.Page, error) {
	return page.DefaultFindByDomains(ctx, s, domains)
}

// forgePage is a Page view bound to one scanned (owner, name, branch)
// triple. It is a pure value and safe to construct per-request.
type forgePage struct {
	loc     page.Location
	version string
	client  *forge.Client
}

func (p *forgePage) Owner() string   { return p.loc.Owner }
func (p *forgePage) Name() string    { return p.loc.Name }
func (p *forgePage) Branch() string  { return p.loc.Branch }
func (p *forgePage) Version() string { return p.version }

// GetAsset fetches path's raw bytes from the forge at this page's branch.
// An upstream 404 maps to ErrNotFound; any other upstream failure maps to
// ErrProviderError.
func (p *forgePage) GetAsset(ctx context.Context, assetPath string) (asset.Asset, error) {
	clean := page.CleanAssetPath(assetPath)
	data, err := p.client.GetRawFile(ctx, p.loc.Owner, p.loc.Name, clean, p.loc.Branch)
	if err != nil {
		if errors.Is(err, forge.ErrNotFound) {
			return asset.Asset{}, page.ErrNotFound
		}
		return asset.Asset{}, page.ErrProviderError
	}
	return asset.New(data), nil
}
