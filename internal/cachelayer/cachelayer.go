// Package cachelayer wraps a page.Source with a cache.Cache, invalidating
// a page's cached assets whenever its version changes and remembering
// custom-domain lookups so repeated requests for the same domain skip the
// upstream walk.
package cachelayer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrrpnya/pageshelf/internal/asset"
	"github.com/mrrpnya/pageshelf/internal/cache"
	"github.com/mrrpnya/pageshelf/internal/metrics"
	"github.com/mrrpnya/pageshelf/internal/page"
)

// Layer wraps an upstream page.Source, caching page versions, assets, and
// domain lookups through c.
type Layer struct {
	upstream page.Source
	cache    cache.Cache
	logger   *slog.Logger
}

// Wrap constructs a Layer over upstream.
func Wrap(upstream page.Source, c cache.Cache, logger *slog.Logger) *Layer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Layer{upstream: upstream, cache: c, logger: logger}
}

func versionKey(loc page.Location) string {
	return fmt.Sprintf("page:%s:%s:%s:version", loc.Owner, loc.Name, loc.Branch)
}

func assetGlob(loc page.Location) string {
	return fmt.Sprintf("page:%s:%s:%s:*", loc.Owner, loc.Name, loc.Branch)
}

func assetKey(loc page.Location, assetPath string) string {
	return fmt.Sprintf("page:%s:%s:%s:asset:%s", loc.Owner, loc.Name, loc.Branch, assetPath)
}

func domainOwnerKey(domain string) string { return fmt.Sprintf("domain:%s:owner", domain) }
func domainNameKey(domain string) string  { return fmt.Sprintf("domain:%s:name", domain) }

// PageAt implements page.Source. It fetches the upstream page, compares its
// version against the cached version, and on mismatch drops every cached
// asset for that (owner, name, branch) before recording the new version.
func (l *Layer) PageAt(ctx context.Context, owner, name, branch string) (page.Page, error) {
	p, err := l.upstream.PageAt(ctx, owner, name, branch)
	if err != nil {
		return nil, err
	}

	conn, err := l.cache.Connect(ctx)
	if err != nil {
		l.logger.Error("cache connect failed", "error", err)
		return p, nil
	}
	defer conn.Close()

	loc := page.Location{Owner: p.Owner(), Name: p.Name(), Branch: p.Branch()}
	vkey := versionKey(loc)

	cached, err := conn.Get(ctx, vkey)
	switch {
	case err != nil:
		l.logger.Debug("page version not in cache", "page", loc.String())
		_ = conn.Set(ctx, vkey, []byte(p.Version()))
	case string(cached) != p.Version():
		l.logger.Info("page updated, invalidating cache", "page", loc.String())
		_, _ = conn.DeleteGlob(ctx, assetGlob(loc))
		_ = conn.Set(ctx, vkey, []byte(p.Version()))
	}

	return &cachedPage{upstream: p, loc: loc, cache: l.cache, logger: l.logger}, nil
}

// Pages implements page.Source by delegating to the upstream; enumerating
// every page is not cached.
func (l *Layer) Pages(ctx context.Context) ([]page.Page, error) {
	return l.upstream.Pages(ctx)
}

// DefaultBranch implements page.Source.
func (l *Layer) DefaultBranch() string {
	return l.upstream.DefaultBranch()
}

// FindByDomains implements page.Source. It first checks the cache for an
// owner/name pair recorded for any of domains; on a full miss it falls
// through to the upstream walk and remembers the result under every
// requested domain.
func (l *Layer) FindByDomains(ctx context.Context, domains []string) (page.Page, error) {
	conn, err := l.cache.Connect(ctx)
	if err != nil {
		l.logger.Error("cache connect failed", "error", err)
		return l.upstream.FindByDomains(ctx, domains)
	}
	defer conn.Close()

	for _, domain := range domains {
		owner, err := conn.Get(ctx, domainOwnerKey(domain))
		if err != nil {
			continue
		}
		name, err := conn.Get(ctx, domainNameKey(domain))
		if err != nil {
			continue
		}
		p, err := l.PageAt(ctx, string(owner), string(name), l.upstream.DefaultBranch())
		if err != nil {
			continue
		}
		l.logger.Info("domain resolved from cache", "domain", domain)
		metrics.CacheHitsTotal.WithLabelValues("domain").Inc()
		return p, nil
	}

	metrics.CacheMissesTotal.WithLabelValues("domain").Inc()
	p, err := l.upstream.FindByDomains(ctx, domains)
	if err != nil {
		return nil, err
	}

	for _, domain := range domains {
		_ = conn.Set(ctx, domainOwnerKey(domain), []byte(p.Owner()))
		_ = conn.Set(ctx, domainNameKey(domain), []byte(p.Name()))
	}

	loc := page.Location{Owner: p.Owner(), Name: p.Name(), Branch: p.Branch()}
	return &cachedPage{upstream: p, loc: loc, cache: l.cache, logger: l.logger}, nil
}

// cachedPage wraps a page.Page, caching GetAsset results.
type cachedPage struct {
	upstream page.Page
	loc      page.Location
	cache    cache.Cache
	logger   *slog.Logger
}

func (p *cachedPage) Owner() string   { return p.upstream.Owner() }
func (p *cachedPage) Name() string    { return p.upstream.Name() }
func (p *cachedPage) Branch() string  { return p.upstream.Branch() }
func (p *cachedPage) Version() string { return p.upstream.Version() }

// GetAsset checks the cache before falling through to the upstream source,
// writing the fetched bytes back on a miss.
func (p *cachedPage) GetAsset(ctx context.Context, assetPath string) (asset.Asset, error) {
	clean := page.CleanAssetPath(assetPath)
	key := assetKey(p.loc, clean)

	conn, err := p.cache.Connect(ctx)
	if err != nil {
		p.logger.Error("cache connect failed", "error", err)
		return p.upstream.GetAsset(ctx, clean)
	}
	defer conn.Close()

	if data, err := conn.Get(ctx, key); err == nil {
		metrics.CacheHitsTotal.WithLabelValues("asset").Inc()
		return asset.New(data), nil
	}
	metrics.CacheMissesTotal.WithLabelValues("asset").Inc()

	a, err := p.upstream.GetAsset(ctx, clean)
	if err != nil {
		return asset.Asset{}, err
	}
	_ = conn.Set(ctx, key, a.Bytes())
	return a, nil
}
