package page_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrrpnya/pageshelf/internal/asset"
	"github.com/mrrpnya/pageshelf/internal/page"
)

// fakePage is a minimal in-memory Page used to exercise DefaultFindByDomains.
type fakePage struct {
	owner, name, branch, version string
	assets                       map[string]string
}

func (p *fakePage) Owner() string   { return p.owner }
func (p *fakePage) Name() string    { return p.name }
func (p *fakePage) Branch() string  { return p.branch }
func (p *fakePage) Version() string { return p.version }

func (p *fakePage) GetAsset(ctx context.Context, assetPath string) (asset.Asset, error) {
	data, ok := p.assets[assetPath]
	if !ok {
		return asset.Asset{}, page.ErrNotFound
	}
	return asset.New([]byte(data)), nil
}

type fakeSource struct {
	pages []*fakePage
}

func (s *fakeSource) PageAt(ctx context.Context, owner, name, branch string) (page.Page, error) {
	for _, p := range s.pages {
		if p.owner == owner && p.name == name && p.branch == branch {
			return p, nil
		}
	}
	return nil, page.ErrNotFound
}

func (s *fakeSource) Pages(ctx context.Context) ([]page.Page, error) {
	out := make([]page.Page, len(s.pages))
	for i, p := range s.pages {
		out[i] = p
	}
	return out, nil
}

func (s *fakeSource) DefaultBranch() string { return "pages" }

func (s *fakeSource) FindByDomains(ctx context.Context, domains []string) (page.Page, error) {
	return page.DefaultFindByDomains(ctx, s, domains)
}

func TestDefaultFindByDomainsMatch(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		{owner: "nya", name: "pages", branch: "pages", version: "abc", assets: map[string]string{
			page.DomainFilePath: "  custom.example  \nother.example\n",
		}},
	}}

	p, err := src.FindByDomains(context.Background(), []string{"custom.example"})
	require.NoError(t, err)
	assert.Equal(t, "nya", p.Owner())
}

func TestDefaultFindByDomainsNoMatch(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		{owner: "nya", name: "pages", branch: "pages", version: "abc", assets: map[string]string{
			page.DomainFilePath: "other.example\n",
		}},
	}}

	_, err := src.FindByDomains(context.Background(), []string{"custom.example"})
	assert.ErrorIs(t, err, page.ErrNotFound)
}

func TestDefaultFindByDomainsNoDomainFile(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		{owner: "nya", name: "pages", branch: "pages", version: "abc", assets: map[string]string{}},
	}}

	_, err := src.FindByDomains(context.Background(), []string{"custom.example"})
	assert.ErrorIs(t, err, page.ErrNotFound)
}

func TestCleanAssetPath(t *testing.T) {
	assert.Equal(t, "", page.CleanAssetPath("/"))
	assert.Equal(t, "", page.CleanAssetPath(""))
	assert.Equal(t, "a/b.txt", page.CleanAssetPath("/a/b.txt"))
}
