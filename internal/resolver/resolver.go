// Package resolver maps a request's (host, path) to a logical target: a
// built-in page, a specific page asset, an external domain to look up, or a
// malformed request.
package resolver

import (
	"net/url"
	"strings"

	"github.com/mrrpnya/pageshelf/internal/page"
)

// Kind tags a Resolution.
type Kind int

const (
	// KindBuiltIn means the request is for an embedded landing/error page.
	KindBuiltIn Kind = iota
	// KindPage means the request names a specific page asset.
	KindPage
	// KindExternal means the request's host should be looked up via
	// find_by_domains.
	KindExternal
	// KindMalformed is reserved for a future stricter mode; the default
	// resolver never produces it (malformed hosts degrade to BuiltIn).
	KindMalformed
)

// Resolution is the tagged result of resolving a URL.
type Resolution struct {
	Kind      Kind
	Page      page.AssetLocation // valid when Kind == KindPage
	External  *url.URL           // valid when Kind == KindExternal
	Malformed string              // valid when Kind == KindMalformed
}

// BuiltIn is the shared zero-value BuiltIn resolution.
var BuiltIn = Resolution{Kind: KindBuiltIn}

// Config configures a Resolver. It is immutable after construction.
type Config struct {
	// HomeHost is the domain associated with the server directly.
	HomeHost string
	// PageHosts are the (wildcard) base domains associated with the server
	// for subdomain-form addressing.
	PageHosts []string
	// DefaultRepo is used when a resolution names no repo.
	DefaultRepo string
	// DefaultBranch is used when a resolution names no branch.
	DefaultBranch string
	// DefaultOwner is the owner to use when the root path form names no
	// owner at all (an empty path). Unset, an ownerless root path falls
	// through to BuiltIn.
	DefaultOwner string
	// ExternalEnabled allows arbitrary unmatched hosts through as External.
	ExternalEnabled bool
}

// Resolver maps a URL to a Resolution.
type Resolver interface {
	Resolve(u *url.URL) Resolution
}

// Default is the spec-mandated resolution algorithm.
type Default struct {
	cfg Config
}

// New builds a Default resolver from cfg.
func New(cfg Config) *Default {
	return &Default{cfg: cfg}
}

// Resolve implements Resolver.
func (r *Default) Resolve(u *url.URL) Resolution {
	host := u.Hostname()

	isRoot := r.isRoot(host)

	if isRoot {
		a := analyzeURL(u, "")
		if a.Owner == "" {
			if r.cfg.DefaultOwner == "" {
				return BuiltIn
			}
			a.Owner = r.cfg.DefaultOwner
		}
		return Resolution{Kind: KindPage, Page: r.toLocation(a)}
	}

	for _, pd := range r.cfg.PageHosts {
		if !isSubdomainOf(pd, host) {
			continue
		}
		a := analyzeURL(u, pd)
		if a.Owner != "" {
			return Resolution{Kind: KindPage, Page: r.toLocation(a)}
		}
		if r.cfg.ExternalEnabled {
			return Resolution{Kind: KindExternal, External: u}
		}
		return BuiltIn
	}

	if r.cfg.ExternalEnabled {
		return Resolution{Kind: KindExternal, External: u}
	}
	return BuiltIn
}

// isRoot mirrors DefaultUrlResolver::resolve's is_root computation.
func (r *Default) isRoot(host string) bool {
	if len(r.cfg.PageHosts) == 0 && !r.cfg.ExternalEnabled {
		return true
	}
	if host == "" {
		return len(r.cfg.PageHosts) == 0
	}
	if len(r.cfg.PageHosts) > 0 {
		if r.cfg.HomeHost != "" {
			return r.cfg.HomeHost == host
		}
		for _, pd := range r.cfg.PageHosts {
			if pd == host || isSubdomainOf(pd, host) {
				return false
			}
		}
		return !r.cfg.ExternalEnabled
	}
	if r.cfg.HomeHost != "" {
		return r.cfg.HomeHost == host
	}
	return !r.cfg.ExternalEnabled
}

// isSubdomainOf reports whether host is a strict subdomain of base (host
// must not equal base itself).
func isSubdomainOf(base, host string) bool {
	return strings.HasSuffix(host, "."+base)
}

func (r *Default) toLocation(a analysis) page.AssetLocation {
	repo := a.Repo
	if repo == "" {
		repo = r.cfg.DefaultRepo
	}
	branch := a.Branch
	if branch == "" {
		branch = r.cfg.DefaultBranch
	}
	return page.AssetLocation{
		Page: page.Location{
			Owner:  a.Owner,
			Name:   repo,
			Branch: branch,
		},
		Asset: a.Asset,
	}
}

// analysis is the pre-default-application result of parsing a path or
// subdomain host. Empty strings mean "absent".
type analysis struct {
	Owner, Repo, Branch, Asset string
}

// analyzeURL parses u according to either the root path form (base == "") or
// the subdomain form (base == the matched page host).
func analyzeURL(u *url.URL, base string) analysis {
	if base == "" {
		segs := splitNonEmpty(u.Path)
		if len(segs) == 0 {
			return analysis{Asset: "/"}
		}
		owner := segs[0]
		var repo, branch string
		if len(segs) > 1 {
			repo, branch = splitRepoBranch(segs[1])
		}
		asset := "/"
		if len(segs) > 2 {
			asset = "/" + strings.Join(segs[2:], "/")
		}
		return analysis{Owner: owner, Repo: repo, Branch: branch, Asset: asset}
	}

	asset := assetFromPath(u.Path)
	host := u.Hostname()
	sub := strings.TrimSuffix(host, "."+base)
	sub = strings.TrimSuffix(sub, ".")
	var labels []string
	for _, l := range strings.Split(sub, ".") {
		if l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return analysis{Asset: asset}
	}

	n := len(labels)
	owner := labels[n-1]
	var repo, branch string
	if n >= 2 {
		repo = labels[n-2]
	}
	if n >= 3 {
		branch = strings.Join(labels[:n-2], ".")
	}
	return analysis{Owner: owner, Repo: repo, Branch: branch, Asset: asset}
}

// assetFromPath joins the path's non-empty segments back with a leading
// slash; an empty result becomes "/".
func assetFromPath(p string) string {
	segs := splitNonEmpty(p)
	if len(segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(segs, "/")
}

func splitNonEmpty(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitRepoBranch splits "repo:branch" on the first colon.
func splitRepoBranch(seg string) (repo, branch string) {
	idx := strings.IndexByte(seg, ':')
	if idx < 0 {
		return seg, ""
	}
	return seg[:idx], seg[idx+1:]
}
