// Package dispatch implements the request dispatcher (C9): it glues the
// resolver, the page source, and the built-in templates into HTTP
// responses.
package dispatch

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/mrrpnya/pageshelf/internal/metrics"
	"github.com/mrrpnya/pageshelf/internal/page"
	"github.com/mrrpnya/pageshelf/internal/resolver"
	"github.com/mrrpnya/pageshelf/web"
)

// ServerInfo carries the server identity rendered on the built-in landing
// page.
type ServerInfo struct {
	Name        string
	Description string
	HomeURL     string
}

// Dispatcher is the C9 request dispatcher: resolve, then render.
type Dispatcher struct {
	resolver  resolver.Resolver
	source    page.Source
	templates *web.Templates
	info      ServerInfo
	logger    *slog.Logger
}

// New builds a Dispatcher.
func New(r resolver.Resolver, src page.Source, tpl *web.Templates, info ServerInfo, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{resolver: r, source: src, templates: tpl, info: info, logger: logger}
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/pages_favicon.webp" {
		w.Header().Set("Cache-Control", "max-age=86400")
		w.Header().Set("Content-Type", "image/webp")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(web.Favicon)
		return
	}

	res := d.resolver.Resolve(requestURL(r))

	switch res.Kind {
	case resolver.KindBuiltIn:
		d.serveBuiltIn(w)

	case resolver.KindPage:
		d.renderPage(r.Context(), w, res.Page.Page, res.Page.Asset)

	case resolver.KindExternal:
		d.serveExternal(w, r, res)

	default:
		d.serveError(w, http.StatusNotFound, "Malformed query")
	}
}

// requestURL reconstructs a fully-qualified URL for r. A server-side request
// arrives with an origin-form target (r.URL carries only the path; the host
// lives in r.Host per net/http's request-reading contract), so the resolver
// would otherwise see an empty host on every real request.
func requestURL(r *http.Request) *url.URL {
	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	return &u
}

func (d *Dispatcher) serveBuiltIn(w http.ResponseWriter) {
	body, err := d.templates.RenderIndex(web.IndexData{
		Name:        d.info.Name,
		Description: d.info.Description,
		HomeURL:     d.info.HomeURL,
	})
	if err != nil {
		d.logger.Error("failed to render index template", "error", err)
		d.serveError(w, http.StatusInternalServerError, "Template error")
		return
	}
	metrics.RequestsTotal.WithLabelValues("builtin", "200").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (d *Dispatcher) serveExternal(w http.ResponseWriter, r *http.Request, res resolver.Resolution) {
	p, err := d.source.FindByDomains(r.Context(), []string{res.External.Host})
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("external", "404").Inc()
		d.serveError(w, http.StatusNotFound, "Custom domain not configured")
		return
	}
	loc := page.Location{Owner: p.Owner(), Name: p.Name(), Branch: p.Branch()}
	d.renderPage(r.Context(), w, loc, r.URL.Path)
}

// renderPage implements render_page(location, asset_path): directory-form
// paths try index.html, a miss on a non-directory path retries with
// "/index.html" appended, and any miss still left falls back to /404.html.
func (d *Dispatcher) renderPage(ctx context.Context, w http.ResponseWriter, loc page.Location, assetPath string) {
	p, err := d.source.PageAt(ctx, loc.Owner, loc.Name, loc.Branch)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("page", "404").Inc()
		d.serveError(w, http.StatusNotFound, "Page not found")
		return
	}

	isDir := strings.HasSuffix(assetPath, "/")
	tryPath := assetPath
	if isDir {
		tryPath = path.Join(assetPath, "index.html")
	}

	a, err := p.GetAsset(ctx, tryPath)
	if err == nil {
		d.serveAsset(w, tryPath, a.Bytes())
		return
	}

	if !isDir {
		retry := tryPath + "/index.html"
		if a, err := p.GetAsset(ctx, retry); err == nil {
			d.serveAsset(w, retry, a.Bytes())
			return
		}
	}

	if a, err := p.GetAsset(ctx, "/404.html"); err == nil {
		metrics.RequestsTotal.WithLabelValues("page", "404").Inc()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(a.Bytes())
		return
	}

	metrics.RequestsTotal.WithLabelValues("page", "404").Inc()
	d.serveError(w, http.StatusNotFound, "Not found")
}

func (d *Dispatcher) serveAsset(w http.ResponseWriter, assetPath string, body []byte) {
	metrics.RequestsTotal.WithLabelValues("page", "200").Inc()
	ct := mime.TypeByExtension(path.Ext(assetPath))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (d *Dispatcher) serveError(w http.ResponseWriter, code int, message string) {
	body, err := d.templates.RenderError(web.ErrorData{Code: code, Message: message})
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(message))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
