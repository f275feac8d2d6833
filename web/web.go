// Package web embeds pageshelf's built-in templates and static assets: the
// landing page and error page shown when no upstream page answers a
// request, and the branding favicon served at a fixed path.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

//go:embed static/pages_favicon.webp
var staticFS embed.FS

// Favicon is the embedded branding asset served at /pages_favicon.webp.
var Favicon []byte

func init() {
	data, err := fs.ReadFile(staticFS, "static/pages_favicon.webp")
	if err != nil {
		panic(err)
	}
	Favicon = data
}

// IndexData renders the built-in landing page template.
type IndexData struct {
	Name        string
	Description string
	HomeURL     string
}

// ErrorData renders the built-in error page template.
type ErrorData struct {
	Code    int
	Message string
}

// Templates holds the parsed, minify-ready built-in templates.
type Templates struct {
	index *template.Template
	error *template.Template
	min   *minify.M
}

// Load parses the embedded templates and configures the HTML minifier.
func Load() (*Templates, error) {
	index, err := template.ParseFS(templatesFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, err
	}
	errTmpl, err := template.ParseFS(templatesFS, "templates/error.html.tmpl")
	if err != nil {
		return nil, err
	}

	m := minify.New()
	m.AddFunc("text/html", html.Minify)

	return &Templates{index: index, error: errTmpl, min: m}, nil
}

// RenderIndex renders and minifies the landing page.
func (t *Templates) RenderIndex(data IndexData) ([]byte, error) {
	return t.render(t.index, "index.html.tmpl", data)
}

// RenderError renders and minifies the error page.
func (t *Templates) RenderError(data ErrorData) ([]byte, error) {
	return t.render(t.error, "error.html.tmpl", data)
}

func (t *Templates) render(tmpl *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := t.min.Minify("text/html", &out, &buf); err != nil {
		return buf.Bytes(), nil //nolint:nilerr // minify failures fall back to the unminified render
	}
	return out.Bytes(), nil
}
