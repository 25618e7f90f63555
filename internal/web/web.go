// Package web holds the embedded templates, static assets and page content
// along with the view models the templates render.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"youareloved-web/internal/flow"
	"youareloved-web/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

//go:embed content/*.md
var contentFS embed.FS

// Raw HTML inside markdown is escaped; WithUnsafe is not set.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

// Templates parses every page template into one set. Pages are addressed by
// file name, e.g. "setup.html".
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

// Static returns the asset tree served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Markdown renders content/<name>.md to HTML.
func Markdown(name string) (template.HTML, error) {
	src, err := contentFS.ReadFile("content/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("read content %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render content %q: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Page is the value every template executes against.
type Page struct {
	Title     string
	Lang      i18n.Language
	Languages []i18n.Language
	CSRF      template.HTML
	Data      any

	catalog *i18n.Catalog
}

func NewPage(catalog *i18n.Catalog, lang string, csrfField template.HTML, title string, data any) *Page {
	return &Page{
		Title:     title,
		Lang:      catalog.Language(lang),
		Languages: catalog.Languages(),
		CSRF:      csrfField,
		Data:      data,
		catalog:   catalog,
	}
}

// T translates key into the page language.
func (p *Page) T(key string, args ...any) string {
	if p.catalog == nil {
		return key
	}
	return p.catalog.T(p.Lang.Code, key, args...)
}

// Msg pairs a message key with the page so sub-templates can translate it.
// An empty key renders nothing.
func (p *Page) Msg(key string) FieldMessage {
	return FieldMessage{Page: p, Error: key}
}

func (p *Page) Fields(form flow.PartnerForm, errs flow.FieldErrors) PartnerFields {
	return PartnerFields{Page: p, Form: form, Errors: errs}
}

type FieldMessage struct {
	Page  *Page
	Error string
}

// PartnerFields feeds the shared partner input block.
type PartnerFields struct {
	Page   *Page
	Form   flow.PartnerForm
	Errors flow.FieldErrors
}

func (f PartnerFields) Err(name string) string { return f.Errors[name] }
