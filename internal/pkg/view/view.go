// Package view renders the server-side HTML pages from embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded stylesheets, served under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Context keys read by Render to fill the shared page chrome.
const (
	KeyCartCount = "view.cart_count"
	KeyUser      = "view.user"
)

// Site holds the values every page layout shows.
type Site struct {
	Name        string
	Description string
	URL         string
	Currency    string
}

// Page is the data passed to every template.
type Page struct {
	Site      Site
	Title     string
	Path      string
	Flash     *Flash
	CartCount int
	User      interface{}
	Data      interface{}
}

// Renderer parses each page together with its layout and the shared partials.
type Renderer struct {
	site   Site
	logger *zap.Logger
	funcs  template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New parses every page under templates/pages. Page names are their path
// without the extension, e.g. "site/home" or "admin/articles/list".
func New(site Site, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		site:   site,
		logger: logger.Named("view"),
		funcs:  funcMap(site),
		pages:  make(map[string]*template.Template),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) load() error {
	partials, err := fs.Glob(templateFS, "templates/partials/*.html")
	if err != nil {
		return err
	}
	return fs.WalkDir(templateFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/pages/"), ".html")
		layout := "templates/layouts/public.html"
		switch {
		case strings.HasPrefix(name, "admin/"):
			layout = "templates/layouts/admin.html"
		case strings.HasPrefix(name, "fragment/"):
			layout = "templates/layouts/fragment.html"
		}
		files := append([]string{layout}, partials...)
		files = append(files, p)
		tpl, err := template.New(path.Base(layout)).Funcs(r.funcs).ParseFS(templateFS, files...)
		if err != nil {
			return fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = tpl
		return nil
	})
}

// Has reports whether a page exists.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pages[name]
	return ok
}

// Render writes the named page with status. The response is buffered so a
// template error never leaves a half-written page.
func (r *Renderer) Render(c *gin.Context, status int, name, title string, data interface{}) {
	r.mu.RLock()
	tpl, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Error("unknown page", zap.String("page", name))
		c.String(http.StatusInternalServerError, "page not found: %s", name)
		return
	}

	page := Page{
		Site:      r.site,
		Title:     title,
		Path:      c.Request.URL.Path,
		Flash:     PopFlash(c),
		CartCount: c.GetInt(KeyCartCount),
		Data:      data,
	}
	if u, ok := c.Get(KeyUser); ok {
		page.User = u
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, page); err != nil {
		r.logger.Error("render page", zap.String("page", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "render error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// NotFound renders the static not-found page with a back link.
func (r *Renderer) NotFound(c *gin.Context, backHref, backLabel string) {
	r.Render(c, http.StatusNotFound, "site/notfound", "Not found", gin.H{
		"BackHref":  backHref,
		"BackLabel": backLabel,
	})
	c.Abort()
}
