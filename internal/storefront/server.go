// Package storefront renders the home, catalog and product detail pages.
package storefront

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"crustline/internal/catalog"
)

type catalogSource interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	Categories(ctx context.Context) ([]catalog.CategoryTile, error)
	ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error)
}

type Server struct {
	source   catalogSource
	pageSize int
}

func New(source catalogSource, pageSize int) *Server {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}
	return &Server{source: source, pageSize: pageSize}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /products", s.handleCatalog)
	mux.HandleFunc("GET /products/{slug}", s.handleProduct)
}

// link is an anchor in a navigation list.
type link struct {
	Label   string
	Href    string
	Current bool
}

// render executes tmpl into a buffer first so a template failure can still
// become a clean 500.
func render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.ErrorContext(r.Context(), "failed to render page", "template", tmpl.Name(), "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(r.Context(), "failed to write page", "template", tmpl.Name(), "error", err)
	}
}
