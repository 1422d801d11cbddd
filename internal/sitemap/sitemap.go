package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"crustline/internal/catalog"
)

const robots = `# Allow all search engines to crawl the site
User-agent: *
Allow: /
Disallow: /media
Disallow: /hooks/

# Sitemap location
Sitemap: %s/sitemap.xml
`

type productSource interface {
	Products(ctx context.Context) ([]catalog.Product, error)
}

type Server struct {
	source productSource
	domain string
}

// New serves a sitemap of the home page, the catalog, every category view and
// every product page under siteURL.
func New(source productSource, siteURL string) *Server {
	return &Server{source: source, domain: strings.TrimRight(siteURL, "/")}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	mux.HandleFunc("GET /robots.txt", s.handleRobots)
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	products, err := s.source.Products(r.Context())
	if err != nil {
		http.Error(w, "failed to load sitemap", http.StatusInternalServerError)
		slog.ErrorContext(r.Context(), "failed to read sitemap products", "error", err)
		return
	}
	categories := catalog.DeriveCategories(products)

	entries := make([]urlEntry, 0, 2+len(categories)+len(products))
	entries = append(entries, urlEntry{Loc: s.domain + "/"}, urlEntry{Loc: s.domain + "/products"})
	for _, c := range categories {
		state := catalog.ViewState{}.SelectCategory(&c.ID)
		entries = append(entries, urlEntry{Loc: s.domain + state.Href("/products")})
	}
	for _, p := range products {
		if segment := p.PathSegment(); segment != "" {
			entries = append(entries, urlEntry{Loc: s.domain + "/products/" + url.PathEscape(segment)})
		}
	}
	slog.InfoContext(r.Context(), "serving sitemap", "count", len(entries), "products", len(products))

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		slog.ErrorContext(r.Context(), "failed to write sitemap header", "error", err)
		return
	}
	if err := xml.NewEncoder(w).Encode(urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  entries,
	}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode sitemap", "error", err)
	}
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	full := fmt.Sprintf(robots, s.domain)
	if _, err := w.Write([]byte(full)); err != nil {
		slog.ErrorContext(r.Context(), "failed to write robots.txt", "error", err)
	}
}
