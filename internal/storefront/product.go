package storefront

import (
	"errors"
	"log/slog"
	"net/http"

	"crustline/internal/catalog"
	"crustline/internal/content"
	"crustline/internal/templates"
)

type productPage struct {
	Title   string
	Error   string
	Product *catalog.Product
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := r.PathValue("slug")

	product, err := s.source.ProductBySlug(ctx, slug)
	switch {
	case errors.Is(err, content.ErrNotFound):
		slog.InfoContext(ctx, "product not found", "slug", slug)
		render(w, r, templates.Product, http.StatusNotFound, productPage{Title: "Not found", Error: "Product not found."})
	case err != nil:
		logFetchFailure(ctx, "product", err)
		render(w, r, templates.Product, http.StatusBadGateway, productPage{Title: "Menu", Error: "Failed to load product."})
	default:
		render(w, r, templates.Product, http.StatusOK, productPage{Title: product.Name, Product: product})
	}
}
