package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"crustline/internal/catalog"
	"crustline/internal/content"
	"crustline/internal/templates"
)

type catalogPage struct {
	Title         string
	Error         string
	Page          catalog.CatalogPage
	CategoryLinks []link
	PageLinks     []link
	PrevHref      string
	NextHref      string
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := catalog.ParseViewState(r.URL.Query())

	products, err := s.source.Products(ctx)
	if err != nil {
		logFetchFailure(ctx, "products", err)
		render(w, r, templates.Products, http.StatusBadGateway, catalogPage{
			Title: "Menu",
			Error: "Failed to load products.",
		})
		return
	}

	page := catalog.Paginate(products, catalog.DeriveCategories(products), state, s.pageSize)
	render(w, r, templates.Products, http.StatusOK, buildCatalogPage(page))
}

func buildCatalogPage(page catalog.CatalogPage) catalogPage {
	view := catalogPage{Title: "Menu", Page: page}
	if page.Selected != nil {
		view.Title = page.Selected.Name
	}

	view.CategoryLinks = append(view.CategoryLinks, link{
		Label:   "All Products",
		Href:    page.State.SelectCategory(nil).Href(productsPath),
		Current: page.State.AllCategories(),
	})
	for _, c := range page.Categories {
		view.CategoryLinks = append(view.CategoryLinks, link{
			Label:   c.Name,
			Href:    page.State.SelectCategory(&c.ID).Href(productsPath),
			Current: page.State.IsCategory(c.ID),
		})
	}

	for n := 1; n <= page.TotalPages; n++ {
		view.PageLinks = append(view.PageLinks, link{
			Label:   strconv.Itoa(n),
			Href:    page.State.WithPage(n).Href(productsPath),
			Current: n == page.State.Page,
		})
	}
	if page.HasPrev() {
		view.PrevHref = page.State.WithPage(page.State.Page - 1).Href(productsPath)
	}
	if page.HasNext() {
		view.NextHref = page.State.WithPage(page.State.Page + 1).Href(productsPath)
	}
	return view
}

func logFetchFailure(ctx context.Context, what string, err error) {
	var status *content.StatusError
	if errors.As(err, &status) {
		slog.ErrorContext(ctx, "content api rejected request", "what", what, "status", status.StatusCode, "error", err)
		return
	}
	slog.ErrorContext(ctx, "failed to fetch from content api", "what", what, "error", err)
}
