package main

import (
	"context"
	"fmt"
	"io"

	"crustline/internal/catalog"
	"crustline/internal/templates"
)

type productLister interface {
	Products(ctx context.Context) ([]catalog.Product, error)
}

// printCatalog writes the same slice of the catalog the /products page would
// show for state.
func printCatalog(ctx context.Context, w io.Writer, source productLister, state catalog.ViewState, pageSize int) error {
	products, err := source.Products(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	page := catalog.Paginate(products, catalog.DeriveCategories(products), state, pageSize)

	heading := "All Products"
	if page.Selected != nil {
		heading = page.Selected.Name
	}
	fmt.Fprintf(w, "%s (page %d of %d, %d products)\n", heading, page.State.Page, max(page.TotalPages, 1), page.Total)
	if len(page.Products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return nil
	}
	for _, p := range page.Products {
		fmt.Fprintf(w, "- %s  %s  %s\n", p.Name, templates.FormatPrice(p.Price), templates.ProductHref(p))
	}
	return nil
}
