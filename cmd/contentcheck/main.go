// contentcheck fetches the catalog from the content API and reports records
// that only rendered because the normalizer fell back to defaults.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"crustline/internal/catalog"
	"crustline/internal/config"
	"crustline/internal/content"

	"golang.org/x/sync/errgroup"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout for both fetches")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	source, err := content.NewSource(cfg)
	if err != nil {
		log.Fatalf("failed to create content source: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var products []catalog.Product
	var tiles []catalog.CategoryTile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = source.Products(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tiles, err = source.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	issues := report(os.Stdout, products, tiles, cfg.Content.Placeholder)
	if issues > 0 {
		os.Exit(1)
	}
}

// report prints one line per defaulted field and returns how many it found.
func report(w io.Writer, products []catalog.Product, tiles []catalog.CategoryTile, placeholder string) int {
	issues := 0
	note := func(kind string, id int, name, problem string) {
		issues++
		fmt.Fprintf(w, "%s %d (%s): %s\n", kind, id, name, problem)
	}

	for _, p := range products {
		if p.Name == catalog.DefaultName {
			note("product", p.ID, p.Name, "missing name")
		}
		if p.ImageURL == placeholder {
			note("product", p.ID, p.Name, "no image, using placeholder")
		}
		if p.Category == nil {
			note("product", p.ID, p.Name, "no category")
		}
		if p.Price == 0 {
			note("product", p.ID, p.Name, "price missing or zero")
		}
		if p.Slug == "" {
			note("product", p.ID, p.Name, "no slug, linked by id")
		}
	}
	for _, t := range tiles {
		if t.Name == catalog.DefaultName {
			note("category", t.ID, t.Name, "missing name")
		}
		if t.ImageURL == placeholder {
			note("category", t.ID, t.Name, "no image, using placeholder")
		}
	}

	fmt.Fprintf(w, "checked %d products and %d categories (%d derived from products): %d issues\n",
		len(products), len(tiles), len(catalog.DeriveCategories(products)), issues)
	return issues
}
