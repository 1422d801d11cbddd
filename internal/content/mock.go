package content

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"crustline/internal/catalog"

	"github.com/samber/lo"
)

//go:embed mockdata/products.json
var mockProducts []byte

//go:embed mockdata/categories.json
var mockCategories []byte

// Mock serves a fixed menu for local development. The embedded payloads use
// the same mix of record shapes the live API returns and go through the same
// normalizer.
type Mock struct {
	products   []catalog.Product
	categories []catalog.CategoryTile
}

func NewMock(placeholder string) (*Mock, error) {
	// no API host: root-relative images stay relative and are served from /public
	n := catalog.NewNormalizer(catalog.NormalizerConfig{Placeholder: placeholder})

	products, err := ParseRecords(mockProducts)
	if err != nil {
		return nil, fmt.Errorf("parse mock products: %w", err)
	}
	categories, err := ParseRecords(mockCategories)
	if err != nil {
		return nil, fmt.Errorf("parse mock categories: %w", err)
	}
	return &Mock{
		products:   n.Products(decodeRecords[catalog.RawProduct](products)),
		categories: n.Tiles(decodeRecords[catalog.RawCategory](categories)),
	}, nil
}

func (m *Mock) Products(context.Context) ([]catalog.Product, error) {
	return m.products, nil
}

func (m *Mock) Categories(context.Context) ([]catalog.CategoryTile, error) {
	return m.categories, nil
}

func (m *Mock) ProductBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	if p, ok := lo.Find(m.products, func(p catalog.Product) bool { return slug != "" && p.Slug == slug }); ok {
		return &p, nil
	}
	if id, err := strconv.Atoi(slug); err == nil {
		if p, ok := lo.Find(m.products, func(p catalog.Product) bool { return p.ID == id }); ok {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
}

func (m *Mock) Invalidate() {}

func (m *Mock) Ping(context.Context) error {
	return nil
}
