package catalog

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type NormalizerConfig struct {
	// APIBaseURL is the content API root. Root-relative media paths are
	// served from the same host without the trailing /api segment.
	APIBaseURL string
	// Placeholder is used whenever a record carries no usable image.
	Placeholder string
}

type Normalizer struct {
	mediaHost   string
	placeholder string
}

func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	return &Normalizer{
		mediaHost:   MediaHost(cfg.APIBaseURL),
		placeholder: cfg.Placeholder,
	}
}

// MediaHost strips a trailing /api segment from the content API base URL.
func MediaHost(apiBaseURL string) string {
	return strings.TrimSuffix(strings.TrimRight(apiBaseURL, "/"), "/api")
}

func (n *Normalizer) Placeholder() string {
	return n.placeholder
}

func (n *Normalizer) Products(raws []RawProduct) []Product {
	return lo.Map(raws, func(raw RawProduct, _ int) Product {
		return n.Product(raw)
	})
}

func (n *Normalizer) Product(raw RawProduct) Product {
	nested := lo.FromPtr(raw.Nested)
	flat := raw.Flat

	name, ok := firstNonEmpty(nested.Name, flat.Name)
	if !ok {
		name = DefaultName
	}
	slug, _ := firstNonEmpty(nested.Slug, flat.Slug)

	var price float64
	if nested.Price.Valid {
		price = nested.Price.Value
	} else if flat.Price.Valid {
		price = flat.Price.Value
	}

	images := append(nested.Image.candidates(), flat.Image.candidates()...)

	return Product{
		ID:          raw.ID.Value,
		Name:        name,
		Description: description(nested.Description, flat.Description),
		Price:       price,
		ImageURL:    n.imageURL(images),
		Category:    n.productCategory(flat, nested),
		Slug:        slug,
	}
}

func (n *Normalizer) Category(raw RawCategory) Category {
	name := DefaultName
	if raw.Flat.Name.Valid {
		name = raw.Flat.Name.Value
	} else if raw.Nested != nil && raw.Nested.Name.Valid {
		name = raw.Nested.Name.Value
	}
	return Category{ID: raw.ID.Value, Name: name}
}

func (n *Normalizer) Tile(raw RawCategory) CategoryTile {
	nested := lo.FromPtr(raw.Nested)
	images := append(nested.Image.candidates(), raw.Flat.Image.candidates()...)
	return CategoryTile{
		Category: n.Category(raw),
		ImageURL: n.imageURL(images),
	}
}

func (n *Normalizer) Tiles(raws []RawCategory) []CategoryTile {
	return lo.Map(raws, func(raw RawCategory, _ int) CategoryTile {
		return n.Tile(raw)
	})
}

// productCategory checks flat category, nested category, then the first
// entry of the flat and nested category lists.
func (n *Normalizer) productCategory(flat, nested productFields) *Category {
	candidates := []RawCategory{flat.Category, nested.Category}
	if len(flat.Categories) > 0 {
		candidates = append(candidates, flat.Categories[0])
	}
	if len(nested.Categories) > 0 {
		candidates = append(candidates, nested.Categories[0])
	}
	for _, c := range candidates {
		if c.Present() {
			cat := n.Category(c)
			return &cat
		}
	}
	return nil
}

func (n *Normalizer) imageURL(candidates []opt[string]) string {
	img, ok := firstNonEmpty(candidates...)
	if !ok {
		return n.placeholder
	}
	if strings.HasPrefix(img, "/") {
		return n.mediaHost + img
	}
	return img
}

func description(candidates ...richText) string {
	for _, d := range candidates {
		switch d.Kind {
		case textPlain:
			return d.Text
		case textBlocks:
			return flatten(d.Blocks)
		}
	}
	return ""
}

// flatten joins each block's span texts with a space, then the blocks with a space.
func flatten(blocks []opt[richTextBlock]) string {
	paragraphs := lo.Map(blocks, func(b opt[richTextBlock], _ int) string {
		spans := b.Value.Children.Value
		return strings.Join(lo.Map(spans, func(s opt[richTextSpan], _ int) string {
			return s.Value.Text.Value
		}), " ")
	})
	return strings.Join(paragraphs, " ")
}

func firstNonEmpty(candidates ...opt[string]) (string, bool) {
	for _, c := range candidates {
		if c.Valid && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
