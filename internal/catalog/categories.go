package catalog

import "github.com/samber/lo"

// DeriveCategories returns the distinct categories referenced by products,
// in the order they first appear.
func DeriveCategories(products []Product) []Category {
	referenced := lo.FilterMap(products, func(p Product, _ int) (Category, bool) {
		if p.Category == nil {
			return Category{}, false
		}
		return *p.Category, true
	})
	return lo.UniqBy(referenced, func(c Category) int {
		return c.ID
	})
}
