// Package catalog turns content API records into the storefront's canonical
// products and categories and derives what the catalog page shows for a
// given category and page.
package catalog

const (
	DefaultPageSize = 6
	DefaultName     = "No Name"
)

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CategoryTile is a category with the image the home page carousel shows.
type CategoryTile struct {
	Category
	ImageURL string `json:"image_url"`
}

type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url"`
	Category    *Category `json:"category,omitempty"`
	Slug        string    `json:"slug"`
}

// PathSegment is the detail page identifier: the slug, or the numeric id
// when the record has no slug. It is empty when the record has neither, since
// no detail lookup could find it.
func (p Product) PathSegment() string {
	switch {
	case p.Slug != "":
		return p.Slug
	case p.ID > 0:
		return itoa(p.ID)
	default:
		return ""
	}
}
