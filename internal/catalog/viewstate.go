package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ViewState is the (category, page) pair that decides what the catalog shows.
// The URL query is its durable form: every request parses it again, and
// every transition is handed out as the URL of the next state.
type ViewState struct {
	// CategoryID is nil when all categories are shown.
	CategoryID *int
	Page       int
}

// ParseViewState reads the category and page query parameters. Missing or
// malformed values mean "all categories" and page 1.
func ParseViewState(q url.Values) ViewState {
	state := ViewState{Page: 1}
	if id, err := strconv.Atoi(strings.TrimSpace(q.Get("category"))); err == nil && id > 0 {
		state.CategoryID = &id
	}
	if page, err := strconv.Atoi(strings.TrimSpace(q.Get("page"))); err == nil && page > 1 {
		state.Page = page
	}
	return state
}

// SelectCategory switches category and goes back to the first page.
func (v ViewState) SelectCategory(id *int) ViewState {
	if id != nil {
		id = lo.ToPtr(*id)
	}
	return ViewState{CategoryID: id, Page: 1}
}

func (v ViewState) WithPage(page int) ViewState {
	v.Page = max(page, 1)
	return v
}

func (v ViewState) IsCategory(id int) bool {
	return v.CategoryID != nil && *v.CategoryID == id
}

func (v ViewState) AllCategories() bool {
	return v.CategoryID == nil
}

func (v ViewState) Query() url.Values {
	q := url.Values{}
	if v.CategoryID != nil {
		q.Set("category", strconv.Itoa(*v.CategoryID))
	}
	q.Set("page", strconv.Itoa(max(v.Page, 1)))
	return q
}

// Href is the shareable link for this state under path.
func (v ViewState) Href(path string) string {
	return path + "?" + v.Query().Encode()
}

// CatalogPage is the filtered, paginated slice of the catalog for one state.
type CatalogPage struct {
	// State has its page clamped into [1, max(TotalPages, 1)].
	State      ViewState
	Products   []Product
	Categories []Category
	// Selected is nil when showing all categories or when the requested
	// category is not referenced by any product.
	Selected   *Category
	Total      int
	TotalPages int
	PageSize   int
}

func Paginate(products []Product, categories []Category, state ViewState, pageSize int) CatalogPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	visible := products
	var selected *Category
	if state.CategoryID != nil {
		id := *state.CategoryID
		visible = lo.Filter(products, func(p Product, _ int) bool {
			return p.Category != nil && p.Category.ID == id
		})
		if c, ok := lo.Find(categories, func(c Category) bool { return c.ID == id }); ok {
			selected = &c
		}
	}

	totalPages := (len(visible) + pageSize - 1) / pageSize
	page := min(max(state.Page, 1), max(totalPages, 1))
	start := min((page-1)*pageSize, len(visible))
	end := min(page*pageSize, len(visible))

	return CatalogPage{
		State:      state.WithPage(page),
		Products:   visible[start:end],
		Categories: categories,
		Selected:   selected,
		Total:      len(visible),
		TotalPages: totalPages,
		PageSize:   pageSize,
	}
}

func (p CatalogPage) HasPrev() bool {
	return p.State.Page > 1
}

func (p CatalogPage) HasNext() bool {
	return p.State.Page < p.TotalPages
}
