package catalog

import (
	"net/url"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productsIn(categoryID, count, firstID int) []Product {
	out := make([]Product, 0, count)
	for i := range count {
		out = append(out, Product{
			ID:       firstID + i,
			Name:     "Pizza " + itoa(firstID+i),
			Category: &Category{ID: categoryID, Name: "Category " + itoa(categoryID)},
		})
	}
	return out
}

func TestPaginateLastPartialPage(t *testing.T) {
	products := productsIn(5, 14, 1)
	state := ViewState{CategoryID: lo.ToPtr(5), Page: 3}

	page := Paginate(products, DeriveCategories(products), state, 6)

	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 14, page.Total)
	assert.Equal(t, 3, page.State.Page)
	require.Len(t, page.Products, 2)
	assert.Equal(t, 13, page.Products[0].ID)
	assert.Equal(t, 14, page.Products[1].ID)
	require.NotNil(t, page.Selected)
	assert.Equal(t, "Category 5", page.Selected.Name)
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())
}

func TestPaginateClampsOutOfRangePage(t *testing.T) {
	products := productsIn(5, 14, 1)
	categories := DeriveCategories(products)

	clamped := Paginate(products, categories, ViewState{CategoryID: lo.ToPtr(5), Page: 5}, 6)
	last := Paginate(products, categories, ViewState{CategoryID: lo.ToPtr(5), Page: 3}, 6)

	assert.Equal(t, last, clamped)
	assert.Equal(t, 3, clamped.State.Page)
}

func TestPaginateFiltersByCategory(t *testing.T) {
	products := append(productsIn(5, 4, 1), productsIn(7, 3, 100)...)
	products = append(products, Product{ID: 500, Name: "Loose"})
	categories := DeriveCategories(products)

	all := Paginate(products, categories, ViewState{Page: 1}, 6)
	assert.Equal(t, 8, all.Total)
	assert.Equal(t, 2, all.TotalPages)
	assert.Len(t, all.Products, 6)
	assert.Nil(t, all.Selected)

	allSecond := Paginate(products, categories, all.State.WithPage(2), 6)
	require.Len(t, allSecond.Products, 2)
	assert.Equal(t, 500, allSecond.Products[1].ID, "uncategorized products are listed under all")

	seven := Paginate(products, categories, ViewState{CategoryID: lo.ToPtr(7), Page: 1}, 6)
	assert.Equal(t, 3, seven.Total)
	assert.Equal(t, 1, seven.TotalPages)
	assert.Equal(t, []int{100, 101, 102}, lo.Map(seven.Products, func(p Product, _ int) int { return p.ID }))
	assert.False(t, seven.HasPrev())
	assert.False(t, seven.HasNext())
}

func TestPaginateUnknownCategoryIsEmpty(t *testing.T) {
	products := productsIn(5, 3, 1)

	page := Paginate(products, DeriveCategories(products), ViewState{CategoryID: lo.ToPtr(42), Page: 4}, 6)

	assert.Empty(t, page.Products)
	assert.Zero(t, page.TotalPages)
	assert.Nil(t, page.Selected)
	assert.Equal(t, 1, page.State.Page)
	require.NotNil(t, page.State.CategoryID)
	assert.Equal(t, 42, *page.State.CategoryID)
}

func TestPaginateDefaultPageSize(t *testing.T) {
	products := productsIn(1, 7, 1)
	page := Paginate(products, nil, ViewState{Page: 1}, 0)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Products, DefaultPageSize)
	assert.Equal(t, 2, page.TotalPages)
}

func TestSelectCategoryResetsPage(t *testing.T) {
	state := ViewState{CategoryID: lo.ToPtr(5), Page: 3}

	next := state.SelectCategory(lo.ToPtr(7))

	require.NotNil(t, next.CategoryID)
	assert.Equal(t, 7, *next.CategoryID)
	assert.Equal(t, 1, next.Page)
	assert.Equal(t, "category=7&page=1", next.Query().Encode())

	// the original state is unchanged
	assert.Equal(t, 5, *state.CategoryID)
	assert.Equal(t, 3, state.Page)

	all := state.SelectCategory(nil)
	assert.True(t, all.AllCategories())
	assert.Equal(t, 1, all.Page)
}

func TestWithPageKeepsCategory(t *testing.T) {
	state := ViewState{CategoryID: lo.ToPtr(5), Page: 1}

	next := state.WithPage(2)
	assert.True(t, next.IsCategory(5))
	assert.Equal(t, 2, next.Page)

	assert.Equal(t, 1, state.WithPage(-3).Page)
}

func TestParseViewState(t *testing.T) {
	cases := []struct {
		query    string
		category *int
		page     int
	}{
		{query: "", category: nil, page: 1},
		{query: "category=5&page=3", category: lo.ToPtr(5), page: 3},
		{query: "category=abc&page=xyz", category: nil, page: 1},
		{query: "category=0&page=0", category: nil, page: 1},
		{query: "category=-2&page=-1", category: nil, page: 1},
		{query: "page=9", category: nil, page: 9},
		{query: "category=%207%20", category: lo.ToPtr(7), page: 1},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			state := ParseViewState(q)
			assert.Equal(t, tc.category, state.CategoryID)
			assert.Equal(t, tc.page, state.Page)
		})
	}
}

func TestViewStateRoundTripsThroughURL(t *testing.T) {
	states := []ViewState{
		{Page: 1},
		{Page: 4},
		{CategoryID: lo.ToPtr(5), Page: 1},
		{CategoryID: lo.ToPtr(12), Page: 3},
	}
	for _, state := range states {
		href := state.Href("/products")
		u, err := url.Parse(href)
		require.NoError(t, err)
		assert.Equal(t, "/products", u.Path)
		assert.Equal(t, state, ParseViewState(u.Query()), href)
	}
}
