package storefront

import (
	"net/http"
	"strconv"

	"crustline/internal/catalog"
	"crustline/internal/templates"
)

const (
	exploreWindow = 4
	productsPath  = "/products"
)

type image struct {
	Src string
	Alt string
}

type highlight struct {
	Src   string
	Title string
}

type blog struct {
	Src     string
	Title   string
	Summary string
}

type tile struct {
	catalog.CategoryTile
	Href string
}

var (
	banners = []image{
		{Src: "/public/banners/avenue.svg", Alt: "Now open on the avenue"},
		{Src: "/public/banners/pineapple.svg", Alt: "Pineapple avenue special"},
		{Src: "/public/banners/pizza.svg", Alt: "Fresh from the oven"},
	}
	highlights = []highlight{
		{Src: "/public/highlights/delivery.svg", Title: "Delivering cheezy khushiyan"},
		{Src: "/public/highlights/growing.svg", Title: "Fastest Growing Brand of the Year"},
		{Src: "/public/highlights/local.svg", Title: "Made with fresh, local ingredients and love"},
	}
	blogs = []blog{
		{Src: "/public/blog/local-love.svg", Title: "Crustline: The Neighbourhood Brand That's All About Local Love", Summary: "How a single oven turned into a city-wide habit."},
		{Src: "/public/blog/movie-night.svg", Title: "Crustline and Chill: The Perfect Movie Night Pairings", Summary: "Which pie goes with which genre, settled once and for all."},
		{Src: "/public/blog/pizza-party.svg", Title: "How to Host the Ultimate Pizza Party", Summary: "Quantities, toppings and timing for a crowd."},
	}
)

type homePage struct {
	Title             string
	Banners           []image
	Tiles             []tile
	CategoryError     string
	PrevHref          string
	NextHref          string
	Highlights        []highlight
	Blogs             []blog
	Subscribed        bool
	NewsletterInvalid bool
}

// handleHome always answers 200. A failed category fetch only replaces the
// carousel with an error message.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	page := homePage{
		Banners:           banners,
		Highlights:        highlights,
		Blogs:             blogs,
		Subscribed:        q.Get("subscribed") == "1",
		NewsletterInvalid: q.Get("newsletter") == "invalid",
	}

	tiles, err := s.source.Categories(ctx)
	if err != nil {
		logFetchFailure(ctx, "categories", err)
		page.CategoryError = "Failed to load categories."
	} else {
		offset, _ := strconv.Atoi(q.Get("explore"))
		page.Tiles, page.PrevHref, page.NextHref = exploreCarousel(tiles, offset)
	}
	render(w, r, templates.Home, http.StatusOK, page)
}

// exploreCarousel returns the visible window of category tiles starting at
// offset, clamped into range, and the links that move the window.
func exploreCarousel(all []catalog.CategoryTile, offset int) (visible []tile, prev, next string) {
	offset = min(max(offset, 0), max(len(all)-exploreWindow, 0))
	end := min(offset+exploreWindow, len(all))
	for _, t := range all[offset:end] {
		visible = append(visible, tile{
			CategoryTile: t,
			Href:         catalog.ViewState{}.SelectCategory(&t.ID).Href(productsPath),
		})
	}
	if offset > 0 {
		prev = exploreHref(max(offset-exploreWindow, 0))
	}
	if end < len(all) {
		next = exploreHref(offset + exploreWindow)
	}
	return visible, prev, next
}

func exploreHref(offset int) string {
	if offset == 0 {
		return "/#explore-title"
	}
	return "/?explore=" + strconv.Itoa(offset) + "#explore-title"
}
