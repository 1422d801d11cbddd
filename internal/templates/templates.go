package templates

import (
	"embed"
	"html/template"
	"net/url"
	"unicode/utf8"

	"crustline/internal/catalog"
	"crustline/internal/config"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed *.html
var htmlFiles embed.FS

var Home,
	Products,
	Product *template.Template

const descriptionLimit = 80

// Init parses every page. imageSrc rewrites image URLs before they reach an
// <img> tag; pass nil to use them unchanged.
func Init(cfg *config.Config, stylesheetPath string, imageSrc func(string) string) error {
	if imageSrc == nil {
		imageSrc = func(s string) string { return s }
	}
	funcs := template.FuncMap{
		"StylesheetPath": func() string { return stylesheetPath },
		"SiteURL":        func() string { return cfg.Site.URL },
		"imageSrc":       imageSrc,
		"price":          FormatPrice,
		"truncate":       Truncate,
		"productHref":    ProductHref,
	}
	tmpls, err := template.New("all").Funcs(funcs).ParseFS(htmlFiles, "*.html")
	if err != nil {
		return err
	}
	Home = ensure(tmpls, "home.html")
	Products = ensure(tmpls, "products.html")
	Product = ensure(tmpls, "product.html")
	return nil
}

func ensure(templates *template.Template, name string) *template.Template {
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		panic("template " + name + " not found")
	}
	return tmpl
}

// FormatPrice renders a price with English digit grouping, e.g. "Rs. 1,250".
func FormatPrice(price float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("Rs. %v", number.Decimal(price, number.MaxFractionDigits(2)))
}

// Truncate shortens s to limit runes followed by "..." when it is longer.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= descriptionLimit {
		return s
	}
	return string([]rune(s)[:descriptionLimit]) + "..."
}

// ProductHref is empty for products without a detail page.
func ProductHref(p catalog.Product) string {
	segment := p.PathSegment()
	if segment == "" {
		return ""
	}
	return "/products/" + url.PathEscape(segment)
}
