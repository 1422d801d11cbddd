package catalog

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	testAPI         = "http://cms.test:1337/api"
	testPlaceholder = "https://via.placeholder.com/300x200.png?text=No+Image"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(NormalizerConfig{APIBaseURL: testAPI, Placeholder: testPlaceholder})
}

func decodeProduct(t *testing.T, payload string) RawProduct {
	t.Helper()
	var raw RawProduct
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode product %s: %v", payload, err)
	}
	return raw
}

func decodeCategory(t *testing.T, payload string) RawCategory {
	t.Helper()
	var raw RawCategory
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode category %s: %v", payload, err)
	}
	return raw
}

func TestMediaHost(t *testing.T) {
	cases := map[string]string{
		"http://localhost:1337/api":  "http://localhost:1337",
		"http://localhost:1337/api/": "http://localhost:1337",
		"https://cms.example.com":    "https://cms.example.com",
		"https://cms.example.com/v1": "https://cms.example.com/v1",
		"https://api.example.com":    "https://api.example.com",
	}
	for in, want := range cases {
		if got := MediaHost(in); got != want {
			t.Errorf("MediaHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProductWithoutImagesUsesPlaceholder(t *testing.T) {
	n := testNormalizer()
	payloads := []string{
		`{"id":1}`,
		`{"id":2,"attributes":{"name":"Fajita"}}`,
		`{"id":3,"image":[]}`,
		`{"id":4,"image":[{"formats":{}}]}`,
		`{"id":5,"attributes":{"image":{"data":null}}}`,
		`{"id":6,"attributes":{"image":{"data":[{"attributes":{"url":""}}]}}}`,
		`{"id":7,"image":null,"attributes":{"image":"not-an-image"}}`,
	}
	for _, payload := range payloads {
		got := n.Product(decodeProduct(t, payload))
		if got.ImageURL != testPlaceholder {
			t.Errorf("%s: expected placeholder, got %q", payload, got.ImageURL)
		}
	}
}

func TestProductImagePrecedence(t *testing.T) {
	n := testNormalizer()
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name: "nested small beats flat small",
			payload: `{"id":1,
				"attributes":{"image":{"data":[{"attributes":{"url":"/uploads/nested.jpg","formats":{"small":{"url":"/uploads/small_nested.jpg"}}}}]}},
				"image":[{"url":"/uploads/flat.jpg","formats":{"small":{"url":"/uploads/small_flat.jpg"}}}]}`,
			want: "http://cms.test:1337/uploads/small_nested.jpg",
		},
		{
			name: "nested full url beats flat small",
			payload: `{"id":1,
				"attributes":{"image":{"data":[{"attributes":{"url":"/uploads/nested.jpg"}}]}},
				"image":[{"formats":{"small":{"url":"/uploads/small_flat.jpg"}}}]}`,
			want: "http://cms.test:1337/uploads/nested.jpg",
		},
		{
			name:    "nested thumbnail beats nested url",
			payload: `{"id":1,"attributes":{"image":{"data":[{"attributes":{"url":"/uploads/a.jpg","formats":{"thumbnail":{"url":"/uploads/thumb_a.jpg"}}}}]}}}`,
			want:    "http://cms.test:1337/uploads/thumb_a.jpg",
		},
		{
			name:    "nested single object relation",
			payload: `{"id":1,"attributes":{"image":{"data":{"attributes":{"url":"/uploads/single.jpg"}}}}}`,
			want:    "http://cms.test:1337/uploads/single.jpg",
		},
		{
			name:    "flat thumbnail when no small",
			payload: `{"id":1,"image":[{"url":"/uploads/f.jpg","formats":{"thumbnail":{"url":"/uploads/thumb_f.jpg"}}}]}`,
			want:    "http://cms.test:1337/uploads/thumb_f.jpg",
		},
		{
			name:    "flat single object",
			payload: `{"id":1,"image":{"url":"/uploads/one.jpg"}}`,
			want:    "http://cms.test:1337/uploads/one.jpg",
		},
		{
			name:    "only first image considered",
			payload: `{"id":1,"image":[{"formats":{}},{"url":"/uploads/second.jpg"}]}`,
			want:    testPlaceholder,
		},
		{
			name:    "absolute url kept verbatim",
			payload: `{"id":1,"image":[{"url":"https://cdn.example.com/pizza.webp"}]}`,
			want:    "https://cdn.example.com/pizza.webp",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Product(decodeProduct(t, tc.payload))
			if got.ImageURL != tc.want {
				t.Fatalf("ImageURL = %q, want %q", got.ImageURL, tc.want)
			}
		})
	}
}

func TestRichTextDescriptionFlattens(t *testing.T) {
	n := testNormalizer()
	raw := decodeProduct(t, `{"id":1,"description":[
		{"type":"paragraph","children":[{"type":"text","text":"A"},{"type":"text","text":"B"}]},
		{"type":"paragraph","children":[{"type":"text","text":"C"}]}
	]}`)
	if got := n.Product(raw).Description; got != "A B C" {
		t.Fatalf("Description = %q, want %q", got, "A B C")
	}
}

func TestDescriptionVariants(t *testing.T) {
	n := testNormalizer()
	cases := map[string]string{
		`{"description":"Plain text"}`:                                                 "Plain text",
		`{"description":"flat","attributes":{"description":"nested"}}`:                 "nested",
		`{"description":"flat","attributes":{"description":null}}`:                     "flat",
		`{"description":[]}`:                                                           "",
		`{"description":[{"type":"paragraph"},{"children":[{"text":"only"}]}]}`:        " only",
		`{"description":[{"children":[{"type":"text"},{"text":"x"}]}]}`:                " x",
		`{"description":{"unexpected":"object"}}`:                                      "",
		`{"description":42}`:                                                           "",
		`{}`:                                                                           "",
	}
	for payload, want := range cases {
		if got := n.Product(decodeProduct(t, payload)).Description; got != want {
			t.Errorf("%s: Description = %q, want %q", payload, got, want)
		}
	}
}

func TestProductFlatShape(t *testing.T) {
	n := testNormalizer()
	raw := decodeProduct(t, `{
		"id": 12,
		"name": "Crown Crust",
		"description": "Cheese-stuffed crown crust",
		"price": 2250,
		"slug": "crown-crust",
		"image": [{"url": "/uploads/crown.jpg", "formats": {"small": {"url": "/uploads/small_crown.jpg"}}}],
		"category": {"id": 3, "name": "Pizza"}
	}`)

	want := Product{
		ID:          12,
		Name:        "Crown Crust",
		Description: "Cheese-stuffed crown crust",
		Price:       2250,
		ImageURL:    "http://cms.test:1337/uploads/small_crown.jpg",
		Category:    &Category{ID: 3, Name: "Pizza"},
		Slug:        "crown-crust",
	}
	if diff := cmp.Diff(want, n.Product(raw)); diff != "" {
		t.Fatalf("unexpected product (-want +got):\n%s", diff)
	}
}

func TestProductNestedShape(t *testing.T) {
	n := testNormalizer()
	raw := decodeProduct(t, `{
		"id": 7,
		"attributes": {
			"name": "Pizza Stacker",
			"price": 1450.5,
			"slug": "pizza-stacker",
			"description": [{"type": "paragraph", "children": [{"type": "text", "text": "Two layers"}]}],
			"categories": {"data": [{"id": 9, "attributes": {"name": "Somewhat Local"}}]}
		}
	}`)

	want := Product{
		ID:          7,
		Name:        "Pizza Stacker",
		Description: "Two layers",
		Price:       1450.5,
		ImageURL:    testPlaceholder,
		Category:    &Category{ID: 9, Name: "Somewhat Local"},
		Slug:        "pizza-stacker",
	}
	if diff := cmp.Diff(want, n.Product(raw)); diff != "" {
		t.Fatalf("unexpected product (-want +got):\n%s", diff)
	}
}

func TestProductScalarPrecedenceAndDefaults(t *testing.T) {
	n := testNormalizer()

	got := n.Product(decodeProduct(t, `{"id":1,"name":"flat","price":10,"slug":"flat-slug","attributes":{"name":"nested","price":0,"slug":""}}`))
	if got.Name != "nested" {
		t.Errorf("Name = %q, want nested", got.Name)
	}
	if got.Price != 0 {
		t.Errorf("Price = %v, want nested 0 to win", got.Price)
	}
	if got.Slug != "flat-slug" {
		t.Errorf("Slug = %q, want empty nested slug to fall through", got.Slug)
	}

	got = n.Product(decodeProduct(t, `{"id":2,"name":""}`))
	if got.Name != DefaultName || got.Price != 0 || got.Slug != "" || got.Category != nil {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestProductCategoryOrder(t *testing.T) {
	n := testNormalizer()
	cases := []struct {
		name    string
		payload string
		want    *Category
	}{
		{
			name:    "flat category first",
			payload: `{"category":{"id":1,"name":"Flat"},"attributes":{"category":{"id":2,"name":"Nested"}},"categories":[{"id":3,"name":"List"}]}`,
			want:    &Category{ID: 1, Name: "Flat"},
		},
		{
			name:    "nested category second",
			payload: `{"attributes":{"category":{"id":2,"attributes":{"name":"Nested"}}},"categories":[{"id":3,"name":"List"}]}`,
			want:    &Category{ID: 2, Name: "Nested"},
		},
		{
			name:    "flat list third",
			payload: `{"categories":[{"id":3,"name":"List"},{"id":4,"name":"Other"}],"attributes":{"categories":[{"id":5,"name":"Nested list"}]}}`,
			want:    &Category{ID: 3, Name: "List"},
		},
		{
			name:    "nested list last",
			payload: `{"categories":[],"attributes":{"categories":[{"id":5,"name":"Nested list"}]}}`,
			want:    &Category{ID: 5, Name: "Nested list"},
		},
		{
			name:    "empty relation envelope skipped",
			payload: `{"attributes":{"category":{"data":null},"categories":[{"id":6,"name":"Fallback"}]}}`,
			want:    &Category{ID: 6, Name: "Fallback"},
		},
		{
			name:    "category without name",
			payload: `{"category":{"id":8}}`,
			want:    &Category{ID: 8, Name: DefaultName},
		},
		{
			name:    "no category",
			payload: `{"category":"pizza","categories":{"not":"a list"}}`,
			want:    nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Product(decodeProduct(t, tc.payload)).Category
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected category (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMalformedFieldsDegradeToDefaults(t *testing.T) {
	n := testNormalizer()
	payloads := []string{
		`[1,2,3]`,
		`"just a string"`,
		`null`,
		`{"id":"twelve","name":5,"price":"12.50","attributes":"oops","image":42,"category":[],"slug":{}}`,
		`{"attributes":{"image":{"data":[7]},"categories":[null,"x"]}}`,
	}
	for _, payload := range payloads {
		got := n.Product(decodeProduct(t, payload))
		want := Product{Name: DefaultName, ImageURL: testPlaceholder}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: unexpected product (-want +got):\n%s", payload, diff)
		}
	}
}

func TestCategoryNameResolution(t *testing.T) {
	n := testNormalizer()
	cases := map[string]Category{
		`{"id":1,"name":"Pizza"}`:                                       {ID: 1, Name: "Pizza"},
		`{"id":2,"attributes":{"name":"Drinks"}}`:                       {ID: 2, Name: "Drinks"},
		`{"id":3,"name":"Flat","attributes":{"name":"Nested"}}`:         {ID: 3, Name: "Flat"},
		`{"id":4,"name":"","attributes":{"name":"Nested"}}`:             {ID: 4, Name: ""},
		`{"id":5}`:                                                      {ID: 5, Name: DefaultName},
		`{"data":{"id":6,"attributes":{"name":"Wrapped"}}}`:             {ID: 6, Name: "Wrapped"},
		`{"id":7,"name":["not","a","string"],"attributes":{"name":"N"}}`: {ID: 7, Name: "N"},
	}
	for payload, want := range cases {
		if got := n.Category(decodeCategory(t, payload)); got != want {
			t.Errorf("%s: got %+v, want %+v", payload, got, want)
		}
	}
}

func TestCategoryTileImage(t *testing.T) {
	n := testNormalizer()
	raw := decodeCategory(t, `{"id":4,"attributes":{"name":"Sides","Image":{"data":{"id":1,"attributes":{"url":"/uploads/sides.png","formats":{"small":{"url":"/uploads/small_sides.png"}}}}}}}`)
	want := CategoryTile{Category: Category{ID: 4, Name: "Sides"}, ImageURL: "http://cms.test:1337/uploads/small_sides.png"}
	if diff := cmp.Diff(want, n.Tile(raw)); diff != "" {
		t.Fatalf("unexpected tile (-want +got):\n%s", diff)
	}

	bare := n.Tile(decodeCategory(t, `{"id":5,"name":"Deals"}`))
	if bare.ImageURL != testPlaceholder {
		t.Fatalf("expected placeholder for category without image, got %q", bare.ImageURL)
	}
}
