package catalog

import (
	"bytes"
	"encoding/json"
)

// opt holds a value decoded from an untrusted payload. A JSON value of the
// wrong type decodes as absent instead of failing the enclosing record.
type opt[T any] struct {
	Value T
	Valid bool
}

func (o *opt[T]) UnmarshalJSON(b []byte) error {
	*o = opt[T]{}
	if isNull(b) {
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	*o = opt[T]{Value: v, Valid: true}
	return nil
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// RawProduct is a product record as the content API returns it. The same
// fields appear either flat on the record or nested under "attributes";
// both views are kept so resolution can prefer one over the other.
type RawProduct struct {
	ID     opt[int]
	Flat   productFields
	Nested *productFields
}

type productFields struct {
	Name        opt[string]  `json:"name"`
	Description richText     `json:"description"`
	Price       opt[float64] `json:"price"`
	Image       mediaRef     `json:"image"`
	Category    RawCategory  `json:"category"`
	Categories  categoryList `json:"categories"`
	Slug        opt[string]  `json:"slug"`
}

func (r *RawProduct) UnmarshalJSON(b []byte) error {
	*r = RawProduct{}
	var shape struct {
		ID         opt[int]           `json:"id"`
		Attributes opt[productFields] `json:"attributes"`
	}
	if err := json.Unmarshal(b, &shape); err != nil {
		// not an object; every field stays absent
		return nil
	}
	var flat productFields
	if err := json.Unmarshal(b, &flat); err != nil {
		return nil
	}
	r.ID = shape.ID
	r.Flat = flat
	if shape.Attributes.Valid {
		nested := shape.Attributes.Value
		r.Nested = &nested
	}
	return nil
}

// RawCategory is a category record or a category relation. Accepted shapes:
// {id, name}, {id, attributes: {name}}, and the relation envelope
// {data: {id, attributes: {...}}}. {data: null} is an absent relation.
type RawCategory struct {
	ID     opt[int]
	Flat   categoryFields
	Nested *categoryFields

	present bool
}

type categoryFields struct {
	Name  opt[string] `json:"name"`
	Image mediaRef    `json:"image"`
}

func (c *RawCategory) UnmarshalJSON(b []byte) error {
	*c = RawCategory{}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil || keys == nil {
		return nil
	}
	if data, ok := keys["data"]; ok {
		if isNull(data) {
			return nil
		}
		return c.UnmarshalJSON(data)
	}

	var shape struct {
		ID         opt[int]            `json:"id"`
		Attributes opt[categoryFields] `json:"attributes"`
	}
	if err := json.Unmarshal(b, &shape); err != nil {
		return nil
	}
	var flat categoryFields
	if err := json.Unmarshal(b, &flat); err != nil {
		return nil
	}
	c.ID = shape.ID
	c.Flat = flat
	if shape.Attributes.Valid {
		nested := shape.Attributes.Value
		c.Nested = &nested
	}
	c.present = true
	return nil
}

// Present reports whether the record held a category object at all.
func (c RawCategory) Present() bool {
	return c.present
}

// categoryList is a to-many category relation: a bare list or {data: [...]}.
type categoryList []RawCategory

func (l *categoryList) UnmarshalJSON(b []byte) error {
	*l = nil
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err == nil && keys != nil {
		data, ok := keys["data"]
		if !ok {
			return nil
		}
		b = data
	}
	var list []RawCategory
	if err := json.Unmarshal(b, &list); err != nil {
		return nil
	}
	*l = list
	return nil
}

type textKind int

const (
	textAbsent textKind = iota
	textPlain
	textBlocks
)

// richText is a description: a plain string or a list of rich-text blocks.
type richText struct {
	Kind   textKind
	Text   string
	Blocks []opt[richTextBlock]
}

type richTextBlock struct {
	Type     opt[string]             `json:"type"`
	Children opt[[]opt[richTextSpan]] `json:"children"`
}

type richTextSpan struct {
	Type opt[string] `json:"type"`
	Text opt[string] `json:"text"`
}

func (t *richText) UnmarshalJSON(b []byte) error {
	*t = richText{}
	if isNull(b) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = richText{Kind: textPlain, Text: s}
		return nil
	}
	var blocks []opt[richTextBlock]
	if err := json.Unmarshal(b, &blocks); err == nil && blocks != nil {
		*t = richText{Kind: textBlocks, Blocks: blocks}
	}
	return nil
}

// Media is one uploaded image with its optional resized variants.
type Media struct {
	URL     opt[string]       `json:"url"`
	Formats opt[mediaFormats] `json:"formats"`
}

type mediaFormats struct {
	Small     opt[mediaFormat] `json:"small"`
	Thumbnail opt[mediaFormat] `json:"thumbnail"`
}

type mediaFormat struct {
	URL opt[string] `json:"url"`
}

// candidates lists small, thumbnail and full size URLs in that order.
func (m Media) candidates() []opt[string] {
	f := m.Formats.Value
	return []opt[string]{f.Small.Value.URL, f.Thumbnail.Value.URL, m.URL}
}

// mediaRef is an image slot. It holds direct media (one object or a list) or
// a relation envelope {data: [...]} / {data: {...}} whose entries keep the
// media under "attributes".
type mediaRef struct {
	Items []Media
}

func (r *mediaRef) UnmarshalJSON(b []byte) error {
	*r = mediaRef{}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err == nil && keys != nil {
		if data, ok := keys["data"]; ok {
			r.Items = decodeMediaEntries(data)
			return nil
		}
	}
	r.Items = decodeMediaEntries(b)
	return nil
}

func decodeMediaEntries(b []byte) []Media {
	var list []json.RawMessage
	if err := json.Unmarshal(b, &list); err == nil {
		items := make([]Media, 0, len(list))
		for _, raw := range list {
			items = append(items, decodeMediaEntry(raw))
		}
		return items
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err == nil && keys != nil {
		return []Media{decodeMediaEntry(b)}
	}
	return nil
}

func decodeMediaEntry(b []byte) Media {
	var entry struct {
		Attributes opt[Media] `json:"attributes"`
	}
	if err := json.Unmarshal(b, &entry); err == nil && entry.Attributes.Valid {
		return entry.Attributes.Value
	}
	var m Media
	if err := json.Unmarshal(b, &m); err != nil {
		return Media{}
	}
	return m
}

func (r mediaRef) candidates() []opt[string] {
	if len(r.Items) == 0 {
		return nil
	}
	return r.Items[0].candidates()
}
