// Package mf2 models microformats2 JSON items: a type class list plus
// multiply-valued properties whose values are strings or nested items.
package mf2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Item is a microformats2 JSON item. Every property is inherently
// multi-valued even when logically singular; First gives the singular view.
// Value, HTML and Alt are set on items that appear as property values, e.g.
// e-content blobs and photos with alt text.
type Item struct {
	Type       []string                 `json:"type,omitempty"`
	Properties map[string][]interface{} `json:"properties,omitempty"`
	Children   []*Item                  `json:"children,omitempty"`
	Value      string                   `json:"value,omitempty"`
	HTML       string                   `json:"html,omitempty"`
	Alt        string                   `json:"alt,omitempty"`
}

func (i *Item) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type       []string                     `json:"type"`
		Properties map[string][]json.RawMessage `json:"properties"`
		Children   []json.RawMessage            `json:"children"`
		Value      string                       `json:"value"`
		HTML       string                       `json:"html"`
		Alt        string                       `json:"alt"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	i.Type = raw.Type
	i.Value = raw.Value
	i.HTML = raw.HTML
	i.Alt = raw.Alt
	if len(raw.Properties) > 0 {
		i.Properties = make(map[string][]interface{}, len(raw.Properties))
		for name, vals := range raw.Properties {
			decoded := make([]interface{}, 0, len(vals))
			for _, v := range vals {
				decoded = append(decoded, decodeValue(v))
			}
			i.Properties[name] = decoded
		}
	}
	for _, c := range raw.Children {
		var child Item
		if err := json.Unmarshal(c, &child); err != nil {
			return err
		}
		i.Children = append(i.Children, &child)
	}
	return nil
}

// decodeValue turns a raw property value into a string or an *Item.
// Non-string scalars are stringified, matching the "strings or items only"
// property model.
func decodeValue(b json.RawMessage) interface{} {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s
		}
	case '{':
		var item Item
		if err := json.Unmarshal(b, &item); err == nil {
			return &item
		}
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err == nil && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Prop returns all values of a property, nil-safe.
func (i *Item) Prop(name string) []interface{} {
	if i == nil || i.Properties == nil {
		return nil
	}
	return i.Properties[name]
}

// First returns a property's first value, or nil if it has none.
func (i *Item) First(name string) interface{} {
	vals := i.Prop(name)
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

// HasProp reports whether the property has at least one value.
func (i *Item) HasProp(name string) bool {
	return len(i.Prop(name)) > 0
}

// HasType reports whether the item carries the given microformat class.
func (i *Item) HasType(t string) bool {
	if i == nil {
		return false
	}
	for _, typ := range i.Type {
		if typ == t {
			return true
		}
	}
	return false
}

func (i *Item) hasHType() bool {
	if i == nil {
		return false
	}
	for _, typ := range i.Type {
		if strings.HasPrefix(typ, "h-") {
			return true
		}
	}
	return false
}

// Text returns a property value as plain text: the string itself, or a
// nested item's value. Empty string is the null sentinel.
func Text(v interface{}) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case *Item:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(v.Value)
	}
	return ""
}

// HTMLValue returns a property value as markup: a nested item's html if it
// has one, otherwise the escaped plain text.
func HTMLValue(v interface{}) string {
	if item, ok := v.(*Item); ok && item != nil && item.HTML != "" {
		return strings.TrimSpace(item.HTML)
	}
	return EscapeText(Text(v))
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeText escapes &, < and > but not quotes, for text interpolated into
// markup outside of attributes.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// StringURLs extracts string URLs from property values that may be either
// bare strings or embedded items such as h-cites.
func StringURLs(vals []interface{}) []string {
	var urls []string
	for _, v := range vals {
		switch v := v.(type) {
		case string:
			if v != "" {
				urls = append(urls, v)
			}
		case *Item:
			if v.hasHType() {
				urls = append(urls, StringURLs(v.Prop("url"))...)
			}
		}
	}
	return urls
}
