package mf2

import (
	"context"
	"strings"

	"github.com/ravenscroftj/granary/server/telemetry"
)

// Author is the result of the indieweb authorship algorithm:
// https://indieweb.org/authorship
type Author struct {
	Name  string
	URL   string
	Photo string
}

// Document is a parsed microformats page: its top-level items plus rel
// links.
type Document struct {
	Items []*Item
	Rels  map[string][]string
}

// FetchFunc fetches a remote page and returns its parsed microformats.
// It is the only operation in this package that may block; callers cancel
// it through the context. A nil FetchFunc disables remote resolution.
type FetchFunc func(ctx context.Context, url string) (*Document, error)

// FindAuthor resolves an entry's author. An embedded h-card wins outright;
// a bare author URL is followed through fetch, when provided, looking for
// the card that represents that page. Returns nil when no author is found.
func FindAuthor(ctx context.Context, item *Item, fetch FetchFunc) *Author {
	if item == nil {
		return nil
	}

	var authorPage string
	if v := item.First("author"); v != nil {
		switch v := v.(type) {
		case *Item:
			if v.HasType("h-card") {
				return cardAuthor(v)
			}
			if isWebURL(v.Value) {
				authorPage = v.Value
			} else if name := Text(v); name != "" {
				return &Author{Name: name}
			}
		case string:
			if isWebURL(v) {
				authorPage = v
			} else if v != "" {
				return &Author{Name: v}
			}
		}
	}
	if authorPage == "" {
		return nil
	}
	if fetch == nil {
		return &Author{URL: authorPage}
	}

	doc, err := fetch(ctx, authorPage)
	if err != nil {
		telemetry.Debug("authorship fetch failed for [%s]: %v", authorPage, err)
		return &Author{URL: authorPage}
	}
	if card := representativeCard(doc, authorPage); card != nil {
		if a := cardAuthor(card); a != nil {
			if a.URL == "" {
				a.URL = authorPage
			}
			return a
		}
	}
	return &Author{URL: authorPage}
}

// representativeCard finds the h-card that represents the given page: one
// whose url matches the page, else one matching a rel=me link, else the
// first card on the page.
func representativeCard(doc *Document, page string) *Item {
	if doc == nil {
		return nil
	}
	cards := collectCards(doc.Items)
	for _, card := range cards {
		for _, u := range StringURLs(card.Prop("url")) {
			if sameURL(u, page) {
				return card
			}
		}
	}
	for _, card := range cards {
		for _, u := range StringURLs(card.Prop("url")) {
			for _, me := range doc.Rels["me"] {
				if sameURL(u, me) {
					return card
				}
			}
		}
	}
	if len(cards) > 0 {
		return cards[0]
	}
	return nil
}

func collectCards(items []*Item) []*Item {
	var cards []*Item
	for _, item := range items {
		if item.HasType("h-card") {
			cards = append(cards, item)
		}
		cards = append(cards, collectCards(item.Children)...)
	}
	return cards
}

func cardAuthor(card *Item) *Author {
	a := &Author{Name: Text(card.First("name"))}
	if urls := StringURLs(card.Prop("url")); len(urls) > 0 {
		a.URL = urls[0]
	}
	switch photo := card.First("photo").(type) {
	case string:
		a.Photo = photo
	case *Item:
		if photo != nil {
			a.Photo = photo.Value
		}
	}
	if a.Name == "" && a.URL == "" && a.Photo == "" {
		return nil
	}
	return a
}

func isWebURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
