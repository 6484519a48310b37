package microformats2

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ravenscroftj/granary/server/as1"
	"github.com/ravenscroftj/granary/server/mf2"
	"github.com/ravenscroftj/granary/server/telemetry"
	"golang.org/x/net/html"
	"willnorris.com/go/microformats"
)

// ParseOptions controls HTMLToActivities.
type ParseOptions struct {
	// BaseURL is the URL the HTML came from, used to absolutize links.
	BaseURL string
	// Actor is a fallback author for all entries, usually from a
	// rel="author" link.
	Actor *as1.Object
	// ID restricts parsing to the element with this id. Empty parses the
	// whole page.
	ID string
	// Fetch enables remote fetches during authorship resolution.
	Fetch mf2.FetchFunc
}

// HTMLToActivities converts a microformats2 HTML h-feed to AS1 activities.
// Without an h-feed, all top level h-entry, h-event and h-cite items are
// converted.
func HTMLToActivities(ctx context.Context, body string, opts ParseOptions) ([]*as1.Object, error) {
	base := &url.URL{}
	if opts.BaseURL != "" {
		var err error
		base, err = url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("bad base URL %q: %w", opts.BaseURL, err)
		}
	}

	var doc *mf2.Document
	if opts.ID != "" {
		gq, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parsing HTML: %w", err)
		}
		sel := gq.Find("#" + opts.ID)
		if len(sel.Nodes) == 0 {
			return nil, nil
		}
		doc = ParseNode(sel.Nodes[0], base)
	} else {
		doc = FromParsed(microformats.Parse(strings.NewReader(body), base))
	}

	items := doc.Items
	if feed := findFirst(items, "h-feed"); feed != nil {
		items = feed.Children
	}

	var activities []*as1.Object
	for _, item := range items {
		if !item.HasType("h-entry") && !item.HasType("h-event") && !item.HasType("h-cite") {
			continue
		}
		obj, err := JSONToObject(ctx, item, ObjectOptions{Actor: opts.Actor, Fetch: opts.Fetch})
		if err != nil {
			// one malformed entry shouldn't sink the whole feed
			if errors.Is(err, ErrTagOfConflict) {
				telemetry.Error(err, "skipping entry")
				continue
			}
			return nil, err
		}
		if obj == nil {
			continue
		}
		obj.ContentIsHTML = true
		activities = append(activities, &as1.Object{Object: as1.ObjectList{obj}})
	}
	return activities, nil
}

// ParseNode parses microformats out of a single HTML node.
func ParseNode(n *html.Node, base *url.URL) *mf2.Document {
	return FromParsed(microformats.ParseNode(n, base))
}

// FromParsed converts the microformats parser's output to our document
// model.
func FromParsed(data *microformats.Data) *mf2.Document {
	doc := &mf2.Document{Rels: data.Rels}
	for _, m := range data.Items {
		doc.Items = append(doc.Items, fromMicroformat(m))
	}
	return doc
}

func fromMicroformat(m *microformats.Microformat) *mf2.Item {
	item := &mf2.Item{
		Type:  m.Type,
		Value: m.Value,
		HTML:  m.HTML,
	}
	if len(m.Properties) > 0 {
		item.Properties = make(map[string][]interface{}, len(m.Properties))
		for name, vals := range m.Properties {
			converted := make([]interface{}, 0, len(vals))
			for _, v := range vals {
				converted = append(converted, fromValue(v))
			}
			item.Properties[name] = converted
		}
	}
	for _, c := range m.Children {
		item.Children = append(item.Children, fromMicroformat(c))
	}
	return item
}

// fromValue maps a parsed property value to a string or *mf2.Item. The
// parser emits plain strings, string maps for e- properties and images
// with alt text, and nested microformats.
func fromValue(v interface{}) interface{} {
	switch v := v.(type) {
	case string:
		return v
	case map[string]string:
		return &mf2.Item{Value: v["value"], HTML: v["html"], Alt: v["alt"]}
	case *microformats.Microformat:
		return fromMicroformat(v)
	}
	return fmt.Sprint(v)
}

// findFirst returns the first item with the given type, searching items
// then their children, depth first.
func findFirst(items []*mf2.Item, typ string) *mf2.Item {
	for _, item := range items {
		if item.HasType(typ) {
			return item
		}
		if found := findFirst(item.Children, typ); found != nil {
			return found
		}
	}
	return nil
}

// GetTitle returns a title for a parsed page: the h-feed's name, else the
// first entry's, first line only, ellipsized.
func GetTitle(doc *mf2.Document) string {
	if doc == nil {
		return ""
	}
	name := ""
	if feed := findFirst(doc.Items, "h-feed"); feed != nil {
		name = mf2.Text(feed.First("name"))
	}
	if name == "" {
		for _, item := range doc.Items {
			if n := mf2.Text(item.First("name")); n != "" {
				name = n
				break
			}
		}
	}
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	return ellipsize(name, 14)
}

func ellipsize(s string, words int) string {
	split := strings.Fields(s)
	if len(split) <= words {
		return s
	}
	return strings.Join(split[:words], " ") + "..."
}
