// Package feed converts RSS, Atom and JSON feeds to AS1 activities.
package feed

import (
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/ravenscroftj/granary/server/as1"
)

// Parser turns a syndication feed into AS1 activities. The zero value is
// not usable; call NewParser.
type Parser struct {
	parser *gofeed.Parser // handles rss, atom and json feeds
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// Parse reads one feed document and returns an activity per entry, oldest
// order preserved as the feed gives it.
func (p *Parser) Parse(r io.Reader) ([]*as1.Object, error) {
	parsed, err := p.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	var feedAuthor *as1.Object
	if parsed.Author != nil && parsed.Author.Name != "" {
		feedAuthor = &as1.Object{ObjectType: as1.PersonType, DisplayName: parsed.Author.Name}
	}

	activities := make([]*as1.Object, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		obj := itemToObject(item)
		if obj.Author == nil {
			obj.Author = feedAuthor
		}
		activities = append(activities, &as1.Object{Object: as1.ObjectList{obj}})
	}
	return activities, nil
}

func itemToObject(item *gofeed.Item) *as1.Object {
	obj := &as1.Object{
		ObjectType:    as1.ArticleType,
		ID:            item.GUID,
		URL:           item.Link,
		DisplayName:   item.Title,
		Content:       item.Content,
		ContentIsHTML: true,
		Published:     timestamp(item.PublishedParsed, item.Published),
		Updated:       timestamp(item.UpdatedParsed, item.Updated),
	}
	if obj.ID == "" {
		obj.ID = item.Link
	}
	if obj.Content == "" {
		obj.Content = item.Description
	}

	if item.Author != nil && item.Author.Name != "" {
		obj.Author = &as1.Object{ObjectType: as1.PersonType, DisplayName: item.Author.Name}
	}

	for _, cat := range item.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			obj.Tags = append(obj.Tags, &as1.Object{ObjectType: as1.HashtagType, DisplayName: cat})
		}
	}

	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		switch {
		case strings.HasPrefix(enc.Type, "image/"):
			obj.Image = append(obj.Image, as1.Media{URL: enc.URL})
		case strings.HasPrefix(enc.Type, "video/"):
			obj.Attachments = append(obj.Attachments, &as1.Object{
				ObjectType: as1.VideoType,
				Stream:     as1.MediaList{{URL: enc.URL}},
			})
		case strings.HasPrefix(enc.Type, "audio/"):
			obj.Attachments = append(obj.Attachments, &as1.Object{
				ObjectType: as1.AudioType,
				Stream:     as1.MediaList{{URL: enc.URL}},
			})
		}
	}
	if len(obj.Image) == 0 && item.Image != nil && item.Image.URL != "" {
		obj.Image = as1.MediaList{{URL: item.Image.URL}}
	}
	return obj
}

// timestamp prefers the parsed time in RFC 3339 form but keeps the raw
// string when a feed's dates don't parse.
func timestamp(parsed *time.Time, raw string) string {
	if parsed != nil {
		return parsed.UTC().Format(time.RFC3339)
	}
	return strings.TrimSpace(raw)
}
