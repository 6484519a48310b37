package mf2

import "strings"

// impliedTypes is checked in order; the first property present wins.
var impliedTypes = []struct {
	prop     string
	postType string
}{
	{"rsvp", "rsvp"},
	{"invitee", "invite"},
	{"repost-of", "repost"},
	{"like-of", "like"},
	{"follow-of", "follow"},
	{"in-reply-to", "reply"},
	{"video", "video"},
	{"photo", "photo"},
}

// PostType classifies an item per post type discovery:
// http://indiewebcamp.com/post-type-discovery
func PostType(item *Item) string {
	if item == nil {
		return "note"
	}
	if item.HasType("h-event") {
		return "event"
	}
	if item.HasType("h-card") {
		return "person"
	}

	for _, implied := range impliedTypes {
		if item.HasProp(implied.prop) {
			return implied.postType
		}
	}

	// an entry whose name is not just a prefix of its content is an article
	name := normalizeSpace(Text(item.First("name")))
	content := Text(item.First("content"))
	if content == "" {
		content = Text(item.First("summary"))
	}
	content = normalizeSpace(content)
	if name != "" && content != "" && !strings.HasPrefix(content, name) {
		return "article"
	}
	return "note"
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
