package microformats2

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/ravenscroftj/granary/server/as1"
	"github.com/ravenscroftj/granary/server/mf2"
)

// The h-entry and h-card layouts are fixed. All field values are
// pre-rendered HTML fragments, so the templates only do placement.
var hentryTmpl = template.Must(template.New("hentry").Parse(`<article class="{{.Types}}">
  <span class="p-uid">{{.UID}}</span>
  {{.Summary}}
  {{.Published}}
  {{.Updated}}
{{.Author}}
  {{.LinkedName}}
  <div class="{{.ContentClasses}}">
  {{.Invitees}}
  {{.Content}}
  </div>
{{.Attachments}}
{{.Sizes}}
{{.EventTimes}}
{{.Location}}
{{.Categories}}
{{.Links}}
{{.Children}}
{{.Comments}}
</article>
`))

var hcardTmpl = template.Must(template.New("hcard").Parse(`  <span class="{{.Types}}">
    {{.IDs}}
    {{.LinkedName}}
    {{.Nicknames}}
    {{.Photos}}
  </span>
`))

type hentryData struct {
	Types          string
	UID            string
	Summary        string
	Published      string
	Updated        string
	Author         string
	LinkedName     string
	ContentClasses string
	Invitees       string
	Content        string
	Attachments    string
	Sizes          string
	EventTimes     string
	Location       string
	Categories     string
	Links          string
	Children       string
	Comments       string
}

type hcardData struct {
	Types      string
	IDs        string
	LinkedName string
	Nicknames  string
	Photos     string
}

var rsvpNames = map[string]string{
	"yes":   "is attending.",
	"no":    "is not attending.",
	"maybe": "might attend.",
}

// ActivitiesToHTML converts AS1 activities to a microformats2 HTML h-feed.
func ActivitiesToHTML(activities []*as1.Object) string {
	var entries []string
	for _, a := range activities {
		entries = append(entries, ObjectToHTML(activityOrObject(a), nil))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body>
%s
</body>
</html>
`, strings.Join(entries, "\n"))
}

// ObjectToHTML converts an AS1 object to microformats2 HTML by way of its
// JSON representation.
func ObjectToHTML(obj *as1.Object, parentClasses []string) string {
	return JSONToHTML(ObjectToJSON(obj, DefaultJSONOptions()), parentClasses)
}

// JSONToHTML renders a microformats2 JSON item as microformats2 HTML.
// parentClasses are the classes of the property this item is embedded
// under, e.g. "u-repost-of".
func JSONToHTML(item *mf2.Item, parentClasses []string) string {
	if item == nil {
		return ""
	}
	if item.HasType("h-card") {
		return HCardToHTML(item, parentClasses)
	}

	var links []string
	for _, prop := range []string{"in-reply-to", "tag-of"} {
		urls := mf2.StringURLs(item.Prop(prop))
		sort.Strings(urls)
		for _, u := range urls {
			links = append(links, fmt.Sprintf(`  <a class="u-%s" href="%s"></a>`, prop, u))
		}
	}

	// if this post is an rsvp, populate its data element. if it's an
	// invite, give it a default name. both happen before content handling
	// since they can set the name.
	names := append([]interface{}(nil), item.Prop("name")...)
	rsvp := mf2.Text(item.First("rsvp"))
	if rsvp != "" {
		if len(names) == 0 {
			names = []interface{}{rsvpNames[rsvp]}
		}
		names[0] = fmt.Sprintf(`<data class="p-rsvp" value="%s">%s</data>`, rsvp, mf2.Text(names[0]))
	} else if item.HasProp("invitee") && len(names) == 0 {
		names = []interface{}{"invited"}
	}

	// if this post is itself a follow, like, or repost, link to its targets
	var children []string
	for _, mftype := range []string{"follow", "like", "repost"} {
		for _, target := range item.Prop(mftype + "-of") {
			switch target := target.(type) {
			case string:
				children = append(children, fmt.Sprintf(`<a class="u-%s-of" href="%s"></a>`, mftype, target))
			case *mf2.Item:
				children = append(children, JSONToHTML(target, []string{"u-" + mftype + "-of"}))
			}
		}
	}

	contentHTML := mf2.HTMLValue(item.First("content"))
	var contentClasses []string
	if contentHTML != "" {
		contentClasses = append(contentClasses, "e-content")
		if len(names) == 0 {
			contentClasses = append(contentClasses, "p-name")
		}
	} else if len(names) == 0 {
		// an explicit blank name stops old implied p-name handling from
		// picking up unrelated text
		names = []interface{}{""}
	}

	summary := ""
	if s := mf2.Text(item.First("summary")); s != "" {
		summary = fmt.Sprintf(`<div class="p-summary">%s</div>`, s)
	}

	var attachments []string
	for _, v := range item.Prop("photo") {
		attachments = append(attachments, photoTag(v))
	}
	for _, v := range item.Prop("video") {
		attachments = append(attachments, vidTag(mf2.Text(v), ""))
	}
	for _, v := range item.Prop("audio") {
		attachments = append(attachments, audTag(mf2.Text(v)))
	}

	var sizes []string
	for _, v := range item.Prop("size") {
		s := mf2.Text(v)
		if s == "" {
			continue
		}
		b := sizeToBytes(s)
		sizes = append(sizes, fmt.Sprintf(`<data class="p-size" value="%d">%s</data>`,
			b, humanize.Bytes(uint64(b))))
	}

	// people categories render as embedded h-cards, plain categories as
	// spans. mentions are already linkified inside content.
	var cats []string
	for _, cat := range item.Prop("category") {
		if ci, ok := cat.(*mf2.Item); ok && ci.HasType("h-card") && !ci.HasProp("startIndex") {
			cats = append(cats, HCardToHTML(ci, []string{"u-category", "h-card"}))
		}
	}
	for _, cat := range item.Prop("category") {
		if s, ok := cat.(string); ok {
			cats = append(cats, fmt.Sprintf(`<span class="u-category">%s</span>`, s))
		}
	}

	var comments []string
	for _, c := range item.Prop("comment") {
		if ci, ok := c.(*mf2.Item); ok {
			comments = append(comments, JSONToHTML(ci, []string{"p-comment"}))
		}
	}

	// embedded likes and reposts of this post. the bare like and repost
	// properties double as backcompat aliases of like-of and repost-of, so
	// they only count as embedded reactions when the -of form is absent.
	for _, verb := range []string{"like", "repost"} {
		if item.HasProp(verb + "-of") {
			continue
		}
		vals := item.Prop(verb)
		if len(vals) == 0 {
			continue
		}
		if _, ok := vals[0].(*mf2.Item); !ok {
			continue
		}
		for _, v := range vals {
			if vi, ok := v.(*mf2.Item); ok {
				children = append(children, JSONToHTML(vi, []string{"u-" + verb}))
			}
		}
	}

	for _, c := range item.Children {
		children = append(children, JSONToHTML(c, nil))
	}

	var invitees []string
	for _, inv := range item.Prop("invitee") {
		if ii, ok := inv.(*mf2.Item); ok {
			invitees = append(invitees, HCardToHTML(ii, []string{"p-invitee"}))
		}
	}

	var location string
	switch loc := item.First("location").(type) {
	case string:
		location = HCardToHTML(&mf2.Item{
			Properties: map[string][]interface{}{"name": {loc}},
		}, []string{"p-location"})
	case *mf2.Item:
		location = HCardToHTML(loc, []string{"p-location"})
	}

	var eventTimes []string
	starts, ends := item.Prop("start"), item.Prop("end")
	for _, t := range starts {
		eventTimes = append(eventTimes, fmt.Sprintf(`  <time class="dt-start">%s</time>`, mf2.Text(t)))
	}
	if len(starts) > 0 && len(ends) > 0 {
		eventTimes = append(eventTimes, "  to")
	}
	for _, t := range ends {
		eventTimes = append(eventTimes, fmt.Sprintf(`  <time class="dt-end">%s</time>`, mf2.Text(t)))
	}

	var author string
	if a, ok := item.First("author").(*mf2.Item); ok {
		author = HCardToHTML(a, []string{"p-author"})
	}

	types := append(append([]string{}, parentClasses...), item.Type...)

	var buf bytes.Buffer
	hentryTmpl.Execute(&buf, hentryData{
		Types:          strings.Join(types, " "),
		UID:            mf2.Text(item.First("uid")),
		Summary:        summary,
		Published:      maybeDatetime(mf2.Text(item.First("published")), "dt-published"),
		Updated:        maybeDatetime(mf2.Text(item.First("updated")), "dt-updated"),
		Author:         author,
		LinkedName:     linkedName(names, item.Prop("url")),
		ContentClasses: strings.Join(contentClasses, " "),
		Invitees:       strings.Join(invitees, "\n"),
		Content:        contentHTML,
		Attachments:    strings.Join(attachments, "\n"),
		Sizes:          strings.Join(sizes, "\n"),
		EventTimes:     strings.Join(eventTimes, "\n"),
		Location:       location,
		Categories:     strings.Join(cats, "\n"),
		Links:          strings.Join(links, "\n"),
		Children:       strings.Join(children, "\n"),
		Comments:       strings.Join(comments, "\n"),
	})
	return buf.String()
}

// HCardToHTML renders an h-card item.
func HCardToHTML(card *mf2.Item, parentClasses []string) string {
	if card == nil || len(card.Properties) == 0 {
		return ""
	}

	var ids []string
	for _, uid := range card.Prop("uid") {
		if s := mf2.Text(uid); s != "" {
			ids = append(ids, fmt.Sprintf(`<data class="p-uid" value="%s"></data>`, s))
		}
	}
	for _, nid := range card.Prop("numeric-id") {
		if s := mf2.Text(nid); s != "" {
			ids = append(ids, fmt.Sprintf(`<data class="p-numeric-id" value="%s"></data>`, s))
		}
	}

	var nicknames []string
	for _, n := range card.Prop("nickname") {
		if s := mf2.Text(n); s != "" {
			nicknames = append(nicknames, fmt.Sprintf(`<span class="p-nickname">%s</span>`, s))
		}
	}

	var photos []string
	for _, p := range card.Prop("photo") {
		if mf2.Text(p) != "" {
			photos = append(photos, photoTag(p))
		}
	}

	types := append(append([]string{}, parentClasses...), card.Type...)

	var buf bytes.Buffer
	hcardTmpl.Execute(&buf, hcardData{
		Types:      strings.Join(as1.Uniquify(types), " "),
		IDs:        strings.Join(ids, "\n"),
		LinkedName: linkedName(card.Prop("name"), card.Prop("url")),
		Nicknames:  strings.Join(nicknames, "\n"),
		Photos:     strings.Join(photos, "\n"),
	})
	return buf.String()
}

// AuthorDisplayName returns a human-readable display name for an h-card.
func AuthorDisplayName(card *mf2.Item) string {
	if name := mf2.Text(card.First("name")); name != "" {
		return name
	}
	if uid := mf2.Text(card.First("uid")); uid != "" {
		return uid
	}
	return "Unknown"
}

// linkedName renders the p-name with an optional u-url wrapped around it,
// plus bare u-url anchors for any extra urls.
func linkedName(names, urls []interface{}) string {
	var url string
	if len(urls) > 0 {
		url = mf2.Text(urls[0])
	}

	var html string
	if len(names) > 0 {
		html = maybeLinked(mf2.Text(names[0]), url, "p-name u-url", "p-name")
	} else {
		html = maybeLinked(url, url, "u-url", "")
	}

	if len(urls) > 1 {
		var extras []string
		for _, u := range urls[1:] {
			extras = append(extras, maybeLinked("", mf2.Text(u), "u-url", ""))
		}
		html += "\n" + strings.Join(extras, "\n")
	}
	return html
}

func photoTag(v interface{}) string {
	if p, ok := v.(*mf2.Item); ok && p != nil {
		return imgTag(p.Value, p.Alt)
	}
	return imgTag(mf2.Text(v), "")
}

// maybeLinked wraps text in an anchor iff a non-empty url is given.
func maybeLinked(text, url, linkedClass, unlinkedClass string) string {
	if url != "" {
		class := ""
		if linkedClass != "" {
			class = fmt.Sprintf(` class="%s"`, linkedClass)
		}
		return fmt.Sprintf(`<a%s href="%s">%s</a>`, class, url, text)
	}
	if unlinkedClass != "" {
		return fmt.Sprintf(`<span class="%s">%s</span>`, unlinkedClass, text)
	}
	return text
}

func maybeDatetime(val, class string) string {
	if val == "" {
		return ""
	}
	return fmt.Sprintf(`<time class="%s" datetime="%s">%s</time>`, class, val, val)
}
