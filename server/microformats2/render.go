package microformats2

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ravenscroftj/granary/server/as1"
	"github.com/ravenscroftj/granary/server/telemetry"
)

// RenderOptions controls RenderContent.
type RenderOptions struct {
	IncludeLocation   bool // render the object's location as a nested card
	SynthesizeContent bool // generate "Likes this." style captions for bare activities
	RenderAttachments bool // render links, images, audio and video attachments
	RenderImage       bool // render the object's own image(s)
	WhiteSpacePre     bool // wrap newline content in white-space: pre instead of <br />
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		IncludeLocation:   true,
		SynthesizeContent: true,
		WhiteSpacePre:     true,
	}
}

var twitterURLRe = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?twitter\.com/`)

// RenderContent renders the content of an AS1 object as HTML: embedded
// mention tags spliced into the text, other tags appended after it, plus
// optional attachments and location.
//
// The returned HTML also ends up inside Atom documents, so it must be
// HTML4 / XHTML, not HTML5. All tags must be closed, etc.
func RenderContent(obj *as1.Object, opts RenderOptions) string {
	if obj == nil {
		return ""
	}
	objType := obj.Type()
	content := obj.Content

	// partition tags into inline mentions and trailing tags, preserving
	// order but de-duping by id
	seenIDs := make(map[string]bool)
	var mentions []*as1.Object
	trailing := newTagGroups()
	for _, t := range obj.Tags {
		if t == nil {
			continue
		}
		if t.ID != "" {
			if seenIDs[t.ID] {
				continue
			}
			seenIDs[t.ID] = true
		}
		if t.StartIndex != nil && t.Length != nil && t.URL != "" {
			mentions = append(mentions, t)
		} else {
			trailing.add(t.Type(), t)
		}
	}

	// linkify embedded mention tags inside content. offsets are character
	// positions, so splice over runes, not bytes.
	if len(mentions) > 0 {
		sort.SliceStable(mentions, func(a, b int) bool {
			return *mentions[a].StartIndex < *mentions[b].StartIndex
		})
		orig := []rune(content)
		var spliced strings.Builder
		last := 0
		for _, tag := range mentions {
			start := *tag.StartIndex
			end := start + *tag.Length
			if start < last || end > len(orig) || start > end {
				telemetry.Debug("ignoring mention with bad range [%d, %d) for [%s]", start, end, tag.URL)
				continue
			}
			spliced.WriteString(string(orig[last:start]))
			fmt.Fprintf(&spliced, `<a href="%s">%s</a>`, tag.URL, string(orig[start:end]))
			last = end
		}
		spliced.WriteString(string(orig[last:]))
		content = spliced.String()
	}

	// is whitespace in this content meaningful? standard heuristic: if it
	// isn't marked up as HTML and has a newline, assume yes.
	// https://indiewebcamp.com/note#Indieweb_whitespace_thinking
	if content != "" && !obj.ContentIsHTML && strings.Contains(content, "\n") {
		if opts.WhiteSpacePre {
			content = fmt.Sprintf(`<div style="white-space: pre">%s</div>`, content)
		} else {
			content = strings.ReplaceAll(content, "\n", "<br />\n")
		}
	}

	// the image field. may be multiply valued.
	renderedURLs := make(map[string]bool)
	if opts.RenderImage {
		urls := obj.Image.URLs()
		imgObjs := make([]*as1.Object, 0, len(urls))
		for _, u := range urls {
			imgObjs = append(imgObjs, &as1.Object{
				ObjectType: as1.ImageType,
				Image:      as1.MediaList{{URL: u}},
			})
			renderedURLs[u] = true
		}
		content += renderAttachmentList(imgObjs, obj)
	}

	// bookmarked URL
	if objType == as1.BookmarkType && obj.TargetURL != "" {
		content += "\nBookmark: " + prettyLink(obj.TargetURL, "u-bookmark-of")
	}

	// attachments, e.g. links (aka articles). note/article attachments
	// become mf2 children instead and render in JSONToHTML.
	if opts.RenderAttachments {
		var atts []*as1.Object
		for _, a := range obj.Attachments {
			if a == nil || a.ObjectType == as1.NoteType || a.ObjectType == as1.ArticleType {
				continue
			}
			if img := firstImageURL(a); img != "" && renderedURLs[img] {
				continue
			}
			atts = append(atts, a)
		}
		atts = append(atts, trailing.pop(as1.ArticleType)...)
		content += renderAttachmentList(atts, obj)
	}

	// generate like/share captions if the activity has no content of its own
	if opts.SynthesizeContent && obj.Content == "" {
		content += synthesizeCaption(obj, objType, opts)
	}

	if opts.RenderAttachments && obj.Verb == as1.ShareVerb {
		var atts []*as1.Object
		for _, target := range obj.Object {
			for _, a := range target.Attachments {
				if a != nil && a.ObjectType != as1.NoteType && a.ObjectType != as1.ArticleType {
					atts = append(atts, a)
				}
			}
		}
		content += renderAttachmentList(atts, obj)
	}

	// location
	if opts.IncludeLocation && !obj.Location.IsEmpty() {
		card := ObjectToJSON(obj.Location, JSONOptions{
			TrimNulls:         true,
			EntryClass:        []string{"h-entry"},
			DefaultObjectType: as1.PlaceType,
			SynthesizeContent: true,
		})
		content += "\n<p>" + HCardToHTML(card, []string{"p-location"}) + "</p>"
	}

	// these are rendered separately in JSONToHTML
	for _, t := range []string{as1.LikeVerb, as1.ShareVerb, as1.ReactVerb, as1.PersonType} {
		trailing.pop(t)
	}

	// render the rest
	content += tagsToHTML(trailing.pop(as1.HashtagType), "p-category", true)
	content += tagsToHTML(trailing.pop(as1.MentionType), "u-mention", false)
	content += tagsToHTML(trailing.rest(), "tag", true)

	return content
}

// synthesizeCaption writes a "Likes this." style caption for a bare
// favorite/like/share. Only the first target makes it into the content;
// the rest surface as separate mf2 properties.
func synthesizeCaption(obj *as1.Object, objType string, opts RenderOptions) string {
	for _, sv := range []struct{ typ, verb string }{
		{as1.FavoriteVerb, "Favorites"},
		{as1.LikeVerb, "Likes"},
		{as1.ShareVerb, "Shared"},
	} {
		if objType != sv.typ || len(obj.Object) == 0 {
			continue
		}
		target := obj.Object[0]
		if target == nil {
			return ""
		}

		// sometimes likes don't have enough content to render anything
		// interesting beyond the caption itself
		if target.URLOnly() {
			return fmt.Sprintf(`<a href="%s">%s this.</a>`, target.URL, sv.verb)
		}

		var out strings.Builder
		author := target.Author
		if author == nil {
			author = target.Actor
		}
		targetURL := target.URL
		if targetURL == "" {
			targetURL = "#"
		}

		if objType == as1.ShareVerb && twitterURLRe.MatchString(obj.URL) {
			// special case for twitter RT's
			username := ""
			if author != nil {
				username = author.Username
			}
			fmt.Fprintf(&out, `RT <a href="%s">@%s</a> `, targetURL, username)
		} else {
			// the author image looks bad in the simplified rendering
			var slim *as1.Object
			if author != nil {
				c := *author
				c.Image = nil
				slim = &c
			}
			card := HCardToHTML(ObjectToJSON(slim, JSONOptions{
				TrimNulls:         true,
				EntryClass:        []string{"h-entry"},
				DefaultObjectType: as1.PersonType,
				SynthesizeContent: true,
			}), nil)
			title := target.Name()
			if title == "" {
				title = "a post"
			}
			fmt.Fprintf(&out, `%s <a href="%s">%s</a> by %s`, sv.verb, targetURL, title, card)
		}

		sub := opts
		sub.RenderAttachments = false
		sub.RenderImage = false
		out.WriteString(RenderContent(target, sub))
		return out.String()
	}
	return ""
}

// renderAttachmentList renders attachments (or tags etc) as HTML.
// Must stay HTML4 / XHTML for Atom embedding, like RenderContent.
func renderAttachmentList(attachments []*as1.Object, obj *as1.Object) string {
	var b strings.Builder
	for _, att := range attachments {
		if att == nil {
			continue
		}
		name := att.DisplayName
		stream := firstStreamURL(att)
		image := firstImageURL(att)
		openATag := false
		b.WriteString("\n<p>")

		switch att.ObjectType {
		case as1.VideoType:
			if stream != "" {
				b.WriteString(vidTag(stream, image))
			}
		case as1.AudioType:
			if stream != "" {
				b.WriteString(audTag(stream))
			}
		default:
			url := att.URL
			if url == "" && obj != nil {
				url = obj.URL
			}
			if url != "" {
				fmt.Fprintf(&b, "\n<a class=\"link\" href=\"%s\">", url)
				openATag = true
			}
			if image != "" {
				b.WriteString("\n" + imgTag(image, name))
			}
		}

		if name != "" && att.ObjectType != as1.ImageType {
			fmt.Fprintf(&b, "\n<span class=\"name\">%s</span>", name)
		}
		if openATag {
			b.WriteString("\n</a>")
		}
		if att.Summary != "" && att.Summary != name {
			fmt.Fprintf(&b, "\n<span class=\"summary\">%s</span>", att.Summary)
		}
		b.WriteString("\n</p>")
	}
	return b.String()
}

// tagsToHTML renders links for trailing tags, de-duped and sorted by
// (url, name). Invisible tags keep their link juice but hide from readers.
func tagsToHTML(tags []*as1.Object, classname string, visible bool) string {
	type pair struct{ url, name string }
	seen := make(map[pair]bool)
	var pairs []pair
	for _, tag := range tags {
		name := ""
		if visible {
			name = tag.DisplayName
		}
		for _, u := range as1.ObjectURLs(tag) {
			p := pair{u, name}
			if !seen[p] {
				seen[p] = true
				pairs = append(pairs, p)
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].url != pairs[b].url {
			return pairs[a].url < pairs[b].url
		}
		return pairs[a].name < pairs[b].name
	})

	var b strings.Builder
	for _, p := range pairs {
		hidden := ""
		if p.name == "" {
			hidden = `aria-hidden="true" `
		}
		fmt.Fprintf(&b, "\n<a class=\"%s\" %shref=\"%s\">%s</a>", classname, hidden, p.url, p.name)
	}
	return b.String()
}

// tagGroups maps objectType to tags of that type, remembering first-seen
// type order so trailing output stays deterministic.
type tagGroups struct {
	order  []string
	groups map[string][]*as1.Object
}

func newTagGroups() *tagGroups {
	return &tagGroups{groups: make(map[string][]*as1.Object)}
}

func (g *tagGroups) add(objType string, tag *as1.Object) {
	if _, ok := g.groups[objType]; !ok {
		g.order = append(g.order, objType)
	}
	g.groups[objType] = append(g.groups[objType], tag)
}

func (g *tagGroups) pop(objType string) []*as1.Object {
	tags := g.groups[objType]
	delete(g.groups, objType)
	return tags
}

func (g *tagGroups) rest() []*as1.Object {
	var tags []*as1.Object
	for _, t := range g.order {
		tags = append(tags, g.groups[t]...)
	}
	return tags
}

func firstStreamURL(o *as1.Object) string {
	if o == nil {
		return ""
	}
	for _, m := range o.Stream {
		if m.URL != "" {
			return m.URL
		}
	}
	return ""
}

func firstImageURL(o *as1.Object) string {
	if o == nil {
		return ""
	}
	for _, m := range o.Image {
		if m.URL != "" {
			return m.URL
		}
	}
	return ""
}

// prettyLink returns a link whose text is a readable version of the URL.
func prettyLink(url, classname string) string {
	text := strings.TrimPrefix(url, "http://")
	text = strings.TrimPrefix(text, "https://")
	text = strings.TrimPrefix(text, "www.")
	if runes := []rune(text); len(runes) > 30 {
		text = string(runes[:30]) + "..."
	}
	return fmt.Sprintf(`<a class="%s" href="%s">%s</a>`, classname, url, text)
}

func imgTag(src, alt string) string {
	return fmt.Sprintf(`<img class="u-photo" src="%s" alt="%s" />`, src, escapeAttr(alt))
}

func vidTag(src, poster string) string {
	posterImg := ""
	if poster != "" {
		posterImg = fmt.Sprintf(`<img src="%s" />`, poster)
	}
	// include ="controls" value since this HTML is also embedded in Atom,
	// which has to validate as XML
	return fmt.Sprintf(`<video class="u-video" src="%s" controls="controls" poster="%s">Your browser does not support the video tag. <a href="%s">Click here to view directly. %s</a></video>`,
		src, poster, src, posterImg)
}

func audTag(src string) string {
	return fmt.Sprintf(`<audio class="u-audio" src="%s" controls="controls">Your browser does not support the audio tag. <a href="%s">Click here to listen directly.</a></audio>`,
		src, src)
}

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
