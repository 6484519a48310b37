package microformats2

import (
	"testing"

	"github.com/ravenscroftj/granary/server/as1"
	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func mention(url string, start, length int) *as1.Object {
	return &as1.Object{
		ObjectType: as1.MentionType,
		URL:        url,
		StartIndex: intp(start),
		Length:     intp(length),
	}
}

func TestRenderContentMentions(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "hi @a and @b",
		Tags: []*as1.Object{
			mention("http://b.example", 10, 2),
			mention("http://a.example", 3, 2),
		},
	}
	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t,
		`hi <a href="http://a.example">@a</a> and <a href="http://b.example">@b</a>`,
		got)
}

func TestRenderContentMentionOffsetsAreRunes(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "☕☕ @x here",
		Tags:       []*as1.Object{mention("http://x.example", 3, 2)},
	}
	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t, `☕☕ <a href="http://x.example">@x</a> here`, got)
}

func TestRenderContentBadMentionRangeIgnored(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "short",
		Tags:       []*as1.Object{mention("http://x.example", 3, 50)},
	}
	assert.Equal(t, "short", RenderContent(obj, DefaultRenderOptions()))
}

func TestRenderContentWhitespace(t *testing.T) {
	obj := &as1.Object{ObjectType: as1.NoteType, Content: "line one\nline two"}

	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t, `<div style="white-space: pre">line one
line two</div>`, got)

	opts := DefaultRenderOptions()
	opts.WhiteSpacePre = false
	got = RenderContent(obj, opts)
	assert.Equal(t, "line one<br />\nline two", got)

	// content already marked up as HTML keeps its whitespace untouched
	htmlObj := &as1.Object{ObjectType: as1.NoteType, Content: "line one\nline two", ContentIsHTML: true}
	assert.Equal(t, "line one\nline two", RenderContent(htmlObj, DefaultRenderOptions()))
}

func TestRenderContentLikeCaption(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.ActivityType,
		Verb:       as1.LikeVerb,
		Object:     as1.ObjectList{{URL: "http://x/1"}},
	}
	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t, `<a href="http://x/1">Likes this.</a>`, got)
}

func TestRenderContentTwitterRetweet(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.ActivityType,
		Verb:       as1.ShareVerb,
		URL:        "https://twitter.com/me/status/2",
		Object: as1.ObjectList{{
			ObjectType: as1.NoteType,
			URL:        "https://twitter.com/alice/status/1",
			Content:    "the original",
			Author:     &as1.Object{ObjectType: as1.PersonType, Username: "alice"},
		}},
	}
	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t,
		`RT <a href="https://twitter.com/alice/status/1">@alice</a> the original`,
		got)
}

func TestRenderContentBookmark(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.BookmarkType,
		TargetURL:  "http://example.com/some/page",
	}
	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t,
		"\nBookmark: <a class=\"u-bookmark-of\" href=\"http://example.com/some/page\">example.com/some/page</a>",
		got)
}

func TestPrettyLinkEllipsizes(t *testing.T) {
	got := prettyLink("http://example.com/a/very/long/path/indeed/yes", "link")
	assert.Contains(t, got, "...")
	assert.Contains(t, got, `href="http://example.com/a/very/long/path/indeed/yes"`)
}

func TestRenderContentTrailingTags(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "hi",
		Tags: []*as1.Object{
			{ObjectType: as1.HashtagType, DisplayName: "z", URL: "http://tags/b"},
			{ObjectType: as1.HashtagType, DisplayName: "a", URL: "http://tags/a"},
		},
	}
	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t, "hi"+
		"\n<a class=\"p-category\" href=\"http://tags/a\">a</a>"+
		"\n<a class=\"p-category\" href=\"http://tags/b\">z</a>",
		got)
}

func TestRenderContentHiddenMentionTags(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "hi",
		Tags:       []*as1.Object{{ObjectType: as1.MentionType, URL: "http://m.example"}},
	}
	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t,
		"hi\n<a class=\"u-mention\" aria-hidden=\"true\" href=\"http://m.example\"></a>",
		got)
}

func TestRenderContentDedupesTagsByID(t *testing.T) {
	tag := func() *as1.Object {
		return &as1.Object{ObjectType: as1.HashtagType, ID: "tag:1", DisplayName: "go", URL: "http://tags/go"}
	}
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "hi",
		Tags:       []*as1.Object{tag(), tag()},
	}
	got := RenderContent(obj, DefaultRenderOptions())
	assert.Equal(t, "hi\n<a class=\"p-category\" href=\"http://tags/go\">go</a>", got)
}

func TestRenderContentAttachments(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "watch this",
		Attachments: []*as1.Object{{
			ObjectType: as1.VideoType,
			Stream:     as1.MediaList{{URL: "http://x/v.mp4"}},
		}},
	}

	// attachments only render when asked
	assert.Equal(t, "watch this", RenderContent(obj, DefaultRenderOptions()))

	opts := DefaultRenderOptions()
	opts.RenderAttachments = true
	got := RenderContent(obj, opts)
	assert.Contains(t, got, `<video class="u-video" src="http://x/v.mp4"`)
}

func TestRenderContentImage(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "look",
		Image:      as1.MediaList{{URL: "http://x/p.jpg"}},
	}
	opts := DefaultRenderOptions()
	opts.RenderImage = true
	got := RenderContent(obj, opts)
	assert.Contains(t, got, `<img class="u-photo" src="http://x/p.jpg"`)
}

func TestRenderContentNil(t *testing.T) {
	assert.Equal(t, "", RenderContent(nil, DefaultRenderOptions()))
}
