package microformats2

import (
	"context"
	"testing"

	"github.com/ravenscroftj/granary/server/as1"
	"github.com/ravenscroftj/granary/server/mf2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"willnorris.com/go/microformats"
)

const feedHTML = `<html><body>
<div class="h-feed">
<article class="h-entry">
  <a class="u-url" href="/post/1">permalink</a>
  <div class="e-content">first post</div>
</article>
<article class="h-entry">
  <div class="e-content">second post</div>
</article>
<div class="h-card"><span class="p-name">not a post</span></div>
</div>
</body></html>`

func TestHTMLToActivities(t *testing.T) {
	got, err := HTMLToActivities(context.Background(), feedHTML, ParseOptions{
		BaseURL: "http://site.example/feed",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0].Object[0]
	assert.Equal(t, as1.NoteType, first.ObjectType)
	assert.Equal(t, "first post", first.Content)
	assert.Equal(t, "http://site.example/post/1", first.URL)
	assert.True(t, first.ContentIsHTML)

	second := got[1].Object[0]
	assert.Equal(t, "second post", second.Content)
	assert.True(t, second.ContentIsHTML)
}

func TestHTMLToActivitiesNoFeed(t *testing.T) {
	body := `<html><body>
<article class="h-entry"><div class="e-content">standalone</div></article>
<div class="h-card"><span class="p-name">skip me</span></div>
</body></html>`

	got, err := HTMLToActivities(context.Background(), body, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "standalone", got[0].Object[0].Content)
}

func TestHTMLToActivitiesActorFallback(t *testing.T) {
	body := `<article class="h-entry"><div class="e-content">hi</div></article>`
	actor := &as1.Object{ObjectType: as1.PersonType, DisplayName: "Ryan"}

	got, err := HTMLToActivities(context.Background(), body, ParseOptions{Actor: actor})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, actor, got[0].Object[0].Author)
}

func TestHTMLToActivitiesFragment(t *testing.T) {
	body := `<html><body>
<div id="other"><article class="h-entry"><div class="e-content">wrong</div></article></div>
<div id="target"><article class="h-entry"><div class="e-content">right</div></article></div>
</body></html>`

	got, err := HTMLToActivities(context.Background(), body, ParseOptions{ID: "target"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "right", got[0].Object[0].Content)

	got, err = HTMLToActivities(context.Background(), body, ParseOptions{ID: "missing"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHTMLToActivitiesBadBaseURL(t *testing.T) {
	_, err := HTMLToActivities(context.Background(), "<html></html>", ParseOptions{
		BaseURL: "http://bad url with spaces",
	})
	assert.Error(t, err)
}

func TestFromParsed(t *testing.T) {
	data := &microformats.Data{
		Items: []*microformats.Microformat{{
			Type: []string{"h-entry"},
			Properties: map[string][]interface{}{
				"name":    {"hi"},
				"content": {map[string]string{"html": "<b>hi</b>", "value": "hi"}},
				"author": {&microformats.Microformat{
					Type:       []string{"h-card"},
					Properties: map[string][]interface{}{"name": {"Ryan"}},
				}},
			},
		}},
		Rels: map[string][]string{"me": {"http://ryan.example"}},
	}

	doc := FromParsed(data)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, data.Rels, doc.Rels)

	item := doc.Items[0]
	assert.Equal(t, []string{"h-entry"}, item.Type)
	assert.Equal(t, "hi", item.First("name"))

	content, ok := item.First("content").(*mf2.Item)
	require.True(t, ok)
	assert.Equal(t, "hi", content.Value)
	assert.Equal(t, "<b>hi</b>", content.HTML)

	author, ok := item.First("author").(*mf2.Item)
	require.True(t, ok)
	assert.True(t, author.HasType("h-card"))
	assert.Equal(t, "Ryan", author.First("name"))
}

func TestGetTitle(t *testing.T) {
	feed := &mf2.Document{Items: []*mf2.Item{{
		Type:       []string{"h-feed"},
		Properties: map[string][]interface{}{"name": {"My Feed"}},
	}}}
	assert.Equal(t, "My Feed", GetTitle(feed))

	entries := &mf2.Document{Items: []*mf2.Item{
		{Type: []string{"h-entry"}},
		{Type: []string{"h-entry"}, Properties: map[string][]interface{}{
			"name": {"first line\nsecond line"},
		}},
	}}
	assert.Equal(t, "first line", GetTitle(entries))

	assert.Equal(t, "", GetTitle(nil))
	assert.Equal(t, "", GetTitle(&mf2.Document{}))
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "short title", ellipsize("short title", 14))
	assert.Equal(t, "a b c...", ellipsize("a b c d e", 3))
}

func TestFindFirstNested(t *testing.T) {
	items := []*mf2.Item{{
		Type: []string{"h-card"},
		Children: []*mf2.Item{{
			Type: []string{"h-feed"},
		}},
	}}
	assert.NotNil(t, findFirst(items, "h-feed"))
	assert.Nil(t, findFirst(items, "h-event"))
}
