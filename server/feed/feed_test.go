package feed

import (
	"strings"
	"testing"

	"github.com/ravenscroftj/granary/server/as1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssSample = `<?xml version="1.0"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
<title>Example Blog</title>
<link>http://blog.example/</link>
<description>stuff</description>
<item>
  <title>First Post</title>
  <link>http://blog.example/1</link>
  <guid>tag:blog.example,2024:1</guid>
  <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
  <dc:creator>Ryan</dc:creator>
  <description>summary text</description>
  <content:encoded><![CDATA[<p>full post</p>]]></content:encoded>
  <category>go</category>
  <enclosure url="http://blog.example/pod.mp3" type="audio/mpeg" length="123"/>
</item>
<item>
  <title>Second Post</title>
  <link>http://blog.example/2</link>
  <description>only a description</description>
  <enclosure url="http://blog.example/pic.jpg" type="image/jpeg" length="1"/>
</item>
</channel>
</rss>`

func TestParseRSS(t *testing.T) {
	got, err := NewParser().Parse(strings.NewReader(rssSample))
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0].Object[0]
	assert.Equal(t, as1.ArticleType, first.ObjectType)
	assert.Equal(t, "tag:blog.example,2024:1", first.ID)
	assert.Equal(t, "http://blog.example/1", first.URL)
	assert.Equal(t, "First Post", first.DisplayName)
	assert.Equal(t, "<p>full post</p>", first.Content)
	assert.True(t, first.ContentIsHTML)
	assert.Equal(t, "2024-01-01T10:00:00Z", first.Published)

	require.NotNil(t, first.Author)
	assert.Equal(t, as1.PersonType, first.Author.ObjectType)
	assert.Equal(t, "Ryan", first.Author.DisplayName)

	require.Len(t, first.Tags, 1)
	assert.Equal(t, as1.HashtagType, first.Tags[0].ObjectType)
	assert.Equal(t, "go", first.Tags[0].DisplayName)

	require.Len(t, first.Attachments, 1)
	audio := first.Attachments[0]
	assert.Equal(t, as1.AudioType, audio.ObjectType)
	require.Len(t, audio.Stream, 1)
	assert.Equal(t, "http://blog.example/pod.mp3", audio.Stream[0].URL)

	second := got[1].Object[0]
	assert.Equal(t, "http://blog.example/2", second.ID)
	assert.Equal(t, "only a description", second.Content)
	assert.Nil(t, second.Author)
	require.Len(t, second.Image, 1)
	assert.Equal(t, "http://blog.example/pic.jpg", second.Image[0].URL)
}

const atomSample = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Jane's Site</title>
<author><name>Jane</name></author>
<entry>
  <title>Hi</title>
  <id>tag:j.example,2024:1</id>
  <link href="http://j.example/1"/>
  <updated>2024-02-03T04:05:06Z</updated>
  <content type="html">&lt;p&gt;hello&lt;/p&gt;</content>
</entry>
</feed>`

func TestParseAtomFeedAuthorFallback(t *testing.T) {
	got, err := NewParser().Parse(strings.NewReader(atomSample))
	require.NoError(t, err)
	require.Len(t, got, 1)

	obj := got[0].Object[0]
	assert.Equal(t, "tag:j.example,2024:1", obj.ID)
	assert.Equal(t, "<p>hello</p>", obj.Content)
	assert.Equal(t, "2024-02-03T04:05:06Z", obj.Updated)

	require.NotNil(t, obj.Author)
	assert.Equal(t, "Jane", obj.Author.DisplayName)
}

func TestParseInvalid(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader("not a feed"))
	assert.Error(t, err)
}
