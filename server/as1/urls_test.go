package as1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURLs(t *testing.T) {
	obj := &Object{
		URL:  "http://a/post",
		URLs: []URLValue{{Value: "http://a/post"}, {Value: "http://b/post"}},
	}
	assert.Equal(t, []string{"http://a/post", "http://b/post"}, ObjectURLs(obj))
	assert.Empty(t, ObjectURLs(nil))
}

func TestUniquify(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Uniquify([]string{"a", "b", "a", "c", "b"}))
}

func TestDedupeURLs(t *testing.T) {
	got := DedupeURLs([]string{
		"http://site/post",
		"https://site/post",
		"https://site/post/",
		"http://other/1",
	})
	assert.Equal(t, []string{"https://site/post/", "http://other/1"}, got)
}

func TestDedupeURLsPrefersHTTPS(t *testing.T) {
	got := DedupeURLs([]string{"https://site/a", "http://site/a/"})
	assert.Equal(t, []string{"https://site/a"}, got)
}
