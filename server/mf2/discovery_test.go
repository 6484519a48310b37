package mf2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entry(props map[string][]interface{}) *Item {
	return &Item{Type: []string{"h-entry"}, Properties: props}
}

func TestPostType(t *testing.T) {
	tests := []struct {
		name string
		item *Item
		want string
	}{
		{"nil is note", nil, "note"},
		{"event class", &Item{Type: []string{"h-event"}}, "event"},
		{"card class", &Item{Type: []string{"h-card"}}, "person"},
		{"rsvp", entry(map[string][]interface{}{"rsvp": {"yes"}}), "rsvp"},
		{"invite", entry(map[string][]interface{}{"invitee": {"http://a"}}), "invite"},
		{"repost", entry(map[string][]interface{}{"repost-of": {"http://a"}}), "repost"},
		{"like", entry(map[string][]interface{}{"like-of": {"http://a"}}), "like"},
		{"follow", entry(map[string][]interface{}{"follow-of": {"http://a"}}), "follow"},
		{"reply", entry(map[string][]interface{}{"in-reply-to": {"http://a"}}), "reply"},
		{"video", entry(map[string][]interface{}{"video": {"http://a/v.mp4"}}), "video"},
		{"photo", entry(map[string][]interface{}{"photo": {"http://a/p.jpg"}}), "photo"},
		{
			"rsvp beats reply",
			entry(map[string][]interface{}{"rsvp": {"no"}, "in-reply-to": {"http://a"}}),
			"rsvp",
		},
		{
			"name prefixing content is a note",
			entry(map[string][]interface{}{"name": {"hello   world"}, "content": {"hello world, how are you"}}),
			"note",
		},
		{
			"distinct name makes an article",
			entry(map[string][]interface{}{"name": {"On Gophers"}, "content": {"A long treatise."}}),
			"article",
		},
		{
			"summary stands in for content",
			entry(map[string][]interface{}{"name": {"On Gophers"}, "summary": {"A long treatise."}}),
			"article",
		},
		{"bare entry", entry(nil), "note"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PostType(tc.item))
		})
	}
}

func TestLocationOf(t *testing.T) {
	direct := entry(map[string][]interface{}{
		"latitude":  {"50.82"},
		"longitude": {"-0.14"},
	})
	lat, lng, found := LocationOf(direct)
	assert.True(t, found)
	assert.Equal(t, "50.82", lat)
	assert.Equal(t, "-0.14", lng)

	nested := entry(map[string][]interface{}{
		"location": {&Item{Type: []string{"h-geo"}, Properties: map[string][]interface{}{
			"latitude":  {"51.5"},
			"longitude": {"-0.1"},
		}}},
	})
	lat, lng, found = LocationOf(nested)
	assert.True(t, found)
	assert.Equal(t, "51.5", lat)
	assert.Equal(t, "-0.1", lng)

	// a named place with no coordinates still counts as a location
	named := entry(map[string][]interface{}{
		"location": {&Item{Type: []string{"h-card"}, Properties: map[string][]interface{}{
			"name": {"Timeless Coffee Roasters"},
		}}},
	})
	lat, lng, found = LocationOf(named)
	assert.True(t, found)
	assert.Empty(t, lat)
	assert.Empty(t, lng)

	_, _, found = LocationOf(entry(nil))
	assert.False(t, found)
}
