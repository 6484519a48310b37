package mf2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimNulls(t *testing.T) {
	item := &Item{
		Type: []string{"h-entry"},
		Properties: map[string][]interface{}{
			"name":     {""},
			"content":  {"hi"},
			"author":   {&Item{Type: []string{"h-card"}, Properties: map[string][]interface{}{"name": {""}}}},
			"category": {"go", ""},
		},
		Children: []*Item{{Properties: map[string][]interface{}{"url": {""}}}},
	}

	trimmed := TrimNulls(item)
	assert.Equal(t, &Item{
		Type: []string{"h-entry"},
		Properties: map[string][]interface{}{
			"content":  {"hi"},
			"author":   {&Item{Type: []string{"h-card"}}},
			"category": {"go"},
		},
	}, trimmed)
}

func TestTrimNullsVacant(t *testing.T) {
	assert.Nil(t, TrimNulls(nil))
	assert.Nil(t, TrimNulls(&Item{Properties: map[string][]interface{}{"name": {""}}}))
}

func TestTrimNullsIdempotent(t *testing.T) {
	item := &Item{
		Type: []string{"h-entry"},
		Properties: map[string][]interface{}{
			"name": {"x", ""},
		},
	}
	once := TrimNulls(item)
	assert.Equal(t, once, TrimNulls(once))
}

func TestTrimNullsDoesNotMutate(t *testing.T) {
	item := &Item{Properties: map[string][]interface{}{"name": {"x", ""}}}
	TrimNulls(item)
	assert.Len(t, item.Properties["name"], 2)
}
