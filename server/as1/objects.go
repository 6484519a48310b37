package as1

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/ravenscroftj/granary/server/telemetry"
)

// Object is a decoded ActivityStreams 1 object or activity. AS1 is one flat
// polymorphic record playing many roles; ObjectType and Verb are the type
// tags and everything else is optional.
type Object struct {
	ID                 string      `json:"id,omitempty"`
	ObjectType         string      `json:"objectType,omitempty"`
	Verb               string      `json:"verb,omitempty"`
	NumericID          string      `json:"numeric_id,omitempty"`
	URL                string      `json:"url,omitempty"`
	URLs               []URLValue  `json:"urls,omitempty"`
	UpstreamDuplicates []string    `json:"upstreamDuplicates,omitempty"`
	DisplayName        string      `json:"displayName,omitempty"`
	Title              string      `json:"title,omitempty"`
	Username           string      `json:"username,omitempty"`
	Summary            string      `json:"summary,omitempty"`
	Content            string      `json:"content,omitempty"`
	ContentIsHTML      bool        `json:"content_is_html,omitempty"`
	Published          string      `json:"published,omitempty"`
	Updated            string      `json:"updated,omitempty"`
	StartTime          string      `json:"startTime,omitempty"`
	EndTime            string      `json:"endTime,omitempty"`
	Author             *Object     `json:"author,omitempty"`
	Actor              *Object     `json:"actor,omitempty"`
	Location           *Object     `json:"location,omitempty"`
	Image              MediaList   `json:"image,omitempty"`
	Stream             MediaList   `json:"stream,omitempty"`
	Tags               []*Object   `json:"tags,omitempty"`
	Attachments        []*Object   `json:"attachments,omitempty"`
	Replies            *Collection `json:"replies,omitempty"`
	InReplyTo          ObjectList  `json:"inReplyTo,omitempty"`
	Object             ObjectList  `json:"object,omitempty"`
	Target             ObjectList  `json:"target,omitempty"`
	Context            *Object     `json:"context,omitempty"`
	TargetURL          string      `json:"targetUrl,omitempty"`
	Position           string      `json:"position,omitempty"`
	Latitude           float64     `json:"latitude,omitempty"`
	Longitude          float64     `json:"longitude,omitempty"`
	StartIndex         *int        `json:"startIndex,omitempty"`
	Length             *int        `json:"length,omitempty"`
}

// Collection holds a sequence of objects, e.g. an object's replies.
type Collection struct {
	Items      []*Object `json:"items,omitempty"`
	TotalItems int       `json:"totalItems,omitempty"`
}

// URLValue is a secondary URL entry in an object's urls field.
type URLValue struct {
	Value string `json:"value,omitempty"`
}

func (u *URLValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &u.Value)
	}
	type alias URLValue
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*u = URLValue(a)
	return nil
}

// Media is an image or stream reference: a URL plus optional alt text,
// duration in seconds, and size in bytes.
type Media struct {
	URL         string `json:"url,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// UnmarshalJSON absorbs malformed duration and size values instead of
// failing: feeds in the wild put ISO strings and garbage in both. The bad
// value itself is logged.
func (m *Media) UnmarshalJSON(b []byte) error {
	var aux struct {
		URL         string `json:"url"`
		DisplayName string `json:"displayName"`
		Duration    any    `json:"duration"`
		Size        any    `json:"size"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	m.URL = aux.URL
	m.DisplayName = aux.DisplayName
	m.Duration = lenientInt(aux.Duration, "duration")
	m.Size = int64(lenientInt(aux.Size, "size"))
	return nil
}

func lenientInt(v any, name string) int {
	switch v := v.(type) {
	case nil:
		return 0
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	telemetry.Debug("ignoring %s [%v]; expected an integer", name, v)
	return 0
}

// MediaList accepts a bare string URL, a single media object, or a list of
// either, since AS1 sources disagree on which shape to emit.
type MediaList []Media

func (l *MediaList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		for _, r := range raw {
			m, err := unmarshalMedia(r)
			if err != nil {
				return err
			}
			*l = append(*l, m)
		}
		return nil
	}
	m, err := unmarshalMedia(b)
	if err != nil {
		return err
	}
	*l = append(*l, m)
	return nil
}

func (l MediaList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]Media(l))
}

func unmarshalMedia(b json.RawMessage) (Media, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var url string
		err := json.Unmarshal(b, &url)
		return Media{URL: url}, err
	}
	var m Media
	err := json.Unmarshal(b, &m)
	return m, err
}

// URLs returns the non-empty URLs of the list entries, in order.
func (l MediaList) URLs() []string {
	urls := make([]string, 0, len(l))
	for _, m := range l {
		if m.URL != "" {
			urls = append(urls, m.URL)
		}
	}
	return urls
}

// ObjectList is a sequence of objects that collapses to a bare object when
// it holds exactly one, matching how AS1 serializes singular object slots.
type ObjectList []*Object

func (l ObjectList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]*Object(l))
}

func (l *ObjectList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '[' {
		var objs []*Object
		if err := json.Unmarshal(b, &objs); err != nil {
			return err
		}
		*l = ObjectList(objs)
		return nil
	}
	var o Object
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	*l = ObjectList{&o}
	return nil
}

// Type returns the object's effective type: its objectType unless that is
// missing or the generic "activity", in which case the verb decides.
func (o *Object) Type() string {
	if o == nil {
		return ""
	}
	if o.ObjectType != "" && o.ObjectType != ActivityType {
		return o.ObjectType
	}
	return o.Verb
}

// Name returns displayName, falling back to title.
func (o *Object) Name() string {
	if o == nil {
		return ""
	}
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.Title
}

// FirstObject returns the activity's first target object, if any.
func (o *Object) FirstObject() *Object {
	if o == nil || len(o.Object) == 0 {
		return nil
	}
	return o.Object[0]
}

// IsEmpty reports whether the object carries no data at all.
func (o *Object) IsEmpty() bool {
	return o == nil || reflect.DeepEqual(*o, Object{})
}

// URLOnly reports whether the object carries nothing beyond a URL and
// possibly its type, i.e. it can be flattened to a bare URL string.
func (o *Object) URLOnly() bool {
	if o == nil || o.URL == "" {
		return false
	}
	trimmed := *o
	trimmed.URL = ""
	trimmed.ObjectType = ""
	return reflect.DeepEqual(trimmed, Object{})
}
