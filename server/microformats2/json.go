// Package microformats2 converts between ActivityStreams 1 objects and
// microformats2 JSON and HTML.
//
// Microformats2 specs: http://microformats.org/wiki/microformats2
// ActivityStreams 1 specs: http://activitystrea.ms/specs/
package microformats2

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/ravenscroftj/granary/server/as1"
	"github.com/ravenscroftj/granary/server/mf2"
)

// JSONOptions controls ObjectToJSON.
type JSONOptions struct {
	// TrimNulls removes elements with null or empty values from the result.
	TrimNulls bool
	// EntryClass is the mf2 class(es) entries are given, e.g. h-cite when
	// converting a reference to a foreign entry.
	EntryClass []string
	// DefaultObjectType is used when the object has no objectType of its own.
	DefaultObjectType string
	// SynthesizeContent generates synthetic content when the object has
	// none, e.g. "Likes this."
	SynthesizeContent bool
}

func DefaultJSONOptions() JSONOptions {
	return JSONOptions{
		TrimNulls:         true,
		EntryClass:        []string{"h-entry"},
		SynthesizeContent: true,
	}
}

var asToMF2Type = map[string][]string{
	as1.EventType:  {"h-event"},
	as1.PersonType: {"h-card"},
	as1.PlaceType:  {"h-card", "p-location"},
}

// ISO 6709 location string. http://en.wikipedia.org/wiki/ISO_6709
var iso6709Re = regexp.MustCompile(`^([-+][0-9.]+)([-+][0-9.]+).*/$`)

// ActivityToJSON converts an AS1 activity to microformats2 JSON.
func ActivityToJSON(activity *as1.Object, opts JSONOptions) *mf2.Item {
	return ObjectToJSON(activityOrObject(activity), opts)
}

// activityOrObject returns the base item we care about: the activity itself,
// or its object when the activity is a plain conduit for it.
func activityOrObject(activity *as1.Object) *as1.Object {
	if activity == nil {
		return nil
	}
	if len(activity.Object) > 0 && !as1.VerbsWithObject[activity.Verb] {
		return activity.Object[0]
	}
	return activity
}

// ObjectToJSON converts an AS1 object to microformats2 JSON.
func ObjectToJSON(obj *as1.Object, opts JSONOptions) *mf2.Item {
	if obj.IsEmpty() {
		return &mf2.Item{}
	}

	entryClass := opts.EntryClass
	if len(entryClass) == 0 {
		entryClass = []string{"h-entry"}
	}

	objType := obj.Type()
	if objType == "" {
		objType = opts.DefaultObjectType
	}
	// if the activity type is a post, then it's really just a conduit for
	// the object. for other verbs, the activity itself is the interesting
	// thing.
	primary := obj
	if objType == as1.PostVerb {
		primary = obj.FirstObject()
		if primary == nil {
			primary = &as1.Object{}
		}
		objType = primary.Type()
		if objType == "" {
			objType = opts.DefaultObjectType
		}
	}

	name := primary.Name()
	author := obj.Author
	if author == nil {
		author = obj.Actor
	}

	inReplyTos := []*as1.Object(obj.InReplyTo)
	if len(inReplyTos) == 0 && obj.Context != nil {
		inReplyTos = obj.Context.InReplyTo
	}

	isRSVP := objType == as1.RSVPYesVerb || objType == as1.RSVPNoVerb || objType == as1.RSVPMaybeVerb
	if (isRSVP || objType == as1.ReactVerb) && len(obj.Object) > 0 {
		inReplyTos = append(inReplyTos, obj.Object...)
	}

	// group attachments and tags by objectType
	atts := make(map[string][]*as1.Object)
	for _, list := range [][]*as1.Object{primary.Attachments, primary.Tags} {
		for _, elem := range list {
			if elem != nil {
				atts[elem.ObjectType] = append(atts[elem.ObjectType], elem)
			}
		}
	}

	// prefer duration and size from the object's own stream, then the
	// first video, then the first audio
	var stream as1.Media
	candidates := []*as1.Object{obj}
	candidates = append(candidates, atts[as1.VideoType]...)
	candidates = append(candidates, atts[as1.AudioType]...)
outer:
	for _, cand := range candidates {
		for _, s := range cand.Stream {
			if s != (as1.Media{}) {
				stream = s
				break outer
			}
		}
	}
	duration := ""
	if stream.Duration > 0 {
		duration = strconv.Itoa(stream.Duration)
	}
	size := ""
	if stream.Size > 0 {
		size = strconv.FormatInt(stream.Size, 10)
	}

	urls := as1.ObjectURLs(obj)
	if len(urls) == 0 {
		urls = as1.ObjectURLs(primary)
	}
	urls = append(urls, obj.UpstreamDuplicates...)

	published := obj.Published
	if published == "" {
		published = primary.Published
	}
	updated := obj.Updated
	if updated == "" {
		updated = primary.Updated
	}

	// untrimmed nested conversion; the final trim prunes the whole tree
	nested := func(o *as1.Object, defaultType string, class ...string) *mf2.Item {
		sub := JSONOptions{
			EntryClass:        class,
			DefaultObjectType: defaultType,
			SynthesizeContent: true,
		}
		return ObjectToJSON(o, sub)
	}

	var comments []interface{}
	if obj.Replies != nil {
		for _, c := range obj.Replies.Items {
			comments = append(comments, nested(c, "", "h-cite"))
		}
	}

	// construct mf2!
	props := map[string][]interface{}{
		"uid":         {obj.ID},
		"numeric-id":  {obj.NumericID},
		"name":        {name},
		"nickname":    {obj.Username},
		"summary":     {primary.Summary},
		"url":         toAnys(urls),
		// photo is special cased below, to handle alt
		"video":       toAnys(as1.DedupeURLs(append(streamURLs(atts[as1.VideoType]), primary.Stream.URLs()...))),
		"audio":       toAnys(streamURLs(atts[as1.AudioType])),
		"duration":    {duration},
		"size":        {size},
		"published":   {published},
		"updated":     {updated},
		"in-reply-to": toAnys(as1.URLs(inReplyTos)),
		"author":      {nested(author, as1.PersonType)},
		"location":    {nested(primary.Location, as1.PlaceType)},
		"comment":     comments,
		"start":       {primary.StartTime},
		"end":         {primary.EndTime},
	}

	// quotations. AS1 has nowhere to mark something as "quoted", like in a
	// quote tweet, so we use the extra knowledge that quoted posts become
	// note attachments while bare URLs in text become article tags.
	var children []*mf2.Item
	for _, a := range atts[as1.NoteType] {
		if a.StartIndex == nil {
			children = append(children, nested(a, "", "u-quotation-of", "h-cite"))
		}
	}
	for _, a := range atts[as1.ArticleType] {
		if a.StartIndex == nil {
			children = append(children, nested(a, "", "h-cite"))
		}
	}

	item := &mf2.Item{
		Type:       mf2TypeOf(objType, entryClass),
		Properties: props,
		Children:   children,
	}

	// content. emulate e- vs p- microformats2 parsing: e- if there are
	// HTML tags, otherwise p-.
	// https://indiewebcamp.com/note#Indieweb_whitespace_thinking
	text := html.UnescapeString(primary.Content)
	rendered := RenderContent(primary, RenderOptions{
		SynthesizeContent: opts.SynthesizeContent,
		WhiteSpacePre:     true,
	})
	if strings.Contains(rendered, "<") {
		props["content"] = []interface{}{&mf2.Item{Value: text, HTML: rendered}}
	} else {
		props["content"] = []interface{}{text}
	}

	// photos, including alt text
	photoSeen := make(map[string]bool)
	var photos []interface{}
	images := append([]*as1.Object{}, atts[as1.ImageType]...)
	for _, image := range append(images, primary) {
		alt := ""
		if len(image.Image) > 0 {
			alt = image.Image[0].DisplayName
		}
		for _, u := range image.Image.URLs() {
			if photoSeen[u] {
				continue
			}
			photoSeen[u] = true
			if alt != "" {
				photos = append(photos, &mf2.Item{Value: u, Alt: alt})
			} else {
				photos = append(photos, u)
			}
		}
	}
	props["photo"] = photos

	// hashtags and person tags
	if objType == as1.TagVerb {
		props["tag-of"] = toAnys(as1.URLs(obj.Target))
	}

	tags := obj.Tags
	if len(tags) == 0 {
		if first := obj.FirstObject(); first != nil {
			tags = first.Tags
		}
	}
	if len(tags) == 0 && objType == as1.TagVerb {
		tags = obj.Object
	}
	var cats []interface{}
	for _, tag := range tags {
		if tag == nil {
			continue
		}
		if tag.ObjectType == as1.PersonType {
			cats = append(cats, ObjectToJSON(tag, JSONOptions{
				TrimNulls:         true,
				EntryClass:        []string{"u-category", "h-card"},
				SynthesizeContent: true,
			}))
		} else if tag.ObjectType == as1.HashtagType || objType == as1.TagVerb {
			if tag.DisplayName != "" {
				cats = append(cats, tag.DisplayName)
			}
		}
	}
	props["category"] = cats

	// rsvp
	if isRSVP {
		props["rsvp"] = []interface{}{strings.TrimPrefix(objType, "rsvp-")}
	} else if objType == as1.InviteVerb {
		props["invitee"] = []interface{}{nested(obj.FirstObject(), as1.PersonType)}
	}

	// like and repost mentions
	for _, vp := range []struct{ typ, prop string }{
		{as1.FavoriteVerb, "like"},
		{as1.FollowVerb, "follow"},
		{as1.LikeVerb, "like"},
		{as1.ShareVerb, "repost"},
	} {
		if objType == vp.typ {
			// the AS spec says object should be singular, but a like can
			// have several targets, e.g. a like of a post with original
			// post URLs in it. targets that are just a URL flatten to it.
			var targets []interface{}
			for _, o := range obj.Object {
				if o.URLOnly() {
					targets = append(targets, o.URL)
				} else {
					targets = append(targets, nested(o, "", "h-cite"))
				}
			}
			props[vp.prop+"-of"] = targets
		} else {
			// received likes and reposts
			var received []interface{}
			for _, t := range tags {
				if t.Type() == vp.typ {
					received = append(received, nested(t, "", "h-cite"))
				}
			}
			props[vp.prop] = received
		}
	}

	// bookmarks
	if objType == as1.BookmarkType {
		props["bookmark-of"] = []interface{}{primary.TargetURL}
	}

	// latitude & longitude
	lat, lng := "", ""
	if m := iso6709Re.FindStringSubmatch(primary.Position); m != nil {
		lat, lng = m[1], m[2]
	}
	if lat == "" && primary.Latitude != 0 {
		lat = strconv.FormatFloat(primary.Latitude, 'f', -1, 64)
	}
	if lng == "" && primary.Longitude != 0 {
		lng = strconv.FormatFloat(primary.Longitude, 'f', -1, 64)
	}
	if lat != "" {
		props["latitude"] = []interface{}{lat}
	}
	if lng != "" {
		props["longitude"] = []interface{}{lng}
	}

	if opts.TrimNulls {
		if trimmed := mf2.TrimNulls(item); trimmed != nil {
			return trimmed
		}
		return &mf2.Item{}
	}
	return item
}

func mf2TypeOf(objType string, entryClass []string) []string {
	if t, ok := asToMF2Type[objType]; ok {
		return append([]string{}, t...)
	}
	return append([]string{}, entryClass...)
}

// streamURLs returns the stream URLs of each object, in order.
func streamURLs(objs []*as1.Object) []string {
	var urls []string
	for _, o := range objs {
		urls = append(urls, o.Stream.URLs()...)
	}
	return urls
}

func toAnys(vals []string) []interface{} {
	out := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		out = append(out, v)
	}
	return out
}
