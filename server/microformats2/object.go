package microformats2

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/ravenscroftj/granary/server/as1"
	"github.com/ravenscroftj/granary/server/mf2"
	"github.com/ravenscroftj/granary/server/telemetry"
	"github.com/sosodev/duration"
)

// ObjectOptions controls JSONToObject.
type ObjectOptions struct {
	// Actor is a fallback author, usually from a rel="author" link. An
	// author on the item itself overrides it.
	Actor *as1.Object
	// Fetch enables remote page fetches during authorship resolution.
	// Nil keeps the conversion fully local.
	Fetch mf2.FetchFunc
}

// ErrTagOfConflict is returned for items that combine in-reply-to style
// targets with tag-of, which has no AS1 representation here.
var ErrTagOfConflict = errors.New("combined in-reply-to and tag-of is not supported")

var mf2ToASTypeVerb = map[string][2]string{
	"article":  {as1.ArticleType, ""},
	"bookmark": {as1.ActivityType, as1.PostVerb},
	"event":    {as1.EventType, ""},
	"follow":   {as1.ActivityType, as1.FollowVerb},
	"invite":   {as1.ActivityType, as1.InviteVerb},
	"like":     {as1.ActivityType, as1.LikeVerb},
	"location": {as1.PlaceType, ""},
	"note":     {as1.NoteType, ""},
	"person":   {as1.PersonType, ""},
	"reply":    {as1.CommentType, ""},
	"repost":   {as1.ActivityType, as1.ShareVerb},
	"rsvp":     {as1.ActivityType, ""}, // verb comes from the rsvp value
	"tag":      {as1.ActivityType, as1.TagVerb},
}

var githubRepoRe = regexp.MustCompile(`^https?://github.com/[^/]+/[^/]+(/issues)?/?$`)

// JSONToObject converts a single microformats2 JSON item to an AS1 object.
// Supports h-entry, h-event, h-card and other single items; feeds go
// through HTMLToActivities instead.
func JSONToObject(ctx context.Context, item *mf2.Item, opts ObjectOptions) (*as1.Object, error) {
	if item == nil {
		return nil, nil
	}

	rsvp := mf2.Text(item.First("rsvp"))

	// convert author. the author h-card may live on another page; then the
	// full authorship algorithm runs, fetching if allowed.
	var author *as1.Object
	var err error
	if a, ok := item.First("author").(*mf2.Item); ok {
		author, err = JSONToObject(ctx, a, ObjectOptions{})
		if err != nil {
			return nil, err
		}
	} else if found := mf2.FindAuthor(ctx, item, opts.Fetch); found != nil {
		author = &as1.Object{
			ObjectType:  as1.PersonType,
			URL:         found.URL,
			DisplayName: found.Name,
		}
		if found.Photo != "" {
			author.Image = as1.MediaList{{URL: found.Photo}}
		}
	}
	if author.IsEmpty() {
		author = opts.Actor
	}

	var mfType string
	switch {
	case item.HasType("h-geo") || item.HasType("p-location"):
		mfType = "location"
	case item.HasProp("tag-of"):
		mfType = "tag"
	case item.HasProp("follow-of"):
		mfType = "follow"
	case item.HasProp("bookmark-of"):
		mfType = "bookmark"
	default:
		// mf2's photo type is a note or article *with* a photo, but the
		// AS1 photo type *is* a photo, so classify without it
		mfType = mf2.PostType(withoutProp(item, "photo"))
	}
	tv := mf2ToASTypeVerb[mfType]
	asType, asVerb := tv[0], tv[1]
	if rsvp != "" {
		asVerb = "rsvp-" + rsvp
	}

	// special case issues that are in-reply-to a repo or its issues URL
	inReplyTos := mf2.StringURLs(item.Prop("in-reply-to"))
	for _, u := range inReplyTos {
		if githubRepoRe.MatchString(u) {
			asType = as1.IssueType
		}
	}

	urls := mf2.StringURLs(item.Prop("url"))

	// quotations: https://indieweb.org/quotation#How_to_markup
	var attachments []*as1.Object
	quotes := make([]interface{}, 0, len(item.Children))
	for _, c := range item.Children {
		quotes = append(quotes, c)
	}
	quotes = append(quotes, item.Prop("quotation-of")...)
	for _, q := range quotes {
		if cite, ok := q.(*mf2.Item); ok && cite.HasType("h-cite") {
			att, aerr := JSONToObject(ctx, cite, ObjectOptions{})
			if aerr != nil {
				return nil, aerr
			}
			attachments = append(attachments, att)
		}
	}

	// the duration property is still emerging; examples in the wild use
	// both integer seconds and ISO 8601 durations.
	// https://indieweb.org/duration
	durText := mf2.Text(item.First("duration"))
	if durText == "" {
		durText = mf2.Text(item.First("length"))
	}
	seconds := parseDuration(durText)
	bytes := sizeToBytes(mf2.Text(item.First("size")))

	var stream *as1.Media
	for _, typ := range []string{as1.AudioType, as1.VideoType} {
		mediaURLs := mf2.StringURLs(item.Prop(typ))
		for i, u := range mediaURLs {
			att := &as1.Object{
				ObjectType: typ,
				Stream: as1.MediaList{{
					URL:      u,
					Duration: seconds, // integer seconds, per the AS1 media link
					Size:     bytes,   // bytes; nonstandard, not in AS1 or AS2
				}},
			}
			attachments = append(attachments, att)
			if i == 0 {
				s := att.Stream[0]
				stream = &s
			}
		}
	}

	obj := &as1.Object{
		ID:          mf2.Text(item.First("uid")),
		ObjectType:  asType,
		Verb:        asVerb,
		Published:   mf2.Text(item.First("published")),
		Updated:     mf2.Text(item.First("updated")),
		StartTime:   mf2.Text(item.First("start")),
		EndTime:     mf2.Text(item.First("end")),
		DisplayName: mf2.Text(item.First("name")),
		Username:    mf2.Text(item.First("nickname")),
		Summary:     mf2.Text(item.First("summary")),
		Content:     mf2.HTMLValue(item.First("content")),
		Attachments: attachments,
	}
	if len(urls) > 0 {
		obj.URL = urls[0]
		if len(urls) > 1 {
			for _, u := range urls {
				obj.URLs = append(obj.URLs, as1.URLValue{Value: u})
			}
		}
	}
	if stream != nil {
		obj.Stream = as1.MediaList{*stream}
	}

	if loc, ok := item.First("location").(*mf2.Item); ok {
		obj.Location, err = JSONToObject(ctx, loc, ObjectOptions{})
		if err != nil {
			return nil, err
		}
	}

	var replies []*as1.Object
	for _, c := range item.Prop("comment") {
		if cite, ok := c.(*mf2.Item); ok {
			reply, rerr := JSONToObject(ctx, cite, ObjectOptions{})
			if rerr != nil {
				return nil, rerr
			}
			if reply != nil {
				replies = append(replies, reply)
			}
		}
	}
	if len(replies) > 0 {
		obj.Replies = &as1.Collection{Items: replies}
	}

	for _, cat := range item.Prop("category") {
		switch cat := cat.(type) {
		case string:
			obj.Tags = append(obj.Tags, &as1.Object{ObjectType: as1.HashtagType, DisplayName: cat})
		case *mf2.Item:
			tag, terr := JSONToObject(ctx, cat, ObjectOptions{})
			if terr != nil {
				return nil, terr
			}
			if tag != nil {
				obj.Tags = append(obj.Tags, tag)
			}
		}
	}

	// images, including alt text. only absolute URLs are accepted.
	photoSeen := make(map[string]bool)
	for _, photo := range append(item.Prop("photo"), item.Prop("featured")...) {
		var u, alt string
		switch p := photo.(type) {
		case string:
			u = p
		case *mf2.Item:
			u, alt = p.Value, p.Alt
			if len(p.Properties) > 0 {
				if v := mf2.Text(p.First("value")); v != "" {
					u = v
				} else if vs := mf2.StringURLs(p.Prop("url")); len(vs) > 0 {
					u = vs[0]
				}
				if a := mf2.Text(p.First("alt")); a != "" {
					alt = a
				}
			}
		}
		if u == "" || photoSeen[u] || !isAbsolute(u) {
			continue
		}
		photoSeen[u] = true
		obj.Image = append(obj.Image, as1.Media{URL: u, DisplayName: alt})
	}

	// the indieweb location algorithm collects location properties. it only
	// applies to post-like items, not to cards or geos themselves.
	isPost := item.HasType("h-entry") || item.HasType("h-event") || item.HasType("h-cite")
	if lat, lng, found := mf2.LocationOf(item); found && isPost {
		if obj.Location == nil {
			obj.Location = &as1.Object{}
		}
		obj.Location.ObjectType = as1.PlaceType
		if lat != "" && lng != "" {
			la, laErr := strconv.ParseFloat(lat, 64)
			ln, lnErr := strconv.ParseFloat(lng, 64)
			if laErr != nil || lnErr != nil {
				telemetry.Debug("could not convert latitude/longitude (%s, %s) to decimal", lat, lng)
			} else {
				obj.Location.Latitude = la
				obj.Location.Longitude = ln
			}
		}
	}

	if asType == as1.ActivityType {
		var objects []*as1.Object
		for _, field := range []string{"follow-of", "like", "like-of", "repost", "repost-of", "in-reply-to", "invitee"} {
			for _, target := range item.Prop(field) {
				var t *as1.Object
				switch target := target.(type) {
				case *mf2.Item:
					t, err = JSONToObject(ctx, target, ObjectOptions{})
					if err != nil {
						return nil, err
					}
				case string:
					t = &as1.Object{URL: target}
				}
				if t == nil {
					continue
				}
				// eliminate duplicates from redundant backcompat properties
				dup := false
				for _, o := range objects {
					if reflect.DeepEqual(o, t) {
						dup = true
						break
					}
				}
				if !dup {
					objects = append(objects, t)
				}
			}
		}
		for _, u := range mf2.StringURLs(item.Prop("bookmark-of")) {
			objects = append(objects, &as1.Object{ObjectType: as1.BookmarkType, TargetURL: u})
		}
		obj.Object = objects
		obj.Actor = author

		if asVerb == as1.TagVerb {
			obj.Target = as1.ObjectList{{URL: mf2.Text(item.First("tag-of"))}}
			if len(obj.Object) > 0 {
				return nil, ErrTagOfConflict
			}
			obj.Object = as1.ObjectList(obj.Tags)
			obj.Tags = nil
		}
	} else {
		for _, u := range inReplyTos {
			obj.InReplyTo = append(obj.InReplyTo, &as1.Object{URL: u})
		}
		obj.Author = author
	}

	return postprocess(obj), nil
}

// postprocess prunes vacant nested records so omitempty marshaling drops
// them cleanly.
func postprocess(obj *as1.Object) *as1.Object {
	if obj == nil {
		return nil
	}
	if obj.Author.IsEmpty() {
		obj.Author = nil
	}
	if obj.Actor.IsEmpty() {
		obj.Actor = nil
	}
	if obj.Location.IsEmpty() {
		obj.Location = nil
	}
	if obj.Replies != nil && len(obj.Replies.Items) == 0 {
		obj.Replies = nil
	}
	return obj
}

// withoutProp returns a shallow copy of the item with one property removed.
func withoutProp(item *mf2.Item, name string) *mf2.Item {
	if !item.HasProp(name) {
		return item
	}
	copied := *item
	copied.Properties = make(map[string][]interface{}, len(item.Properties))
	for k, v := range item.Properties {
		if k != name {
			copied.Properties[k] = v
		}
	}
	return &copied
}

// parseDuration reads integer seconds or an ISO 8601 duration. Unparseable
// values are logged and dropped, never fatal.
func parseDuration(val string) int {
	if val == "" {
		return 0
	}
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	if d, err := duration.Parse(val); err == nil {
		return int(d.ToTimeDuration().Seconds())
	}
	telemetry.Debug("unknown format for length or duration [%s]", val)
	return 0
}

// sizeToBytes reads a file size that is either integer bytes or a
// human-readable approximation like "7MB" or "1.23 kb".
func sizeToBytes(val string) int64 {
	if val == "" {
		return 0
	}
	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		return n
	}
	if n, err := humanize.ParseBytes(val); err == nil {
		return int64(n)
	}
	telemetry.Debug("couldn't parse size [%s]", val)
	return 0
}

func isAbsolute(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Host != ""
}
