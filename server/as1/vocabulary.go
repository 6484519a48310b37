package as1

// ActivityStreams 1 vocabulary

// AS1 object types
const (
	ActivityType = "activity"
	ArticleType  = "article"
	AudioType    = "audio"
	BookmarkType = "bookmark"
	CommentType  = "comment"
	EventType    = "event"
	HashtagType  = "hashtag"
	ImageType    = "image"
	IssueType    = "issue"
	MentionType  = "mention"
	NoteType     = "note"
	PersonType   = "person"
	PlaceType    = "place"
	VideoType    = "video"
)

// AS1 activity verbs
const (
	FavoriteVerb  = "favorite"
	FollowVerb    = "follow"
	InviteVerb    = "invite"
	LikeVerb      = "like"
	PostVerb      = "post"
	ReactVerb     = "react"
	RSVPMaybeVerb = "rsvp-maybe"
	RSVPNoVerb    = "rsvp-no"
	RSVPYesVerb   = "rsvp-yes"
	ShareVerb     = "share"
	TagVerb       = "tag"
)

// VerbsWithObject lists the verbs where the activity itself is the
// interesting thing, rather than a plain wrapper around its object.
var VerbsWithObject = map[string]bool{
	LikeVerb:  true,
	ReactVerb: true,
	ShareVerb: true,
}
