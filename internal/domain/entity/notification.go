package entity

// Mention type precedence, per spec.md §4.8: like-of > repost-of >
// bookmark-of > in-reply-to > mention.
const (
	MentionTypeLike     = "like"
	MentionTypeRepost   = "repost"
	MentionTypeBookmark = "bookmark"
	MentionTypeReply    = "reply"
	MentionTypeMention  = "mention"
)

// Notification is structurally an Item inside the owner's notifications
// channel, with the source/target pair that a webmention verified and the
// classified mention type (spec.md §3, §4.8).
type Notification struct {
	Item
	SourceURL string
	TargetURL string
	MentionType string
}

// ClassifyMentionType returns the highest-precedence interaction kind an
// Item's interaction arrays indicate, defaulting to "mention" when none are
// set (used by the webmention verifier, distinct from Item.InteractionType
// which defaults to "post" for ordinary feed items).
func ClassifyMentionType(i *Item) string {
	switch {
	case len(i.LikeOf) > 0:
		return MentionTypeLike
	case len(i.RepostOf) > 0:
		return MentionTypeRepost
	case len(i.BookmarkOf) > 0:
		return MentionTypeBookmark
	case len(i.InReplyTo) > 0:
		return MentionTypeReply
	default:
		return MentionTypeMention
	}
}
