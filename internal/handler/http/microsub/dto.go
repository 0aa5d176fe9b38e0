package microsub

import (
	"time"

	"microsubd/internal/common/cursor"
	"microsubd/internal/domain/entity"
	"microsubd/internal/infra/feedparser"
	"microsubd/internal/repository"
)

// ChannelDTO is the jf2-adjacent channel shape spec.md §6 names:
// {uid, name, unread}.
type ChannelDTO struct {
	UID    string `json:"uid"`
	Name   string `json:"name"`
	Unread int64  `json:"unread"`
}

// FeedDTO is the feed descriptor returned by follow/search/preview.
type FeedDTO struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
}

func feedDTO(f *entity.Feed) FeedDTO {
	return FeedDTO{Type: "feed", URL: f.URL, Name: f.Title, Photo: f.Photo}
}

// ItemDTO is an entity.Item rendered onto the jf2 surface spec.md §3/§6
// describe: hyphenated interaction keys, ISO-8601 timestamps, and the
// "_id"/"_is_read"/"_source" metadata fields.
type ItemDTO struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
	URL  string `json:"url,omitempty"`

	Name    string      `json:"name,omitempty"`
	Summary string      `json:"summary,omitempty"`
	Content *ContentDTO `json:"content,omitempty"`

	Published string  `json:"published,omitempty"`
	Updated   string  `json:"updated,omitempty"`
	Author    *Author `json:"author,omitempty"`

	Category []string `json:"category,omitempty"`
	Photo    []string `json:"photo,omitempty"`
	Video    []string `json:"video,omitempty"`
	Audio    []string `json:"audio,omitempty"`

	LikeOf     []string `json:"like-of,omitempty"`
	RepostOf   []string `json:"repost-of,omitempty"`
	BookmarkOf []string `json:"bookmark-of,omitempty"`
	InReplyTo  []string `json:"in-reply-to,omitempty"`

	ID     int64      `json:"_id"`
	IsRead bool       `json:"_is_read"`
	Source *SourceDTO `json:"_source,omitempty"`
}

type ContentDTO struct {
	Text string `json:"text,omitempty"`
	HTML string `json:"html,omitempty"`
}

type Author struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Photo string `json:"photo,omitempty"`
}

type SourceDTO struct {
	URL     string `json:"url,omitempty"`
	FeedURL string `json:"feedUrl,omitempty"`
}

func itemDTO(it *entity.Item, owner string) ItemDTO {
	dto := ItemDTO{
		Type:       it.InteractionType(),
		UID:        it.UID,
		URL:        it.URL,
		Name:       it.Name,
		Summary:    it.Summary,
		Published:  isoOrEmpty(&it.Published),
		Updated:    isoOrEmpty(it.Updated),
		Category:   it.Category,
		Photo:      it.Photo,
		Video:      it.Video,
		Audio:      it.Audio,
		LikeOf:     it.LikeOf,
		RepostOf:   it.RepostOf,
		BookmarkOf: it.BookmarkOf,
		InReplyTo:  it.InReplyTo,
		ID:         it.ID,
		IsRead:     it.IsReadBy(owner),
		Source:     &SourceDTO{URL: it.Src.URL, FeedURL: it.Src.FeedURL},
	}
	if it.Content.Text != "" || it.Content.HTML != "" {
		dto.Content = &ContentDTO{Text: it.Content.Text, HTML: it.Content.HTML}
	}
	if it.Author.Name != "" || it.Author.URL != "" || it.Author.Photo != "" {
		dto.Author = &Author{Name: it.Author.Name, URL: it.Author.URL, Photo: it.Author.Photo}
	}
	return dto
}

// normalizedItemDTO renders a parser-stage feedparser.NormalizedItem onto
// the same jf2 surface, for preview/search which never persist what they
// fetch and so have no entity.Item or _id/_is_read to report.
func normalizedItemDTO(ni feedparser.NormalizedItem, sourceURL, feedURL string) ItemDTO {
	dto := ItemDTO{
		Type:       interactionType(ni),
		URL:        ni.URL,
		Name:       ni.Name,
		Summary:    ni.Summary,
		Published:  isoOrEmpty(&ni.Published),
		Updated:    isoOrEmpty(ni.Updated),
		Category:   ni.Category,
		Photo:      ni.Photo,
		Video:      ni.Video,
		Audio:      ni.Audio,
		LikeOf:     ni.LikeOf,
		RepostOf:   ni.RepostOf,
		BookmarkOf: ni.BookmarkOf,
		InReplyTo:  ni.InReplyTo,
		Source:     &SourceDTO{URL: sourceURL, FeedURL: feedURL},
	}
	if ni.ContentTxt != "" || ni.ContentHTM != "" {
		dto.Content = &ContentDTO{Text: ni.ContentTxt, HTML: ni.ContentHTM}
	}
	if ni.AuthorName != "" || ni.AuthorURL != "" || ni.AuthorPhoto != "" {
		dto.Author = &Author{Name: ni.AuthorName, URL: ni.AuthorURL, Photo: ni.AuthorPhoto}
	}
	return dto
}

// interactionType mirrors entity.Item.InteractionType's precedence
// (like-of -> repost-of -> bookmark-of -> in-reply-to -> post) for items
// that were never assigned an entity.Item wrapper.
func interactionType(ni feedparser.NormalizedItem) string {
	switch {
	case len(ni.LikeOf) > 0:
		return "like"
	case len(ni.RepostOf) > 0:
		return "repost"
	case len(ni.BookmarkOf) > 0:
		return "bookmark"
	case len(ni.InReplyTo) > 0:
		return "reply"
	default:
		return "post"
	}
}

func isoOrEmpty(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// PagingDTO carries the opaque cursor strings for the adjacent pages.
type PagingDTO struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

func pagingDTO(page *repository.TimelinePage) PagingDTO {
	return PagingDTO{
		Before: cursor.Encode(page.NextBefore),
		After:  cursor.Encode(page.NextAfter),
	}
}
