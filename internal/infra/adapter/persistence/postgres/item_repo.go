package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
)

// ItemRepo is the Postgres implementation of repository.ItemRepository,
// grounded on the teacher's ArticleRepo (query shape, pq.Array batch lookups)
// generalized to the Item entity's dedup, read-state, and cursor-pagination
// requirements.
type ItemRepo struct{ db *sql.DB }

func NewItemRepo(db *sql.DB) repository.ItemRepository {
	return &ItemRepo{db: db}
}

type itemRow struct {
	contentJSON   []byte
	authorJSON    []byte
	category      pq.StringArray
	photo         pq.StringArray
	video         pq.StringArray
	audio         pq.StringArray
	likeOf        pq.StringArray
	repostOf      pq.StringArray
	bookmarkOf    pq.StringArray
	inReplyTo     pq.StringArray
	readBy        pq.StringArray
}

const itemColumns = `
id, channel_id, feed_id, uid, url, type, name, summary, content, published,
updated, author, category, photo, video, audio, like_of, repost_of,
bookmark_of, in_reply_to, src_url, src_feed_url, read_by, stripped, created_at`

func scanItem(scanner interface {
	Scan(dest ...any) error
}) (*entity.Item, error) {
	var it entity.Item
	var r itemRow
	var feedID sql.NullInt64
	var updated sql.NullTime
	var srcURL, srcFeedURL sql.NullString

	if err := scanner.Scan(
		&it.ID, &it.ChannelID, &feedID, &it.UID, &it.URL, &it.Type, &it.Name,
		&it.Summary, &r.contentJSON, &it.Published, &updated, &r.authorJSON,
		&r.category, &r.photo, &r.video, &r.audio, &r.likeOf, &r.repostOf,
		&r.bookmarkOf, &r.inReplyTo, &srcURL, &srcFeedURL, &r.readBy,
		&it.Stripped, &it.CreatedAt,
	); err != nil {
		return nil, err
	}

	if feedID.Valid {
		it.FeedID = &feedID.Int64
	}
	if updated.Valid {
		it.Updated = &updated.Time
	}
	it.Src = entity.Source{URL: srcURL.String, FeedURL: srcFeedURL.String}
	it.Category = []string(r.category)
	it.Photo = []string(r.photo)
	it.Video = []string(r.video)
	it.Audio = []string(r.audio)
	it.LikeOf = []string(r.likeOf)
	it.RepostOf = []string(r.repostOf)
	it.BookmarkOf = []string(r.bookmarkOf)
	it.InReplyTo = []string(r.inReplyTo)
	it.ReadBy = []string(r.readBy)

	if len(r.contentJSON) > 0 {
		if err := json.Unmarshal(r.contentJSON, &it.Content); err != nil {
			return nil, fmt.Errorf("unmarshal content: %w", err)
		}
	}
	if len(r.authorJSON) > 0 {
		if err := json.Unmarshal(r.authorJSON, &it.Author); err != nil {
			return nil, fmt.Errorf("unmarshal author: %w", err)
		}
	}
	return &it, nil
}

func (repo *ItemRepo) AddItem(ctx context.Context, item *entity.Item) (bool, error) {
	contentJSON, err := json.Marshal(item.Content)
	if err != nil {
		return false, fmt.Errorf("AddItem: marshal content: %w", err)
	}
	authorJSON, err := json.Marshal(item.Author)
	if err != nil {
		return false, fmt.Errorf("AddItem: marshal author: %w", err)
	}

	const query = `
INSERT INTO items
	(channel_id, feed_id, uid, url, type, name, summary, content, published,
	 updated, author, category, photo, video, audio, like_of, repost_of,
	 bookmark_of, in_reply_to, src_url, src_feed_url, read_by, stripped, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
        $17, $18, $19, $20, $21, $22, $23, $24)
ON CONFLICT (channel_id, uid) DO NOTHING
RETURNING id`

	var id int64
	err = repo.db.QueryRowContext(ctx, query,
		item.ChannelID, item.FeedID, item.UID, item.URL, item.Type, item.Name,
		item.Summary, contentJSON, item.Published, item.Updated, authorJSON,
		pq.Array(item.Category), pq.Array(item.Photo), pq.Array(item.Video),
		pq.Array(item.Audio), pq.Array(item.LikeOf), pq.Array(item.RepostOf),
		pq.Array(item.BookmarkOf), pq.Array(item.InReplyTo), item.Src.URL,
		item.Src.FeedURL, pq.Array(item.ReadBy), item.Stripped, item.CreatedAt,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil // duplicate, silently ignored per spec.md §4.3
	}
	if err != nil {
		return false, fmt.Errorf("AddItem: %w", err)
	}
	item.ID = id
	return true, nil
}

func (repo *ItemRepo) GetTimeline(ctx context.Context, q repository.TimelineQuery) (*repository.TimelinePage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	where := "channel_id = $1"
	args := []any{q.ChannelID}
	idx := 2

	if !q.ShowRead {
		where += fmt.Sprintf(" AND NOT ($%d = ANY(read_by))", idx)
		args = append(args, q.Owner)
		idx++
	}
	if q.Before != nil {
		where += fmt.Sprintf(" AND (published, id) > ($%d, $%d)", idx, idx+1)
		args = append(args, q.Before.Published, q.Before.ID)
		idx += 2
	}
	if q.After != nil {
		where += fmt.Sprintf(" AND (published, id) < ($%d, $%d)", idx, idx+1)
		args = append(args, q.After.Published, q.After.ID)
		idx += 2
	}

	// A Before cursor selects items strictly newer than the cursor
	// ((published, id) > before, above). Sorting DESC and taking LIMIT would
	// return the globally newest items in the channel, not the limit items
	// immediately adjacent to the cursor. Sort ascending instead -- closest
	// to the cursor first -- and reverse the page back into newest-first
	// order afterward.
	ascending := q.Before != nil
	order := "published DESC, id DESC"
	if ascending {
		order = "published ASC, id ASC"
	}

	query := fmt.Sprintf(`
SELECT %s
FROM items
WHERE %s
ORDER BY %s
LIMIT $%d`, itemColumns, where, order, idx)
	args = append(args, limit+1)

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetTimeline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*entity.Item, 0, limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("GetTimeline: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetTimeline: rows: %w", err)
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	if ascending {
		for l, r := 0, len(items)-1; l < r; l, r = l+1, r-1 {
			items[l], items[r] = items[r], items[l]
		}
	}

	page := &repository.TimelinePage{}
	if len(items) > 0 {
		newest := items[0]
		oldest := items[len(items)-1]
		// hasMore confirms additional rows past the fetched page exist, but
		// which cursor that gates depends on which direction was queried:
		// a DESC fetch's overflow is further into older items, an ASC
		// (Before) fetch's overflow is further into newer items.
		if ascending {
			if hasMore {
				page.NextBefore = &repository.Cursor{Published: newest.Published, ID: newest.ID}
			}
			page.NextAfter = &repository.Cursor{Published: oldest.Published, ID: oldest.ID}
		} else {
			if hasMore {
				page.NextAfter = &repository.Cursor{Published: oldest.Published, ID: oldest.ID}
			}
			page.NextBefore = &repository.Cursor{Published: newest.Published, ID: newest.ID}
		}
	}
	page.Items = items
	return page, nil
}

const lastReadEntrySentinel = "last-read-entry"

func (repo *ItemRepo) MarkRead(ctx context.Context, channelID int64, entries []string, owner string) (int, error) {
	return repo.setReadState(ctx, channelID, entries, owner, true)
}

func (repo *ItemRepo) MarkUnread(ctx context.Context, channelID int64, entries []string, owner string) (int, error) {
	return repo.setReadState(ctx, channelID, entries, owner, false)
}

func (repo *ItemRepo) setReadState(ctx context.Context, channelID int64, entries []string, owner string, read bool) (int, error) {
	matchAll := false
	for _, e := range entries {
		if e == lastReadEntrySentinel {
			matchAll = true
			break
		}
	}

	var query string
	var args []any
	if matchAll {
		if read {
			query = `UPDATE items SET read_by = array_append(read_by, $1)
WHERE channel_id = $2 AND NOT ($1 = ANY(read_by))`
		} else {
			query = `UPDATE items SET read_by = array_remove(read_by, $1)
WHERE channel_id = $2`
		}
		args = []any{owner, channelID}
	} else {
		ids := make([]string, 0, len(entries))
		urls := make([]string, 0, len(entries))
		uids := make([]string, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e)
			urls = append(urls, e)
			uids = append(uids, e)
		}
		if read {
			query = `UPDATE items SET read_by = array_append(read_by, $1)
WHERE channel_id = $2 AND NOT ($1 = ANY(read_by))
  AND (id::text = ANY($3) OR url = ANY($3) OR uid = ANY($3))`
		} else {
			query = `UPDATE items SET read_by = array_remove(read_by, $1)
WHERE channel_id = $2
  AND (id::text = ANY($3) OR url = ANY($3) OR uid = ANY($3))`
		}
		args = []any{owner, channelID, pq.Array(entries)}
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("setReadState: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// RemoveEntries hard-deletes items matched by internal id, uid, or url from
// channelID, grounded on setReadState's id/uid/url entry-matching clause.
func (repo *ItemRepo) RemoveEntries(ctx context.Context, channelID int64, entries []string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM items WHERE channel_id = $1 AND (id::text = ANY($2) OR url = ANY($2) OR uid = ANY($2))`,
		channelID, pq.Array(entries))
	if err != nil {
		return 0, fmt.Errorf("removeEntries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Cleanup enforces spec.md §4.3's retention state machine for one (channel,
// owner) pair: keep the newest maxFullRead read items intact; strip older
// feed-sourced ones; hard-delete older push-only ones. Never touches unread
// items.
func (repo *ItemRepo) Cleanup(ctx context.Context, channelID int64, owner string, maxFullRead int) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Cleanup: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const strip = `
UPDATE items SET
    stripped = TRUE, name = '', summary = '', content = '{}', author = '{}',
    category = '{}', photo = '{}', video = '{}', audio = '{}'
WHERE id IN (
    SELECT id FROM items
    WHERE channel_id = $1 AND $2 = ANY(read_by) AND feed_id IS NOT NULL AND NOT stripped
    ORDER BY published DESC
    OFFSET $3
)`
	if _, err := tx.ExecContext(ctx, strip, channelID, owner, maxFullRead); err != nil {
		return fmt.Errorf("Cleanup: strip: %w", err)
	}

	const del = `
DELETE FROM items
WHERE id IN (
    SELECT id FROM items
    WHERE channel_id = $1 AND $2 = ANY(read_by) AND feed_id IS NULL
    ORDER BY published DESC
    OFFSET $3
)`
	if _, err := tx.ExecContext(ctx, del, channelID, owner, maxFullRead); err != nil {
		return fmt.Errorf("Cleanup: delete: %w", err)
	}

	return tx.Commit()
}

func (repo *ItemRepo) CleanupAll(ctx context.Context, maxFullRead int) error {
	const query = `SELECT DISTINCT channel_id, unnest(read_by) AS owner FROM items`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("CleanupAll: %w", err)
	}
	type pair struct {
		channelID int64
		owner     string
	}
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.channelID, &p.owner); err != nil {
			_ = rows.Close()
			return fmt.Errorf("CleanupAll: scan: %w", err)
		}
		pairs = append(pairs, p)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("CleanupAll: rows: %w", err)
	}

	for _, p := range pairs {
		if err := repo.Cleanup(ctx, p.channelID, p.owner, maxFullRead); err != nil {
			return err
		}
	}
	return nil
}

func (repo *ItemRepo) UnreadCount(ctx context.Context, channelID int64, owner string, retentionDays int) (int64, error) {
	const query = `
SELECT COUNT(*) FROM items
WHERE channel_id = $1
  AND NOT stripped
  AND NOT ($2 = ANY(read_by))
  AND published >= $3`
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	var count int64
	err := repo.db.QueryRowContext(ctx, query, channelID, owner, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("UnreadCount: %w", err)
	}
	return count, nil
}

func (repo *ItemRepo) DeleteByAuthorURL(ctx context.Context, owner, authorURL string) (int64, error) {
	// entity.Author has no json struct tags, so it marshals with Go's
	// exported field names (author->>'URL'), not lowercase JSON
	// convention.
	const query = `
DELETE FROM items
WHERE author->>'URL' = $1
  AND channel_id IN (SELECT id FROM channels WHERE owner = $2)`
	res, err := repo.db.ExecContext(ctx, query, authorURL, owner)
	if err != nil {
		return 0, fmt.Errorf("DeleteByAuthorURL: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (repo *ItemRepo) DeleteByChannel(ctx context.Context, channelID int64) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM items WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("DeleteByChannel: %w", err)
	}
	return nil
}

func (repo *ItemRepo) DeleteByFeed(ctx context.Context, feedID int64) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM items WHERE feed_id = $1`, feedID)
	if err != nil {
		return fmt.Errorf("DeleteByFeed: %w", err)
	}
	return nil
}

func (repo *ItemRepo) UpsertNotification(ctx context.Context, channelID int64, item *entity.Item, sourceURL, targetURL string) error {
	contentJSON, err := json.Marshal(item.Content)
	if err != nil {
		return fmt.Errorf("UpsertNotification: marshal content: %w", err)
	}
	authorJSON, err := json.Marshal(item.Author)
	if err != nil {
		return fmt.Errorf("UpsertNotification: marshal author: %w", err)
	}

	const query = `
INSERT INTO items
	(channel_id, feed_id, uid, url, type, name, summary, content, published,
	 updated, author, like_of, repost_of, bookmark_of, in_reply_to, src_url,
	 read_by, stripped, created_at)
VALUES ($1, NULL, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, '{}', FALSE, $16)
ON CONFLICT (channel_id, uid) DO UPDATE SET
	name = EXCLUDED.name, summary = EXCLUDED.summary, content = EXCLUDED.content,
	updated = EXCLUDED.updated, author = EXCLUDED.author`

	_, err = repo.db.ExecContext(ctx, query,
		channelID, item.UID, item.URL, item.Type, item.Name, item.Summary,
		contentJSON, item.Published, item.Updated, authorJSON,
		pq.Array(item.LikeOf), pq.Array(item.RepostOf), pq.Array(item.BookmarkOf),
		pq.Array(item.InReplyTo), sourceURL, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("UpsertNotification: %w", err)
	}
	return nil
}

func (repo *ItemRepo) DeleteNotification(ctx context.Context, channelID int64, sourceURL, targetURL string) error {
	const query = `DELETE FROM items WHERE channel_id = $1 AND src_url = $2 AND url = $3`
	_, err := repo.db.ExecContext(ctx, query, channelID, sourceURL, targetURL)
	if err != nil {
		return fmt.Errorf("DeleteNotification: %w", err)
	}
	return nil
}
