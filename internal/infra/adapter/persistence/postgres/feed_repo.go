package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
)

// FeedRepo is the Postgres implementation of repository.FeedRepository,
// grounded on the teacher's SourceRepo (id-ordered listing, default-then-
// validate Create/Update) generalized to the Feed entity's tier-scheduler and
// WebSub bookkeeping.
type FeedRepo struct{ db *sql.DB }

func NewFeedRepo(db *sql.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

const feedColumns = `
id, channel_id, url, title, photo, tier, unmodified, next_fetch_at,
last_fetched_at, etag, last_modified, status, last_error, last_error_at,
consecutive_errors, item_count, websub_hub, websub_topic, websub_secret,
websub_lease_seconds, websub_expires_at, websub_pending, created_at`

func scanFeed(scanner interface{ Scan(dest ...any) error }) (*entity.Feed, error) {
	var f entity.Feed
	var lastFetchedAt, lastErrorAt, websubExpiresAt sql.NullTime
	var websubHub, websubTopic, websubSecret sql.NullString
	var websubLeaseSeconds sql.NullInt64
	var websubPending sql.NullBool

	if err := scanner.Scan(
		&f.ID, &f.ChannelID, &f.URL, &f.Title, &f.Photo, &f.Tier, &f.Unmodified,
		&f.NextFetchAt, &lastFetchedAt, &f.ETag, &f.LastModified, &f.Status,
		&f.LastError, &lastErrorAt, &f.ConsecutiveErrors, &f.ItemCount,
		&websubHub, &websubTopic, &websubSecret, &websubLeaseSeconds,
		&websubExpiresAt, &websubPending, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lastFetchedAt.Valid {
		f.LastFetchedAt = &lastFetchedAt.Time
	}
	if lastErrorAt.Valid {
		f.LastErrorAt = &lastErrorAt.Time
	}
	if websubHub.Valid {
		f.WebSub = &entity.WebSub{
			Hub:          websubHub.String,
			Topic:        websubTopic.String,
			Secret:       websubSecret.String,
			LeaseSeconds: int(websubLeaseSeconds.Int64),
			Pending:      websubPending.Bool,
		}
		if websubExpiresAt.Valid {
			f.WebSub.ExpiresAt = &websubExpiresAt.Time
		}
	}
	return &f, nil
}

func (repo *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds WHERE id = $1 LIMIT 1`, feedColumns)
	f, err := scanFeed(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return f, nil
}

func (repo *FeedRepo) GetByChannelAndURL(ctx context.Context, channelID int64, url string) (*entity.Feed, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds WHERE channel_id = $1 AND url = $2 LIMIT 1`, feedColumns)
	f, err := scanFeed(repo.db.QueryRowContext(ctx, query, channelID, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByChannelAndURL: %w", err)
	}
	return f, nil
}

func (repo *FeedRepo) ListByChannel(ctx context.Context, channelID int64) ([]*entity.Feed, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds WHERE channel_id = $1 ORDER BY id ASC`, feedColumns)
	rows, err := repo.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("ListByChannel: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 20)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByChannel: scan: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (repo *FeedRepo) GetFeedsToFetch(ctx context.Context, now time.Time, limit int) ([]*entity.Feed, error) {
	query := fmt.Sprintf(`
SELECT %s FROM feeds
WHERE next_fetch_at <= $1 AND (websub_hub IS NULL OR NOT websub_pending)
ORDER BY next_fetch_at ASC
LIMIT $2`, feedColumns)
	rows, err := repo.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("GetFeedsToFetch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, limit)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("GetFeedsToFetch: scan: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (repo *FeedRepo) GetFeedsWithExpiringLease(ctx context.Context, now time.Time, horizon time.Duration) ([]*entity.Feed, error) {
	query := fmt.Sprintf(`
SELECT %s FROM feeds
WHERE websub_hub IS NOT NULL AND websub_expires_at IS NOT NULL
  AND websub_expires_at <= $1`, feedColumns)
	rows, err := repo.db.QueryContext(ctx, query, now.Add(horizon))
	if err != nil {
		return nil, fmt.Errorf("GetFeedsWithExpiringLease: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 10)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("GetFeedsWithExpiringLease: scan: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (repo *FeedRepo) Create(ctx context.Context, f *entity.Feed) error {
	if f.Status == "" {
		f.Status = entity.FeedStatusActive
	}
	const query = `
INSERT INTO feeds (channel_id, url, title, photo, tier, unmodified,
	next_fetch_at, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	return repo.db.QueryRowContext(ctx, query,
		f.ChannelID, f.URL, f.Title, f.Photo, f.Tier, f.Unmodified,
		f.NextFetchAt, f.Status, f.CreatedAt,
	).Scan(&f.ID)
}

func (repo *FeedRepo) Update(ctx context.Context, f *entity.Feed) error {
	const query = `
UPDATE feeds SET title = $1, photo = $2, tier = $3
WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, query, f.Title, f.Photo, f.Tier, f.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *FeedRepo) Delete(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *FeedRepo) UpdateAfterFetch(ctx context.Context, f *entity.Feed) error {
	const query = `
UPDATE feeds SET
	tier = $1, unmodified = $2, next_fetch_at = $3, last_fetched_at = $4,
	etag = $5, last_modified = $6, status = $7, last_error = $8,
	last_error_at = $9, consecutive_errors = $10, item_count = $11,
	title = $12, photo = $13
WHERE id = $14`
	_, err := repo.db.ExecContext(ctx, query,
		f.Tier, f.Unmodified, f.NextFetchAt, f.LastFetchedAt, f.ETag,
		f.LastModified, f.Status, f.LastError, f.LastErrorAt,
		f.ConsecutiveErrors, f.ItemCount, f.Title, f.Photo, f.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateAfterFetch: %w", err)
	}
	return nil
}

func (repo *FeedRepo) UpdateWebSub(ctx context.Context, feedID int64, ws *entity.WebSub) error {
	if ws == nil {
		const query = `
UPDATE feeds SET websub_hub = NULL, websub_topic = NULL, websub_secret = NULL,
	websub_lease_seconds = NULL, websub_expires_at = NULL, websub_pending = FALSE
WHERE id = $1`
		_, err := repo.db.ExecContext(ctx, query, feedID)
		if err != nil {
			return fmt.Errorf("UpdateWebSub: clear: %w", err)
		}
		return nil
	}
	const query = `
UPDATE feeds SET websub_hub = $1, websub_topic = $2, websub_secret = $3,
	websub_lease_seconds = $4, websub_expires_at = $5, websub_pending = $6
WHERE id = $7`
	_, err := repo.db.ExecContext(ctx, query,
		ws.Hub, ws.Topic, ws.Secret, ws.LeaseSeconds, ws.ExpiresAt, ws.Pending, feedID,
	)
	if err != nil {
		return fmt.Errorf("UpdateWebSub: %w", err)
	}
	return nil
}

func (repo *FeedRepo) GetByWebSubTopic(ctx context.Context, topic string) (*entity.Feed, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds WHERE websub_topic = $1 LIMIT 1`, feedColumns)
	f, err := scanFeed(repo.db.QueryRowContext(ctx, query, topic))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByWebSubTopic: %w", err)
	}
	return f, nil
}
