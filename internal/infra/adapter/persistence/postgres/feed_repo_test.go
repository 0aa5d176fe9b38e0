package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microsubd/internal/domain/entity"
	pg "microsubd/internal/infra/adapter/persistence/postgres"
)

var feedCols = []string{
	"id", "channel_id", "url", "title", "photo", "tier", "unmodified", "next_fetch_at",
	"last_fetched_at", "etag", "last_modified", "status", "last_error", "last_error_at",
	"consecutive_errors", "item_count", "websub_hub", "websub_topic", "websub_secret",
	"websub_lease_seconds", "websub_expires_at", "websub_pending", "created_at",
}

func feedRow(f *entity.Feed) *sqlmock.Rows {
	return sqlmock.NewRows(feedCols).AddRow(
		f.ID, f.ChannelID, f.URL, f.Title, f.Photo, f.Tier, f.Unmodified, f.NextFetchAt,
		nil, f.ETag, f.LastModified, f.Status, f.LastError, nil,
		f.ConsecutiveErrors, f.ItemCount, nil, nil, nil,
		nil, nil, nil, f.CreatedAt,
	)
}

func TestFeedRepo_GetFeedsToFetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &entity.Feed{ID: 1, ChannelID: 2, URL: "https://feed.example/rss", Status: entity.FeedStatusActive, CreatedAt: now}

	mock.ExpectQuery(regexp.QuoteMeta("FROM feeds")).
		WithArgs(now, 10).
		WillReturnRows(feedRow(f))

	repo := pg.NewFeedRepo(db)
	got, err := repo.GetFeedsToFetch(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://feed.example/rss", got[0].URL)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedRepo_GetByChannelAndURL_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM feeds").
		WithArgs(int64(2), "https://missing.example/rss").
		WillReturnRows(sqlmock.NewRows(feedCols))

	repo := pg.NewFeedRepo(db)
	got, err := repo.GetByChannelAndURL(context.Background(), 2, "https://missing.example/rss")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedRepo_Create_DefaultsStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO feeds")).
		WithArgs(int64(2), "https://feed.example/rss", "", "", 1, false, now, entity.FeedStatusActive, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	repo := pg.NewFeedRepo(db)
	f := &entity.Feed{ChannelID: 2, URL: "https://feed.example/rss", Tier: 1, NextFetchAt: now, CreatedAt: now}
	err = repo.Create(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(9), f.ID)
	assert.Equal(t, entity.FeedStatusActive, f.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedRepo_Update_NoRowsAffectedErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE feeds SET title")).
		WithArgs("New Title", "", 1, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := pg.NewFeedRepo(db)
	err = repo.Update(context.Background(), &entity.Feed{ID: 1, Title: "New Title", Tier: 1})
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedRepo_UpdateWebSub_ClearsOnNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("websub_hub = NULL")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewFeedRepo(db)
	err = repo.UpdateWebSub(context.Background(), 1, nil)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
