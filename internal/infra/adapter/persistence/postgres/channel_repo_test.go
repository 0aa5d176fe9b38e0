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

var channelCols = []string{"id", "uid", "owner", "name", "order", "filter", "created_at"}

func channelRow(c *entity.Channel) *sqlmock.Rows {
	return sqlmock.NewRows(channelCols).AddRow(c.ID, c.UID, c.Owner, c.Name, c.Order, []byte(`{}`), c.CreatedAt)
}

func TestChannelRepo_Get_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	want := &entity.Channel{ID: 1, UID: "abc12345", Owner: "owner1", Name: "Home", CreatedAt: now}

	mock.ExpectQuery(regexp.QuoteMeta("FROM channels WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(channelRow(want))

	repo := pg.NewChannelRepo(db)
	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, want.UID, got.UID)
	assert.Equal(t, want.Name, got.Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelRepo_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM channels").WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows(channelCols))

	repo := pg.NewChannelRepo(db)
	got, err := repo.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO channels")).
		WithArgs("abc12345", "owner1", "Home", 0, []byte(`{}`), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	repo := pg.NewChannelRepo(db)
	c := &entity.Channel{UID: "abc12345", Owner: "owner1", Name: "Home", CreatedAt: now}
	err = repo.Create(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelRepo_Delete_NoRowsAffectedErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM channels")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := pg.NewChannelRepo(db)
	err = repo.Delete(context.Background(), 1)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelRepo_Reorder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE channels SET "order" = $1 WHERE owner = $2 AND uid = $3`)).
		WithArgs(0, "owner1", "abc12345").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := pg.NewChannelRepo(db)
	err = repo.Reorder(context.Background(), "owner1", map[string]int{"abc12345": 0})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
