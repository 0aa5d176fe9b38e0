package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
)

// MuteBlockRepo is the Postgres implementation of repository.MuteBlockRepository.
type MuteBlockRepo struct{ db *sql.DB }

func NewMuteBlockRepo(db *sql.DB) repository.MuteBlockRepository {
	return &MuteBlockRepo{db: db}
}

func (repo *MuteBlockRepo) CreateMute(ctx context.Context, m *entity.Mute) error {
	const query = `
INSERT INTO mutes (owner, channel_uid, url, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner, channel_uid, url) DO NOTHING
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query, m.Owner, m.ChannelUID, m.URL, m.CreatedAt).Scan(&m.ID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("CreateMute: %w", err)
	}
	return nil
}

func (repo *MuteBlockRepo) DeleteMute(ctx context.Context, owner, channelUID, url string) error {
	const query = `DELETE FROM mutes WHERE owner = $1 AND channel_uid = $2 AND url = $3`
	_, err := repo.db.ExecContext(ctx, query, owner, channelUID, url)
	if err != nil {
		return fmt.Errorf("DeleteMute: %w", err)
	}
	return nil
}

func (repo *MuteBlockRepo) ListMutes(ctx context.Context, owner string) ([]*entity.Mute, error) {
	const query = `
SELECT id, owner, channel_uid, url, created_at FROM mutes
WHERE owner = $1 ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("ListMutes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	mutes := make([]*entity.Mute, 0, 10)
	for rows.Next() {
		var m entity.Mute
		if err := rows.Scan(&m.ID, &m.Owner, &m.ChannelUID, &m.URL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListMutes: scan: %w", err)
		}
		mutes = append(mutes, &m)
	}
	return mutes, rows.Err()
}

func (repo *MuteBlockRepo) IsMuted(ctx context.Context, owner, channelUID, url string) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1 FROM mutes
  WHERE owner = $1 AND url = $2 AND (channel_uid = '' OR channel_uid = $3)
)`
	var exists bool
	err := repo.db.QueryRowContext(ctx, query, owner, url, channelUID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("IsMuted: %w", err)
	}
	return exists, nil
}

func (repo *MuteBlockRepo) CreateBlock(ctx context.Context, b *entity.Block) error {
	const query = `
INSERT INTO blocks (owner, author_url, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (owner, author_url) DO NOTHING
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query, b.Owner, b.AuthorURL, b.CreatedAt).Scan(&b.ID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("CreateBlock: %w", err)
	}
	return nil
}

func (repo *MuteBlockRepo) DeleteBlock(ctx context.Context, owner, authorURL string) error {
	const query = `DELETE FROM blocks WHERE owner = $1 AND author_url = $2`
	_, err := repo.db.ExecContext(ctx, query, owner, authorURL)
	if err != nil {
		return fmt.Errorf("DeleteBlock: %w", err)
	}
	return nil
}

func (repo *MuteBlockRepo) ListBlocks(ctx context.Context, owner string) ([]*entity.Block, error) {
	const query = `SELECT id, owner, author_url, created_at FROM blocks WHERE owner = $1 ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("ListBlocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	blocks := make([]*entity.Block, 0, 10)
	for rows.Next() {
		var b entity.Block
		if err := rows.Scan(&b.ID, &b.Owner, &b.AuthorURL, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListBlocks: scan: %w", err)
		}
		blocks = append(blocks, &b)
	}
	return blocks, rows.Err()
}

func (repo *MuteBlockRepo) IsBlocked(ctx context.Context, owner, authorURL string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM blocks WHERE owner = $1 AND author_url = $2)`
	var exists bool
	err := repo.db.QueryRowContext(ctx, query, owner, authorURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("IsBlocked: %w", err)
	}
	return exists, nil
}
