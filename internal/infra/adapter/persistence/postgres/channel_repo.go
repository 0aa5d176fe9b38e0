package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
)

// ChannelRepo is the Postgres implementation of repository.ChannelRepository.
type ChannelRepo struct{ db *sql.DB }

func NewChannelRepo(db *sql.DB) repository.ChannelRepository {
	return &ChannelRepo{db: db}
}

func scanChannel(scanner interface{ Scan(dest ...any) error }) (*entity.Channel, error) {
	var c entity.Channel
	var filterJSON []byte
	if err := scanner.Scan(&c.ID, &c.UID, &c.Owner, &c.Name, &c.Order, &filterJSON, &c.CreatedAt); err != nil {
		return nil, err
	}
	if len(filterJSON) > 0 {
		if err := json.Unmarshal(filterJSON, &c.Filter); err != nil {
			return nil, fmt.Errorf("unmarshal filter: %w", err)
		}
	}
	return &c, nil
}

const channelColumns = `id, uid, owner, name, "order", filter, created_at`

func (repo *ChannelRepo) Get(ctx context.Context, id int64) (*entity.Channel, error) {
	query := fmt.Sprintf(`SELECT %s FROM channels WHERE id = $1 LIMIT 1`, channelColumns)
	c, err := scanChannel(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return c, nil
}

func (repo *ChannelRepo) GetByUID(ctx context.Context, owner, uid string) (*entity.Channel, error) {
	query := fmt.Sprintf(`SELECT %s FROM channels WHERE owner = $1 AND uid = $2 LIMIT 1`, channelColumns)
	c, err := scanChannel(repo.db.QueryRowContext(ctx, query, owner, uid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByUID: %w", err)
	}
	return c, nil
}

func (repo *ChannelRepo) ListByOwner(ctx context.Context, owner string) ([]*entity.Channel, error) {
	query := fmt.Sprintf(`SELECT %s FROM channels WHERE owner = $1 ORDER BY "order" ASC, id ASC`, channelColumns)
	rows, err := repo.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	defer func() { _ = rows.Close() }()

	channels := make([]*entity.Channel, 0, 10)
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByOwner: scan: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func (repo *ChannelRepo) Create(ctx context.Context, c *entity.Channel) error {
	filterJSON, err := json.Marshal(c.Filter)
	if err != nil {
		return fmt.Errorf("Create: marshal filter: %w", err)
	}
	const query = `
INSERT INTO channels (uid, owner, name, "order", filter, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	return repo.db.QueryRowContext(ctx, query, c.UID, c.Owner, c.Name, c.Order, filterJSON, c.CreatedAt).Scan(&c.ID)
}

func (repo *ChannelRepo) Update(ctx context.Context, c *entity.Channel) error {
	filterJSON, err := json.Marshal(c.Filter)
	if err != nil {
		return fmt.Errorf("Update: marshal filter: %w", err)
	}
	const query = `UPDATE channels SET name = $1, filter = $2 WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, c.Name, filterJSON, c.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *ChannelRepo) Delete(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *ChannelRepo) Reorder(ctx context.Context, owner string, order map[string]int) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Reorder: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `UPDATE channels SET "order" = $1 WHERE owner = $2 AND uid = $3`
	for uid, pos := range order {
		if _, err := tx.ExecContext(ctx, query, pos, owner, uid); err != nil {
			return fmt.Errorf("Reorder: %w", err)
		}
	}
	return tx.Commit()
}
