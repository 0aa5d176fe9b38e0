package db

import "database/sql"

// MigrateUp creates the six logical collections spec.md §6 names: channels,
// feeds, items (notifications included, scoped by channel), mutes, blocks.
// Statements are IF NOT EXISTS so repeated runs are safe.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS channels (
    id         BIGSERIAL PRIMARY KEY,
    uid        VARCHAR(24) NOT NULL,
    owner      TEXT NOT NULL,
    name       VARCHAR(100) NOT NULL,
    "order"    INTEGER NOT NULL DEFAULT 0,
    filter     JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (owner, uid)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feeds (
    id                   BIGSERIAL PRIMARY KEY,
    channel_id           BIGINT NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
    url                  TEXT NOT NULL,
    title                TEXT NOT NULL DEFAULT '',
    photo                TEXT NOT NULL DEFAULT '',
    tier                 INTEGER NOT NULL DEFAULT 0,
    unmodified           INTEGER NOT NULL DEFAULT 0,
    next_fetch_at        TIMESTAMPTZ NOT NULL,
    last_fetched_at      TIMESTAMPTZ,
    etag                 TEXT NOT NULL DEFAULT '',
    last_modified        TEXT NOT NULL DEFAULT '',
    status               VARCHAR(20) NOT NULL DEFAULT 'active',
    last_error           TEXT NOT NULL DEFAULT '',
    last_error_at        TIMESTAMPTZ,
    consecutive_errors   INTEGER NOT NULL DEFAULT 0,
    item_count           INTEGER NOT NULL DEFAULT 0,
    websub_hub           TEXT,
    websub_topic         TEXT,
    websub_secret        TEXT,
    websub_lease_seconds INTEGER,
    websub_expires_at    TIMESTAMPTZ,
    websub_pending       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (channel_id, url)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS items (
    id           BIGSERIAL PRIMARY KEY,
    channel_id   BIGINT NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
    feed_id      BIGINT REFERENCES feeds(id) ON DELETE CASCADE,
    uid          VARCHAR(24) NOT NULL,
    url          TEXT NOT NULL DEFAULT '',
    type         VARCHAR(20) NOT NULL DEFAULT 'entry',
    name         TEXT NOT NULL DEFAULT '',
    summary      TEXT NOT NULL DEFAULT '',
    content      JSONB NOT NULL DEFAULT '{}',
    published    TIMESTAMPTZ NOT NULL,
    updated      TIMESTAMPTZ,
    author       JSONB NOT NULL DEFAULT '{}',
    category     TEXT[] NOT NULL DEFAULT '{}',
    photo        TEXT[] NOT NULL DEFAULT '{}',
    video        TEXT[] NOT NULL DEFAULT '{}',
    audio        TEXT[] NOT NULL DEFAULT '{}',
    like_of      TEXT[] NOT NULL DEFAULT '{}',
    repost_of    TEXT[] NOT NULL DEFAULT '{}',
    bookmark_of  TEXT[] NOT NULL DEFAULT '{}',
    in_reply_to  TEXT[] NOT NULL DEFAULT '{}',
    src_url      TEXT NOT NULL DEFAULT '',
    src_feed_url TEXT NOT NULL DEFAULT '',
    read_by      TEXT[] NOT NULL DEFAULT '{}',
    stripped     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (channel_id, uid)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS mutes (
    id          BIGSERIAL PRIMARY KEY,
    owner       TEXT NOT NULL,
    channel_uid VARCHAR(24) NOT NULL DEFAULT '',
    url         TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (owner, channel_uid, url)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS blocks (
    id         BIGSERIAL PRIMARY KEY,
    owner      TEXT NOT NULL,
    author_url TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (owner, author_url)
)`); err != nil {
		return err
	}

	// Timeline pagination orders by (published, id); read-state cleanup and
	// markRead/markUnread scan by (channel, owner); GetFeedsToFetch scans by
	// next_fetch_at; GetFeedsWithExpiringLease by websub_expires_at.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_items_channel_published ON items(channel_id, published DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_items_read_by ON items USING gin(read_by)`,
		`CREATE INDEX IF NOT EXISTS idx_items_src_url ON items(channel_id, src_url)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_next_fetch_at ON feeds(next_fetch_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_websub_expires_at ON feeds(websub_expires_at) WHERE websub_expires_at IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_channels_owner_order ON channels(owner, "order")`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops every table MigrateUp creates, in dependency order.
// Use with caution: this deletes all data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS blocks CASCADE`,
		`DROP TABLE IF EXISTS mutes CASCADE`,
		`DROP TABLE IF EXISTS items CASCADE`,
		`DROP TABLE IF EXISTS feeds CASCADE`,
		`DROP TABLE IF EXISTS channels CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
