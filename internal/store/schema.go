package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                TEXT PRIMARY KEY,
	username          TEXT NOT NULL UNIQUE,
	display_name      TEXT NOT NULL,
	bio               TEXT NOT NULL DEFAULT '',
	avatar_url        TEXT NOT NULL DEFAULT '',
	philosophy_level  INTEGER NOT NULL DEFAULT 1,
	conviction_points INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS posts (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	content          TEXT NOT NULL,
	category         TEXT NOT NULL,
	author_id        TEXT NOT NULL REFERENCES users(id),
	likes_count      INTEGER NOT NULL DEFAULT 0,
	comments_count   INTEGER NOT NULL DEFAULT 0,
	conviction_meter INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC);

CREATE TABLE IF NOT EXISTS likes (
	post_id    TEXT NOT NULL REFERENCES posts(id),
	user_id    TEXT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL REFERENCES posts(id),
	author_id  TEXT NOT NULL REFERENCES users(id),
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments (post_id, created_at);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	title      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	type       TEXT NOT NULL,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id, created_at DESC);
`

// Migrate applies the embedded schema. Statements are idempotent so the
// command is safe to re-run.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
