package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	avatar TEXT NOT NULL DEFAULT '',
	role VARCHAR(20) NOT NULL DEFAULT 'user'
);

CREATE TABLE IF NOT EXISTS posts (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	title VARCHAR(255) NOT NULL,
	slug VARCHAR(255) UNIQUE NOT NULL,
	excerpt TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	search_text TEXT NOT NULL DEFAULT '',
	category VARCHAR(100) NOT NULL DEFAULT '',
	tags TEXT[] NOT NULL DEFAULT '{}',
	featured_image TEXT NOT NULL DEFAULT '',
	author_id UUID NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'draft',
	views BIGINT NOT NULL DEFAULT 0,
	read_time INT NOT NULL DEFAULT 1,
	published_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS posts_visible_idx ON posts (status, published_at DESC);
CREATE INDEX IF NOT EXISTS posts_category_idx ON posts (category);
CREATE INDEX IF NOT EXISTS posts_tags_idx ON posts USING GIN (tags);
CREATE INDEX IF NOT EXISTS posts_search_idx ON posts USING GIN (to_tsvector('simple', search_text));

CREATE TABLE IF NOT EXISTS post_likes (
	post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	author_id UUID NOT NULL,
	parent_id UUID REFERENCES comments(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS comments_post_idx ON comments (post_id);

CREATE TABLE IF NOT EXISTS comment_likes (
	comment_id UUID NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
	user_id UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (comment_id, user_id)
);
`

func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	const op = "storage.postgresql.New"

	db, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return db, nil
}

// Migrate creates the tables and indexes if they are missing.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	const op = "storage.postgresql.Migrate"

	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsForeignKeyViolation reports whether err is a postgres foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
