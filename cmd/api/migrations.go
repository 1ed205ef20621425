// cmd/api/migrations.go
// Schema migrations, applied in order at startup.

package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var migrations = []string{
	// Users carry their sport profile and both sides of the follow
	// graph. The arrays are mutated only through conditional single-row
	// updates.
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(30) UNIQUE NOT NULL,
		display_name VARCHAR(100) NOT NULL DEFAULT '',
		location VARCHAR(255),
		bio TEXT,
		sports JSONB NOT NULL DEFAULT '[]',
		following BIGINT[] NOT NULL DEFAULT '{}',
		followers BIGINT[] NOT NULL DEFAULT '{}',
		deactivated_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Session id is the canonical pair key; last_updated doubles as the
	// per-session timestamp allocator.
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id VARCHAR(50) PRIMARY KEY,
		participant_a BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		participant_b BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS chat_messages (
		id BIGSERIAL PRIMARY KEY,
		session_id VARCHAR(50) NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		author_username VARCHAR(30) NOT NULL,
		content TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		recipient_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		actor_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		actor_username VARCHAR(30) NOT NULL,
		type VARCHAR(20) NOT NULL,
		post_id BIGINT,
		session_id VARCHAR(50),
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Posts store no like counter; it is derived from post_likes.
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		author_username VARCHAR(30) NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS post_likes (
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (post_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS post_replies (
		id BIGSERIAL PRIMARY KEY,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		author_username VARCHAR(30) NOT NULL,
		parent_id BIGINT REFERENCES post_replies(id) ON DELETE SET NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_sessions_participant_a ON chat_sessions(participant_a)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_sessions_participant_b ON chat_sessions(participant_b)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, sent_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(recipient_id) WHERE read = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_post_replies_post ON post_replies(post_id, created_at)`,
}

func runMigrations(db *sqlx.DB) error {
	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d/%d failed: %w", i+1, len(migrations), err)
		}
	}
	return nil
}
