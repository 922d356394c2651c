// internal/common/database/migrations.go
// Idempotent schema bootstrap, executed once at startup

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE,
		username VARCHAR(100) UNIQUE NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS profiles (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		display_name VARCHAR(120) NOT NULL DEFAULT '',
		gender VARCHAR(20) NOT NULL DEFAULT '',
		looking_for VARCHAR(20) NOT NULL DEFAULT '',
		questionnaire_me JSONB NOT NULL DEFAULT '{}'::jsonb,
		questionnaire_ideal JSONB NOT NULL DEFAULT '{}'::jsonb,
		notify_email_matches BOOLEAN NOT NULL DEFAULT TRUE,
		notify_email_messages BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS questionnaire_sections (
		id BIGSERIAL PRIMARY KEY,
		code VARCHAR(64) UNIQUE NOT NULL,
		title VARCHAR(200) NOT NULL,
		hint TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		gender VARCHAR(10) NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS questionnaire_questions (
		id BIGSERIAL PRIMARY KEY,
		section_id BIGINT NOT NULL REFERENCES questionnaire_sections(id) ON DELETE CASCADE,
		code VARCHAR(64) UNIQUE NOT NULL,
		text TEXT NOT NULL,
		input_type VARCHAR(20) NOT NULL,
		is_multiple BOOLEAN NOT NULL DEFAULT FALSE,
		gender VARCHAR(10) NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS questionnaire_choices (
		id BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES questionnaire_questions(id) ON DELETE CASCADE,
		value VARCHAR(100) NOT NULL,
		label VARCHAR(200) NOT NULL,
		position INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS swipes (
		id BIGSERIAL PRIMARY KEY,
		from_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		to_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		value VARCHAR(10) NOT NULL CHECK (value IN ('like', 'pass')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT swipes_unique_pair UNIQUE (from_user_id, to_user_id),
		CONSTRAINT swipes_no_self CHECK (from_user_id <> to_user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS matches (
		id BIGSERIAL PRIMARY KEY,
		user1_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user2_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_system_channel BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT matches_unique_pair UNIQUE (user1_id, user2_id),
		CONSTRAINT matches_ordered_pair CHECK (user1_id < user2_id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_blocks (
		id BIGSERIAL PRIMARY KEY,
		blocker_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		blocked_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT user_blocks_unique_pair UNIQUE (blocker_id, blocked_id),
		CONSTRAINT user_blocks_no_self CHECK (blocker_id <> blocked_id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_reports (
		id BIGSERIAL PRIMARY KEY,
		reporter_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		reported_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		reason VARCHAR(20) NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT user_reports_no_self CHECK (reporter_id <> reported_id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_bans (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		reason TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ,
		revoked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_recommendations (
		id BIGSERIAL PRIMARY KEY,
		to_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		candidate_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		score INTEGER,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		seen_at TIMESTAMPTZ,
		consumed_at TIMESTAMPTZ,
		CONSTRAINT user_recommendations_no_self CHECK (to_user_id <> candidate_id)
	)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		match_id BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		text VARCHAR(2000) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_notifications (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		kind VARCHAR(32) NOT NULL,
		title VARCHAR(140) NOT NULL,
		body VARCHAR(300) NOT NULL DEFAULT '',
		url VARCHAR(300) NOT NULL DEFAULT '',
		data JSONB NOT NULL DEFAULT '{}'::jsonb,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS push_tokens (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		platform VARCHAR(20) NOT NULL DEFAULT 'android',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recommendations_pending
		ON user_recommendations (to_user_id, created_at DESC, id DESC)
		WHERE consumed_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_pair ON user_recommendations (to_user_id, candidate_id)`,
	`CREATE INDEX IF NOT EXISTS idx_swipes_from_created ON swipes (from_user_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches (user2_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_match_created ON messages (match_id, created_at, id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_bans_user ON user_bans (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_blocks_blocked ON user_blocks (blocked_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_notifications_user ON user_notifications (user_id, created_at DESC)`,
}

// RunMigrations executes every statement in order inside one transaction
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return tx.Commit()
}
