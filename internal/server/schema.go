package server

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements, applied in order on startup. Everything is
// idempotent so redeploys are safe against a live database.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          BIGSERIAL PRIMARY KEY,
		friend_code TEXT UNIQUE NOT NULL,
		nickname    TEXT,
		share_mode  TEXT NOT NULL DEFAULT 'PRIVATE',
		backup_salt BYTEA,
		backup_hash BYTEA,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS friend_requests (
		id           BIGSERIAL PRIMARY KEY,
		from_user_id BIGINT NOT NULL REFERENCES users(id),
		to_user_id   BIGINT NOT NULL REFERENCES users(id),
		status       TEXT NOT NULL DEFAULT 'PENDING',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		responded_at TIMESTAMPTZ
	)`,

	// At most one live request per direction; answered requests do not
	// block a new one.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_friend_request_pending
		ON friend_requests(from_user_id, to_user_id)
		WHERE status = 'PENDING'`,

	// user_a < user_b always, so one row covers both directions.
	`CREATE TABLE IF NOT EXISTS friendships (
		id         BIGSERIAL PRIMARY KEY,
		user_a     BIGINT NOT NULL REFERENCES users(id),
		user_b     BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE(user_a, user_b)
	)`,

	`CREATE TABLE IF NOT EXISTS state_backups (
		user_id    BIGINT PRIMARY KEY REFERENCES users(id),
		state_json TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS raid_left_snapshots (
		user_id       BIGINT PRIMARY KEY REFERENCES users(id),
		snapshot_json TEXT NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates every table and index the service needs.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
