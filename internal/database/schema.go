package database

// schema is applied in order by Migrate. {{timestamp}} is replaced by the timestamp
// column type of the driver.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		email               TEXT NOT NULL UNIQUE,
		password_hashed     TEXT NOT NULL DEFAULT '',
		github              TEXT NOT NULL DEFAULT '',
		avatar_url          TEXT,
		privacy             TEXT NOT NULL DEFAULT 'public',
		skills              TEXT NOT NULL DEFAULT '[]',
		hackathons_attended TEXT NOT NULL DEFAULT '[]',
		collaborations      INTEGER NOT NULL DEFAULT 0,
		wins                INTEGER NOT NULL DEFAULT 0,
		created_at          {{timestamp}} NOT NULL,
		updated_at          {{timestamp}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id                    TEXT PRIMARY KEY,
		author_id             TEXT NOT NULL REFERENCES users(id),
		author_name           TEXT NOT NULL,
		author_avatar_url     TEXT,
		type                  TEXT NOT NULL,
		description           TEXT NOT NULL,
		venue                 TEXT,
		event_date            TEXT,
		current_team_size     INTEGER,
		required_team_size    INTEGER,
		idea                  TEXT,
		skills                TEXT,
		current_team_count    INTEGER,
		achievement           TEXT,
		team_members          TEXT,
		views                 INTEGER NOT NULL DEFAULT 0,
		reaction_chat         INTEGER NOT NULL DEFAULT 0,
		reaction_congrats     INTEGER NOT NULL DEFAULT 0,
		reaction_best_of_luck INTEGER NOT NULL DEFAULT 0,
		created_at            {{timestamp}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author ON posts (author_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id           TEXT PRIMARY KEY,
		user_a       TEXT NOT NULL REFERENCES users(id),
		user_b       TEXT NOT NULL REFERENCES users(id),
		pair_key     TEXT NOT NULL UNIQUE,
		last_message TEXT,
		created_at   {{timestamp}} NOT NULL,
		updated_at   {{timestamp}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_user_a ON conversations (user_a)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_user_b ON conversations (user_b)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		sender_id       TEXT NOT NULL REFERENCES users(id),
		sender_name     TEXT NOT NULL,
		content         TEXT NOT NULL,
		created_at      {{timestamp}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_log ON messages (conversation_id, created_at, id)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id),
		token_hash  TEXT NOT NULL UNIQUE,
		expires_at  {{timestamp}} NOT NULL,
		created_at  {{timestamp}} NOT NULL,
		revoked_at  {{timestamp}},
		replaced_by TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS device_tokens (
		token      TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		platform   TEXT NOT NULL,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_device_tokens_user ON device_tokens (user_id)`,

	`CREATE TABLE IF NOT EXISTS saved_posts (
		user_id    TEXT NOT NULL REFERENCES users(id),
		post_id    TEXT NOT NULL REFERENCES posts(id),
		created_at {{timestamp}} NOT NULL,
		PRIMARY KEY (user_id, post_id)
	)`,
}
