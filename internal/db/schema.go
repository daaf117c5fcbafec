package db

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS nextvideo_generations (
	id          UUID PRIMARY KEY,
	user_id     TEXT,
	session_id  TEXT,
	channel_id  TEXT NOT NULL,
	channel     JSONB NOT NULL,
	niche       JSONB NOT NULL DEFAULT '[]',
	peers       JSONB NOT NULL DEFAULT '[]',
	outliers    JSONB NOT NULL DEFAULT '[]',
	ideas       JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS nextvideo_generations_user_idx
	ON nextvideo_generations (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS nextvideo_generations_session_idx
	ON nextvideo_generations (session_id, created_at DESC) WHERE user_id IS NULL;

CREATE TABLE IF NOT EXISTS nextvideo_cache (
	cache_key   TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	data        JSONB NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS nextvideo_cache_expires_idx ON nextvideo_cache (expires_at);

CREATE TABLE IF NOT EXISTS subscriptions (
	user_id     TEXT PRIMARY KEY,
	plan        TEXT NOT NULL,
	status      TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
