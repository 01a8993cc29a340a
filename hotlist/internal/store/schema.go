package store

import "database/sql"

// Schema is the complete hotwatch schema. All timestamps are Unix
// milliseconds; stat_date is a YYYY-MM-DD string in the server's zone.
const Schema = `
-- Ranking platforms. One row per distinct platform_id, ever.
CREATE TABLE IF NOT EXISTS sources (
    id            TEXT PRIMARY KEY,
    platform_id   TEXT NOT NULL UNIQUE,
    platform_name TEXT NOT NULL,
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);

-- Canonical deduplicated items. (source_id, title) is the dedup key.
CREATE TABLE IF NOT EXISTS headlines (
    id            TEXT PRIMARY KEY,
    source_id     TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    title         TEXT NOT NULL,
    url           TEXT NOT NULL DEFAULT '',
    mobile_url    TEXT NOT NULL DEFAULT '',
    first_seen_at INTEGER NOT NULL,
    last_seen_at  INTEGER NOT NULL,
    UNIQUE (source_id, title)
);
CREATE INDEX IF NOT EXISTS idx_headlines_first_seen ON headlines(first_seen_at DESC);
CREATE INDEX IF NOT EXISTS idx_headlines_last_seen ON headlines(last_seen_at DESC);

-- Append-only sighting log: one row per (headline, crawl) observation.
-- Never updated, never deduplicated.
CREATE TABLE IF NOT EXISTS headline_occurrences (
    id          TEXT PRIMARY KEY,
    headline_id TEXT NOT NULL REFERENCES headlines(id) ON DELETE CASCADE,
    rank        INTEGER NOT NULL,
    crawled_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_occurrences_headline ON headline_occurrences(headline_id);

-- One row per crawl cycle. Platform ID lists stored as JSON arrays.
CREATE TABLE IF NOT EXISTS crawl_sessions (
    id              TEXT PRIMARY KEY,
    started_at      INTEGER NOT NULL,
    completed_at    INTEGER NOT NULL,
    sources_success TEXT NOT NULL DEFAULT '[]',
    sources_failed  TEXT NOT NULL DEFAULT '[]',
    headline_count  INTEGER NOT NULL DEFAULT 0,
    status          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON crawl_sessions(started_at DESC);

-- One row per notification attempt, failures included.
CREATE TABLE IF NOT EXISTS push_records (
    id             TEXT PRIMARY KEY,
    push_type      TEXT NOT NULL,
    channel        TEXT NOT NULL,
    headline_count INTEGER NOT NULL DEFAULT 0,
    pushed_at      INTEGER NOT NULL,
    status         TEXT NOT NULL,
    error_message  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_pushes_time ON push_records(pushed_at DESC);

-- Keyword classification rules, wholesale-replaced on each sync.
CREATE TABLE IF NOT EXISTS word_groups (
    id                TEXT PRIMARY KEY,
    group_key         TEXT NOT NULL UNIQUE,
    max_display_count INTEGER NOT NULL DEFAULT 0,
    position          INTEGER NOT NULL DEFAULT 0,
    is_active         INTEGER NOT NULL DEFAULT 1,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_word_groups_active ON word_groups(is_active, position);

CREATE TABLE IF NOT EXISTS group_words (
    id        TEXT PRIMARY KEY,
    group_id  TEXT NOT NULL REFERENCES word_groups(id) ON DELETE CASCADE,
    word      TEXT NOT NULL,
    word_type TEXT NOT NULL CHECK (word_type IN ('required', 'normal'))
);
CREATE INDEX IF NOT EXISTS idx_group_words_group ON group_words(group_id);

-- Materialized per-source-per-day rollup. Recomputed, not incremented.
CREATE TABLE IF NOT EXISTS daily_stats (
    stat_date        TEXT NOT NULL,
    source_id        TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    headline_count   INTEGER NOT NULL DEFAULT 0,
    unique_headlines INTEGER NOT NULL DEFAULT 0,
    avg_rank         REAL NOT NULL DEFAULT 0,
    updated_at       INTEGER NOT NULL,
    PRIMARY KEY (stat_date, source_id)
);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
