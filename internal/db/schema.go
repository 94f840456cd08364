package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS tools (
    id           INTEGER PRIMARY KEY,
    code         TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL,
    holder       TEXT NOT NULL DEFAULT '',
    location     TEXT NOT NULL DEFAULT '',
    last_updated TEXT NOT NULL DEFAULT (date('now', 'localtime')),
    image        BLOB,
    image_mime   TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tools_code_active
    ON tools(code) WHERE deleted_at IS NULL AND code <> '';

CREATE TABLE IF NOT EXISTS custody_log (
    id          INTEGER PRIMARY KEY,
    tool_id     INTEGER NOT NULL REFERENCES tools(id),
    from_holder TEXT NOT NULL,
    to_holder   TEXT NOT NULL,
    source      TEXT,
    changed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return Migrate(db)
}
