package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: custody history is read per tool, newest first.
	`CREATE INDEX IF NOT EXISTS idx_custody_log_tool
	     ON custody_log(tool_id, changed_at)`,
	// Migration 2: holder lookups from the admin API.
	`CREATE INDEX IF NOT EXISTS idx_tools_holder
	     ON tools(holder) WHERE deleted_at IS NULL`,
}

// Migrate runs the migrations. It assumes the base schema exists.
func Migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
