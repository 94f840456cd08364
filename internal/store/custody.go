package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/orodjarna/internal/model"
)

// ListCustodyChanges returns custody log entries, newest first, optionally
// filtered by tool. A positive limit caps the number of entries.
func ListCustodyChanges(ctx context.Context, db *sql.DB, toolID int64, limit int) ([]model.CustodyChange, error) {
	query := `SELECT c.id, c.tool_id, c.from_holder, c.to_holder, c.source, c.changed_at, t.name
	          FROM custody_log c
	          JOIN tools t ON t.id = c.tool_id
	          WHERE 1=1`
	var args []any

	if toolID > 0 {
		query += ` AND c.tool_id = ?`
		args = append(args, toolID)
	}

	query += ` ORDER BY c.changed_at DESC, c.id DESC`

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing custody changes: %w", err)
	}
	defer rows.Close()

	var changes []model.CustodyChange
	for rows.Next() {
		var c model.CustodyChange
		var source sql.NullString
		if err := rows.Scan(&c.ID, &c.ToolID, &c.FromHolder, &c.ToHolder, &source, &c.ChangedAt, &c.ToolName); err != nil {
			return nil, fmt.Errorf("scanning custody change: %w", err)
		}
		c.Source = source.String
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
