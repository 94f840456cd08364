package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/orodjarna/internal/model"
)

const toolColumns = `id, code, name, holder, location, last_updated, image_mime, created_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTool(row rowScanner) (*model.Tool, error) {
	t := &model.Tool{}
	var imageMime sql.NullString
	if err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Holder, &t.Location, &t.LastUpdated,
		&imageMime, &t.CreatedAt, &t.DeletedAt); err != nil {
		return nil, err
	}
	t.ImageMime = imageMime.String
	return t, nil
}

func scanTools(rows *sql.Rows) ([]model.Tool, error) {
	var tools []model.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tool: %w", err)
		}
		tools = append(tools, *t)
	}
	return tools, rows.Err()
}

// CreateTool registers a new tool. Holder doubles as the initial location.
func CreateTool(ctx context.Context, db *sql.DB, code, name, holder string) (*model.Tool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO tools (code, name, holder, location) VALUES (?, ?, ?, ?)`,
		code, name, holder, holder,
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting tool id: %w", err)
	}

	return GetTool(ctx, db, id)
}

// GetTool returns a tool by ID, including soft-deleted tools.
func GetTool(ctx context.Context, db *sql.DB, id int64) (*model.Tool, error) {
	t, err := scanTool(db.QueryRowContext(ctx,
		`SELECT `+toolColumns+` FROM tools WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting tool: %w", err)
	}
	return t, nil
}

// ListTools returns all non-deleted tools ordered by code and name. A
// non-empty query narrows the list to tools whose code, name or holder
// contains it.
func ListTools(ctx context.Context, db *sql.DB, query string) ([]model.Tool, error) {
	var rows *sql.Rows
	var err error

	if query != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT `+toolColumns+` FROM tools
			 WHERE deleted_at IS NULL
			   AND (instr(lower(code), lower(?)) > 0 OR instr(lower(name), lower(?)) > 0 OR instr(lower(holder), lower(?)) > 0)
			 ORDER BY code, name`, query, query, query,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+toolColumns+` FROM tools WHERE deleted_at IS NULL ORDER BY code, name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	defer rows.Close()

	return scanTools(rows)
}

// SearchTools returns non-deleted tools matching a single-field filter in
// insertion order.
func SearchTools(ctx context.Context, db *sql.DB, f model.ToolFilter) ([]model.Tool, error) {
	switch f.Field {
	case model.FieldCode, model.FieldName, model.FieldHolder:
	default:
		return nil, fmt.Errorf("searching tools: %w: unsupported field %q", model.ErrInvalidFilter, f.Field)
	}

	var cond string
	switch f.Match {
	case model.MatchEquals:
		cond = f.Field + ` = ?`
	case model.MatchContains:
		cond = `instr(lower(` + f.Field + `), lower(?)) > 0`
	default:
		return nil, fmt.Errorf("searching tools: %w: unsupported match %d", model.ErrInvalidFilter, f.Match)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+toolColumns+` FROM tools WHERE deleted_at IS NULL AND `+cond+` ORDER BY id`,
		strings.TrimSpace(f.Value),
	)
	if err != nil {
		return nil, fmt.Errorf("searching tools: %w", err)
	}
	defer rows.Close()

	return scanTools(rows)
}

// UpdateTool updates a tool's register data. It does not touch custody.
func UpdateTool(ctx context.Context, db *sql.DB, id int64, code, name string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE tools SET code = ?, name = ? WHERE id = ? AND deleted_at IS NULL`,
		code, name, id,
	)
	if err != nil {
		return fmt.Errorf("updating tool: %w", err)
	}
	return nil
}

// DeleteTool soft-deletes a tool. Its custody log is kept.
func DeleteTool(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE tools SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting tool: %w", err)
	}
	return nil
}

// UpdateToolCustody writes a custody change: holder, location and
// last_updated are set and the change is appended to the custody log in the
// same transaction. Returns model.ErrToolNotFound when the tool does not
// exist or is deleted.
func UpdateToolCustody(ctx context.Context, db *sql.DB, id int64, u model.ToolUpdate) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT holder FROM tools WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrToolNotFound
	}
	if err != nil {
		return fmt.Errorf("checking current holder: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tools SET holder = ?, location = ?, last_updated = ? WHERE id = ?`,
		u.Holder, u.Location, u.LastUpdated.Format(model.DateLayout), id,
	)
	if err != nil {
		return fmt.Errorf("updating custody: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO custody_log (tool_id, from_holder, to_holder, source) VALUES (?, ?, ?, ?)`,
		id, current, u.Holder, u.Source,
	)
	if err != nil {
		return fmt.Errorf("recording custody change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing custody change: %w", err)
	}
	return nil
}

// SetToolImage sets a tool's photo.
func SetToolImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE tools SET image = ?, image_mime = ? WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting tool image: %w", err)
	}
	return nil
}

// GetToolImage returns a tool's photo and its MIME type. Both are empty when
// the tool has no photo.
func GetToolImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM tools WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting tool image: %w", err)
	}
	return image, mime.String, nil
}
