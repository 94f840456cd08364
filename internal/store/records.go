package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/orodjarna/internal/model"
)

// Records exposes the tool register as a record store for the chat core.
type Records struct {
	DB *sql.DB
}

// NewRecords returns a record store backed by db.
func NewRecords(db *sql.DB) *Records {
	return &Records{DB: db}
}

// Search returns tools matching the filter.
func (r *Records) Search(ctx context.Context, f model.ToolFilter) ([]model.Tool, error) {
	return SearchTools(ctx, r.DB, f)
}

// Patch applies a custody update to a tool.
func (r *Records) Patch(ctx context.Context, id int64, u model.ToolUpdate) error {
	return UpdateToolCustody(ctx, r.DB, id, u)
}

// Photo returns the tool's photo, or nil data when there is none.
func (r *Records) Photo(ctx context.Context, id int64) ([]byte, string, error) {
	return GetToolImage(ctx, r.DB, id)
}
