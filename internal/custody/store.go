// Package custody resolves tool references against the tool register and
// applies custody transfers to it.
//
// The register is reached through RecordStore. Every call runs under a
// Policy that bounds it with a timeout and retries transient failures, so a
// slow or flaky store degrades into per-item failures instead of a stuck
// chat handler.
package custody

import (
	"context"

	"github.com/erazemk/orodjarna/internal/model"
)

// RecordStore is the tool register as seen by the chat core.
type RecordStore interface {
	// Search returns tools matching f in the store's default order.
	Search(ctx context.Context, f model.ToolFilter) ([]model.Tool, error)
	// Patch applies a custody update. It returns model.ErrToolNotFound
	// when the tool no longer exists.
	Patch(ctx context.Context, id int64, u model.ToolUpdate) error
}
