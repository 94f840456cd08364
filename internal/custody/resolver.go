package custody

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/width"

	"github.com/erazemk/orodjarna/internal/model"
)

// ErrNotFound means the reference matched no tool.
var ErrNotFound = errors.New("no matching tool")

// RemoteError means the store could not be searched. Unlike ErrNotFound it
// says nothing about whether the tool exists.
type RemoteError struct {
	Ref string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("looking up %q: %v", e.Ref, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// FilterFor returns the store filter for a tool reference: exact code match
// for management codes, case-insensitive name containment otherwise.
func FilterFor(ref string) model.ToolFilter {
	if code, ok := model.NormalizeCode(ref); ok {
		return model.ToolFilter{Field: model.FieldCode, Match: model.MatchEquals, Value: code}
	}
	ref = strings.TrimSpace(width.Fold.String(ref))
	return model.ToolFilter{Field: model.FieldName, Match: model.MatchContains, Value: ref}
}

// Resolver maps tool references to tools.
type Resolver struct {
	Store  RecordStore
	Policy Policy
}

// NewResolver returns a resolver over s.
func NewResolver(s RecordStore, p Policy) *Resolver {
	return &Resolver{Store: s, Policy: p}
}

// Resolve returns the first tool matching ref. It returns ErrNotFound when
// nothing matches and a *RemoteError when the store failed after retries.
// Multiple matches are not disambiguated.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*model.Tool, error) {
	f := FilterFor(ref)
	if f.Value == "" {
		return nil, ErrNotFound
	}

	var tools []model.Tool
	err := r.Policy.Do(ctx, func(ctx context.Context) error {
		var err error
		tools, err = r.Store.Search(ctx, f)
		return err
	})
	if err != nil {
		slog.Warn("tool lookup failed", "ref", ref, "field", f.Field, "error", err)
		return nil, &RemoteError{Ref: ref, Err: err}
	}
	if len(tools) == 0 {
		return nil, ErrNotFound
	}
	if len(tools) > 1 {
		slog.Info("tool reference is ambiguous, using first match",
			"ref", ref, "matches", len(tools), "tool", tools[0].Name)
	}
	return &tools[0], nil
}
