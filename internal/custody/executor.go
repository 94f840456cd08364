package custody

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/orodjarna/internal/command"
	"github.com/erazemk/orodjarna/internal/model"
)

// Result summarizes an executed custody command.
type Result struct {
	OldHolder string
	NewHolder string
	Succeeded int
	// Failed lists the item references that were not updated, in command
	// order.
	Failed []string
}

// Summary renders the result as a chat reply.
func (r Result) Summary() string {
	s := fmt.Sprintf("%d items updated from '%s' to '%s'", r.Succeeded, r.OldHolder, r.NewHolder)
	if len(r.Failed) > 0 {
		s += "\nFailed: " + strings.Join(r.Failed, ", ")
	}
	return s
}

// Executor applies custody commands item by item.
type Executor struct {
	Resolver *Resolver
	Store    RecordStore
	Policy   Policy
	// Now stamps last_updated; only its local date is used.
	Now func() time.Time
}

// NewExecutor returns an executor writing to s.
func NewExecutor(s RecordStore, p Policy) *Executor {
	return &Executor{
		Resolver: NewResolver(s, p),
		Store:    s,
		Policy:   p,
		Now:      time.Now,
	}
}

// Execute resolves and updates every item of cmd in order. Items fail
// independently: an unresolved reference or a rejected write is recorded
// and the next item is still processed. Nothing is rolled back. source is
// recorded with each write.
func (e *Executor) Execute(ctx context.Context, cmd *command.Command, source string) Result {
	res := Result{OldHolder: cmd.OldHolder, NewHolder: cmd.NewHolder}
	today := e.Now()

	for _, ref := range cmd.Items {
		tool, err := e.Resolver.Resolve(ctx, ref)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				slog.Info("tool not found", "ref", ref, "event", source)
			}
			res.Failed = append(res.Failed, ref)
			continue
		}

		if !strings.EqualFold(tool.Holder, cmd.OldHolder) {
			slog.Info("holder mismatch, updating anyway",
				"tool", tool.Name, "recorded", tool.Holder, "claimed", cmd.OldHolder)
		}

		update := model.ToolUpdate{
			Holder:      cmd.NewHolder,
			Location:    cmd.NewHolder,
			LastUpdated: today,
			Source:      source,
		}
		err = e.Policy.Do(ctx, func(ctx context.Context) error {
			return e.Store.Patch(ctx, tool.ID, update)
		})
		if err != nil {
			slog.Warn("custody write failed", "tool", tool.Name, "ref", ref, "event", source, "error", err)
			res.Failed = append(res.Failed, ref)
			continue
		}

		slog.Info("custody updated", "tool", tool.Name, "from", tool.Holder, "to", cmd.NewHolder, "event", source)
		res.Succeeded++
	}

	return res
}
