package custody

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/erazemk/orodjarna/internal/command"
	"github.com/erazemk/orodjarna/internal/db"
	"github.com/erazemk/orodjarna/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
}

func newTestExecutor(s RecordStore) *Executor {
	e := NewExecutor(s, fastPolicy())
	e.Now = fixedNow
	return e
}

func TestExecuteUpdatesEveryItem(t *testing.T) {
	s := newMemStore(sampleTools()...)
	cmd := &command.Command{Items: []string{"101", "102"}, OldHolder: "Alice", NewHolder: "Bob"}

	res := newTestExecutor(s).Execute(context.Background(), cmd, "E1")

	want := Result{OldHolder: "Alice", NewHolder: "Bob", Succeeded: 2}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	for _, id := range []int64{1, 2} {
		tool := s.tool(id)
		if tool.Holder != "Bob" || tool.Location != "Bob" {
			t.Errorf("tool %d: expected holder and location Bob, got %q / %q", id, tool.Holder, tool.Location)
		}
		if tool.LastUpdated != "2026-03-14" {
			t.Errorf("tool %d: expected last_updated 2026-03-14, got %q", id, tool.LastUpdated)
		}
	}
}

func TestExecutePartialFailureKeepsOrder(t *testing.T) {
	s := newMemStore(sampleTools()...)
	cmd := &command.Command{
		Items:     []string{"101", "wheelbarrow", "102", "999"},
		OldHolder: "Alice",
		NewHolder: "Bob",
	}

	res := newTestExecutor(s).Execute(context.Background(), cmd, "E2")

	if res.Succeeded != 2 {
		t.Errorf("expected 2 succeeded, got %d", res.Succeeded)
	}
	if diff := cmp.Diff([]string{"wheelbarrow", "999"}, res.Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
	if s.tool(2).Holder != "Bob" {
		t.Error("expected item after a failure to still be updated")
	}
}

func TestExecuteWriteFailure(t *testing.T) {
	s := newMemStore(sampleTools()...)
	s.patchErrs[1] = errors.New("disk I/O error")
	cmd := &command.Command{Items: []string{"101", "102"}, OldHolder: "Alice", NewHolder: "Bob"}

	res := newTestExecutor(s).Execute(context.Background(), cmd, "E3")

	if res.Succeeded != 1 {
		t.Errorf("expected 1 succeeded, got %d", res.Succeeded)
	}
	if diff := cmp.Diff([]string{"101"}, res.Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
	// one retry for the failing write, one write for the other item
	if s.patches != 3 {
		t.Errorf("expected 3 patch calls, got %d", s.patches)
	}
	if s.tool(1).Holder != "Alice" {
		t.Error("failed write must leave the tool unchanged")
	}
}

func TestExecuteHolderMismatchStillWrites(t *testing.T) {
	s := newMemStore(sampleTools()...)
	cmd := &command.Command{Items: []string{"103"}, OldHolder: "Alice", NewHolder: "Bob"}

	res := newTestExecutor(s).Execute(context.Background(), cmd, "E4")

	if res.Succeeded != 1 || len(res.Failed) != 0 {
		t.Errorf("expected write despite holder mismatch, got %+v", res)
	}
	if s.tool(3).Holder != "Bob" {
		t.Errorf("expected holder Bob, got %q", s.tool(3).Holder)
	}
}

func TestExecuteRemoteLookupFailure(t *testing.T) {
	s := newMemStore(sampleTools()...)
	boom := errors.New("database is locked")
	s.searchErrs = []error{boom, boom}
	cmd := &command.Command{Items: []string{"101", "102"}, OldHolder: "Alice", NewHolder: "Bob"}

	res := newTestExecutor(s).Execute(context.Background(), cmd, "E5")

	if res.Succeeded != 1 {
		t.Errorf("expected 1 succeeded, got %d", res.Succeeded)
	}
	if diff := cmp.Diff([]string{"101"}, res.Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
}

func TestResultSummary(t *testing.T) {
	tests := []struct {
		res  Result
		want string
	}{
		{
			Result{OldHolder: "Alice", NewHolder: "Bob", Succeeded: 2},
			"2 items updated from 'Alice' to 'Bob'",
		},
		{
			Result{OldHolder: "Alice", NewHolder: "Bob", Succeeded: 1, Failed: []string{"wheelbarrow", "999"}},
			"1 items updated from 'Alice' to 'Bob'\nFailed: wheelbarrow, 999",
		},
		{
			Result{OldHolder: "倉庫", NewHolder: "田中", Failed: []string{"梯子"}},
			"0 items updated from '倉庫' to '田中'\nFailed: 梯子",
		},
	}

	for _, tt := range tests {
		if got := tt.res.Summary(); got != tt.want {
			t.Errorf("Summary() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseThenExecuteAgainstSQLite(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	ladder, err := store.CreateTool(ctx, database, "101", "Aluminium ladder", "Alice")
	if err != nil {
		t.Fatalf("CreateTool: %v", err)
	}
	drill, err := store.CreateTool(ctx, database, "102", "Cordless drill", "Alice")
	if err != nil {
		t.Fatalf("CreateTool: %v", err)
	}

	cmd, err := command.Default().Parse("101\ndrill\nfrom Alice to Bob")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	res := newTestExecutor(store.NewRecords(database)).Execute(ctx, cmd, "Ev123")
	if res.Succeeded != 2 || len(res.Failed) != 0 {
		t.Fatalf("expected 2 clean updates, got %+v", res)
	}

	for _, id := range []int64{ladder.ID, drill.ID} {
		tool, err := store.GetTool(ctx, database, id)
		if err != nil {
			t.Fatalf("GetTool: %v", err)
		}
		if tool.Holder != "Bob" || tool.Location != "Bob" || tool.LastUpdated != "2026-03-14" {
			t.Errorf("tool %d not updated: %+v", id, tool)
		}
	}

	changes, err := store.ListCustodyChanges(ctx, database, ladder.ID, 0)
	if err != nil {
		t.Fatalf("ListCustodyChanges: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 custody change, got %d", len(changes))
	}
	c := changes[0]
	if c.FromHolder != "Alice" || c.ToHolder != "Bob" || c.Source != "Ev123" {
		t.Errorf("unexpected custody change: %+v", c)
	}
}

func TestExecuteDeletedToolFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tool, _ := store.CreateTool(ctx, database, "101", "Ladder", "Alice")
	if err := store.DeleteTool(ctx, database, tool.ID); err != nil {
		t.Fatalf("DeleteTool: %v", err)
	}

	cmd := &command.Command{Items: []string{"101"}, OldHolder: "Alice", NewHolder: "Bob"}
	res := newTestExecutor(store.NewRecords(database)).Execute(ctx, cmd, "E6")
	if res.Succeeded != 0 || len(res.Failed) != 1 {
		t.Errorf("expected deleted tool to fail, got %+v", res)
	}
}
