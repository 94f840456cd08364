package command

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	g := Default()

	tests := []struct {
		name string
		msg  string
		want *Command
	}{
		{
			name: "three-part single line",
			msg:  "ladder from Alice to Bob",
			want: &Command{Items: []string{"ladder"}, OldHolder: "Alice", NewHolder: "Bob"},
		},
		{
			name: "codes per line then holders",
			msg:  "101\n102\nfrom Alice to Bob",
			want: &Command{Items: []string{"101", "102"}, OldHolder: "Alice", NewHolder: "Bob"},
		},
		{
			name: "blank lines and trailing punctuation",
			msg:  "\n  101  \n\n102\nfrom Alice to Bob.\n",
			want: &Command{Items: []string{"101", "102"}, OldHolder: "Alice", NewHolder: "Bob"},
		},
		{
			name: "last holder pair wins",
			msg:  "ladder from Alice to Bob\ndrill from Carol to Dave",
			want: &Command{Items: []string{"ladder", "drill"}, OldHolder: "Carol", NewHolder: "Dave"},
		},
		{
			name: "holders before items",
			msg:  "from Alice to Bob\n101\n102",
			want: &Command{Items: []string{"101", "102"}, OldHolder: "Alice", NewHolder: "Bob"},
		},
		{
			name: "japanese three-part",
			msg:  "梯子を田中から鈴木へ",
			want: &Command{Items: []string{"梯子"}, OldHolder: "田中", NewHolder: "鈴木"},
		},
		{
			name: "japanese codes then handoff",
			msg:  "管理番号101\n管理番号102\n田中から鈴木に変更",
			want: &Command{Items: []string{"管理番号101", "管理番号102"}, OldHolder: "田中", NewHolder: "鈴木"},
		},
		{
			name: "japanese holder containing particles",
			msg:  "梯子を田中からたになかへ",
			want: &Command{Items: []string{"梯子"}, OldHolder: "田中", NewHolder: "たになか"},
		},
		{
			name: "japanese holder containing particle before verb",
			msg:  "梯子を田中から丹羽にしへ変更お願いします",
			want: &Command{Items: []string{"梯子"}, OldHolder: "田中", NewHolder: "丹羽にし"},
		},
		{
			name: "japanese handoff holder starting with particle",
			msg:  "101\n田中からにしかわに移動しました。",
			want: &Command{Items: []string{"101"}, OldHolder: "田中", NewHolder: "にしかわ"},
		},
		{
			name: "bulleted items",
			msg:  "• 101\n• 102\nfrom Alice to Bob",
			want: &Command{Items: []string{"101", "102"}, OldHolder: "Alice", NewHolder: "Bob"},
		},
		{
			name: "dash and star bullets",
			msg:  "- ladder\n* drill\n- from Alice to Bob",
			want: &Command{Items: []string{"ladder", "drill"}, OldHolder: "Alice", NewHolder: "Bob"},
		},
		{
			name: "japanese bullets",
			msg:  "・梯子\n・ドリル\n田中から鈴木へ",
			want: &Command{Items: []string{"梯子", "ドリル"}, OldHolder: "田中", NewHolder: "鈴木"},
		},
		{
			name: "full-width digits folded",
			msg:  "１０１\nfrom Alice to Bob",
			want: &Command{Items: []string{"101"}, OldHolder: "Alice", NewHolder: "Bob"},
		},
		{
			name: "multi-word names",
			msg:  "aluminium step ladder from Main Storage to Van 2",
			want: &Command{Items: []string{"aluminium step ladder"}, OldHolder: "Main Storage", NewHolder: "Van 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Parse(tt.msg)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.msg, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.msg, diff)
			}
		})
	}
}

func TestParseFailures(t *testing.T) {
	g := Default()

	tests := []struct {
		msg  string
		want error
	}{
		// Transfer markers with empty holder fields.
		{"ladder from to", ErrMissingHolders},
		{"from  to ", ErrMissingHolders},
		{"101\n102", ErrMissingHolders},
		{"", ErrMissingHolders},
		{"from Alice to Bob", ErrMissingItems},
		{"田中から鈴木へ", ErrMissingItems},
	}

	for _, tt := range tests {
		cmd, err := g.Parse(tt.msg)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.msg, err, tt.want)
		}
		if cmd != nil {
			t.Errorf("Parse(%q) returned command %+v alongside error", tt.msg, cmd)
		}
	}

	if errors.Is(ErrMissingHolders, ErrMissingItems) {
		t.Error("failure reasons must be distinguishable")
	}
}

func TestParseIdempotent(t *testing.T) {
	g := Default()
	msg := "101\nladder\nfrom Alice to Bob"

	first, err := g.Parse(msg)
	if err != nil {
		t.Fatalf("first Parse: %v", err)
	}
	second, err := g.Parse(msg)
	if err != nil {
		t.Fatalf("second Parse: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("parsing twice differs (-first +second):\n%s", diff)
	}
}

func TestMatchLine(t *testing.T) {
	g := Default()

	tests := []struct {
		line string
		want Clause
	}{
		{"ladder from Alice to Bob", Clause{Kind: ClauseTransfer, Item: "ladder", OldHolder: "Alice", NewHolder: "Bob"}},
		{"from Alice to Bob", Clause{Kind: ClauseHolders, OldHolder: "Alice", NewHolder: "Bob"}},
		{"101", Clause{Kind: ClauseItem, Item: "101"}},
		{"ladder from to", Clause{Kind: ClauseItem, Item: "ladder from to"}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, g.MatchLine(tt.line)); diff != "" {
			t.Errorf("MatchLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestNewRejectsPatternWithoutGroups(t *testing.T) {
	_, err := New(Config{TransferPatterns: []string{`^(?P<item>.+) od (?P<old>.+)$`}})
	if err == nil {
		t.Error("expected error for transfer pattern without a new group")
	}

	_, err = New(Config{HandoffPatterns: []string{`(`}})
	if err == nil {
		t.Error("expected error for invalid regexp")
	}
}

func TestParseConfiguredPattern(t *testing.T) {
	g, err := New(Config{
		FromMarkers:      []string{"od"},
		ToMarkers:        []string{"do"},
		TransferPatterns: []string{`(?i)^(?P<item>.+?)\s+od\s+(?P<old>.+?)\s+do\s+(?P<new>.+?)$`},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := g.Parse("lestev od Ana do Borisa")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &Command{Items: []string{"lestev"}, OldHolder: "Ana", NewHolder: "Borisa"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
