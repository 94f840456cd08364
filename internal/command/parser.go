package command

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// Command is a parsed custody transfer: every item moves from OldHolder to
// NewHolder.
type Command struct {
	Items     []string
	OldHolder string
	NewHolder string
}

// ParseError reports why a message is not an executable custody command.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "custody command: " + e.Reason
}

// Parse failures. Compare with errors.Is.
var (
	ErrMissingHolders = &ParseError{Reason: "missing holders"}
	ErrMissingItems   = &ParseError{Reason: "missing items"}
)

// ClauseKind tags what a single message line contributed.
type ClauseKind int

const (
	// ClauseItem is a line naming one tool and nothing else.
	ClauseItem ClauseKind = iota
	// ClauseHolders is a line naming only the old and new holder.
	ClauseHolders
	// ClauseTransfer is a line naming a tool and both holders.
	ClauseTransfer
)

// Clause is the interpretation of one non-blank line.
type Clause struct {
	Kind      ClauseKind
	Item      string
	OldHolder string
	NewHolder string
}

// Parse turns a multi-line message into a custody command. Each non-blank
// line is matched in order against the transfer patterns, the handoff
// patterns and finally taken verbatim as a tool reference. Holder pairs are
// last-match-wins; items keep message order.
//
// Parse returns ErrMissingHolders when no line named both holders and
// ErrMissingItems when holders were found but no tool was.
func (g *Grammar) Parse(msg string) (*Command, error) {
	cmd := &Command{}
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(width.Fold.String(line))
		if line == "" {
			continue
		}
		c := g.MatchLine(line)
		switch c.Kind {
		case ClauseTransfer:
			cmd.Items = append(cmd.Items, c.Item)
			cmd.OldHolder, cmd.NewHolder = c.OldHolder, c.NewHolder
		case ClauseHolders:
			cmd.OldHolder, cmd.NewHolder = c.OldHolder, c.NewHolder
		case ClauseItem:
			if c.Item != "" {
				cmd.Items = append(cmd.Items, c.Item)
			}
		}
	}

	if cmd.OldHolder == "" || cmd.NewHolder == "" {
		return nil, ErrMissingHolders
	}
	if len(cmd.Items) == 0 {
		return nil, ErrMissingItems
	}
	return cmd, nil
}

// bullet matches a list marker at the start of a line, as produced by chat
// clients for bulleted lists.
var bullet = regexp.MustCompile(`^(?:[•・‣◦]\s*|[-*]\s+)`)

// MatchLine interprets one trimmed line. A leading list bullet is ignored.
func (g *Grammar) MatchLine(line string) Clause {
	line = strings.TrimSpace(bullet.ReplaceAllString(line, ""))
	for _, re := range g.transfers {
		if v, ok := captures(re, line, "item", "old", "new"); ok {
			return Clause{Kind: ClauseTransfer, Item: v[0], OldHolder: v[1], NewHolder: v[2]}
		}
	}
	for _, re := range g.handoffs {
		if v, ok := captures(re, line, "old", "new"); ok {
			return Clause{Kind: ClauseHolders, OldHolder: v[0], NewHolder: v[1]}
		}
	}
	return Clause{Kind: ClauseItem, Item: trimValue(line)}
}

// captures returns the named groups of re in line. A match where any group
// is empty after trimming does not count.
func captures(re *regexp.Regexp, line string, names ...string) ([]string, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	out := make([]string, len(names))
	for i, name := range names {
		v := trimValue(m[re.SubexpIndex(name)])
		if v == "" {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
