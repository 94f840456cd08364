package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/orodjarna/internal/command"
	"github.com/erazemk/orodjarna/internal/model"
)

// Answer is the reply to a location question.
type Answer struct {
	Ref  string
	Text string
	// Tool is set when the reference resolved.
	Tool *model.Tool
}

// Locator answers "where is X" questions.
type Locator struct {
	Grammar  *command.Grammar
	Resolver *Resolver
}

// NewLocator returns a locator using g to strip question phrasing.
func NewLocator(g *command.Grammar, r *Resolver) *Locator {
	return &Locator{Grammar: g, Resolver: r}
}

// Answer isolates the tool reference in text, resolves it and renders where
// the tool is.
func (l *Locator) Answer(ctx context.Context, text string) Answer {
	ref := l.Grammar.QueryTarget(text)
	if ref == "" {
		return Answer{Text: "Which tool? Ask for example \"where is the ladder\"."}
	}

	tool, err := l.Resolver.Resolve(ctx, ref)
	var remote *RemoteError
	switch {
	case errors.As(err, &remote):
		return Answer{Ref: ref, Text: fmt.Sprintf("%s could not be looked up right now, please try again", ref)}
	case err != nil:
		return Answer{Ref: ref, Text: fmt.Sprintf("%s was not found", ref)}
	}

	return Answer{
		Ref:  ref,
		Tool: tool,
		Text: fmt.Sprintf("%s is currently at '%s'", tool.Name, tool.Location),
	}
}
