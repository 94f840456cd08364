package command

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// QueryTarget isolates the tool reference in a location question by
// removing the question phrasing, e.g. "where is the ladder?" gives
// "ladder" and "梯子はどこ" gives "梯子".
func (g *Grammar) QueryTarget(text string) string {
	s := width.Fold.String(text)
	if g.queryNoise != nil {
		s = g.queryNoise.ReplaceAllString(s, " ")
	}
	s = strings.Join(strings.Fields(s), " ")
	s = trimValue(s)
	s = leadingArticle.ReplaceAllString(s, "")
	s = trailingCopula.ReplaceAllString(s, "")
	return trimValue(s)
}

// Left over from "where the drill is" once the question words are gone.
var (
	leadingArticle = regexp.MustCompile(`(?i)^the\s+`)
	trailingCopula = regexp.MustCompile(`(?i)\s+is$`)
)
