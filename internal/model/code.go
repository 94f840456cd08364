package model

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// codePattern matches a management code, optionally labelled:
// "101", "#101", "No. 101", "code: 101", "管理番号101".
var codePattern = regexp.MustCompile(`(?i)^(?:(?:management\s*code|code|no\.?|管理番号|番号)\s*[:：]?\s*)?#?\s*(\d+)$`)

// NormalizeCode returns the bare digits of a management code. Full-width
// forms are folded and a leading label is dropped, so "１０１", "#101" and
// "No. 101" all give "101". ok is false when s is not a management code.
func NormalizeCode(s string) (code string, ok bool) {
	s = strings.TrimSpace(width.Fold.String(s))
	m := codePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
