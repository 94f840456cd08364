// Package command interprets chat messages addressed to the bot.
//
// The interpreter is a small set of deterministic rules over a constrained
// message grammar: marker words select the intent, and ordered line patterns
// extract custody transfers. English and Japanese phrasings are understood
// out of the box; further markers and patterns come from configuration.
package command

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// Grammar holds the vocabulary and line patterns used by Classify, Parse and
// QueryTarget. A Grammar is immutable after construction and safe for
// concurrent use.
type Grammar struct {
	fromMarkers     []string
	toMarkers       []string
	locationMarkers []string

	// transfers match "<item> <old> <new>" lines; groups item, old, new.
	transfers []*regexp.Regexp
	// handoffs match "<old> <new>" lines; groups old, new.
	handoffs []*regexp.Regexp

	queryNoise *regexp.Regexp
}

// Config extends the default grammar.
type Config struct {
	FromMarkers      []string `yaml:"from_markers"`
	ToMarkers        []string `yaml:"to_markers"`
	LocationMarkers  []string `yaml:"location_markers"`
	QueryNoise       []string `yaml:"query_noise"`
	TransferPatterns []string `yaml:"transfer_patterns"`
	HandoffPatterns  []string `yaml:"handoff_patterns"`
}

var (
	defaultFromMarkers     = []string{"from", "から"}
	defaultToMarkers       = []string{"to", "へ", "に"}
	defaultLocationMarkers = []string{"where", "どこ", "場所"}

	defaultQueryNoise = []string{
		"where can i find the", "where can i find", "can i find the", "can i find",
		"where is the", "where's the", "where is", "where's", "where",
		"can you tell me", "do you know",
		"はどこにありますか", "はどこにある", "はどこですか", "はどこ",
		"どこにありますか", "どこにある", "どこですか", "どこ",
		"の場所は", "の場所", "場所は", "場所",
		"?", "？",
	}

	defaultTransferPatterns = []string{
		`(?i)^(?P<item>.+?)\s+from\s+(?P<old>.+?)\s+to\s+(?P<new>.+?)$`,
		`^(?P<item>.+?)\s*を\s*(?P<old>.+?)\s*から\s*(?P<new>.+?)\s*(?:へ|に)` + jaEnding,
	}

	defaultHandoffPatterns = []string{
		`(?i)^from\s+(?P<old>.+?)\s+to\s+(?P<new>.+?)$`,
		`^(?P<old>.+?)\s*から\s*(?P<new>.+?)\s*(?:へ|に)` + jaEnding,
	}
)

// jaEnding closes a Japanese transfer line. The particle after the new
// holder must end the line or be followed by a verb phrase free of へ and
// に, so a particle inside a name like たになか does not cut it short.
const jaEnding = `\s*(?:(?:変更|移動|渡|交代|引き?継|返却|貸|お願い|して|します|しました)[^へに]*)?[\s。.!！]*$`

// Default returns the built-in English and Japanese grammar.
func Default() *Grammar {
	g, err := New(Config{})
	if err != nil {
		panic(fmt.Sprintf("default grammar: %v", err))
	}
	return g
}

// New builds a grammar from the defaults plus the extensions in cfg. Extra
// patterns are tried after the built-in ones.
func New(cfg Config) (*Grammar, error) {
	g := &Grammar{
		fromMarkers:     foldAll(append(append([]string{}, defaultFromMarkers...), cfg.FromMarkers...)),
		toMarkers:       foldAll(append(append([]string{}, defaultToMarkers...), cfg.ToMarkers...)),
		locationMarkers: foldAll(append(append([]string{}, defaultLocationMarkers...), cfg.LocationMarkers...)),
	}

	var err error
	g.transfers, err = compilePatterns(append(append([]string{}, defaultTransferPatterns...), cfg.TransferPatterns...), "item", "old", "new")
	if err != nil {
		return nil, fmt.Errorf("transfer patterns: %w", err)
	}
	g.handoffs, err = compilePatterns(append(append([]string{}, defaultHandoffPatterns...), cfg.HandoffPatterns...), "old", "new")
	if err != nil {
		return nil, fmt.Errorf("handoff patterns: %w", err)
	}

	g.queryNoise, err = noiseExpr(append(append([]string{}, defaultQueryNoise...), cfg.QueryNoise...))
	if err != nil {
		return nil, fmt.Errorf("query noise: %w", err)
	}

	return g, nil
}

func compilePatterns(patterns []string, groups ...string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", p, err)
		}
		for _, name := range groups {
			if re.SubexpIndex(name) < 0 {
				return nil, fmt.Errorf("pattern %q lacks group %q", p, name)
			}
		}
		out = append(out, re)
	}
	return out, nil
}

// noiseExpr builds one case-insensitive alternation of the noise phrases,
// longest first so "where is the" wins over "where". Latin phrases only
// match whole words.
func noiseExpr(phrases []string) (*regexp.Regexp, error) {
	phrases = append([]string{}, phrases...)
	sort.SliceStable(phrases, func(i, j int) bool {
		return len([]rune(phrases[i])) > len([]rune(phrases[j]))
	})

	alts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(width.Fold.String(p))
		if p == "" {
			continue
		}
		words := strings.Fields(p)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alt := strings.Join(words, `\s+`)
		if isLatinPhrase(p) {
			alt = `\b` + alt + `\b`
		}
		alts = append(alts, alt)
	}
	if len(alts) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

// fold normalizes text for marker matching: full-width forms become ASCII
// and case is folded. Casers are stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(width.Fold.String(s))
}

func foldAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(fold(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// isLatinPhrase reports whether s consists of ASCII letters, apostrophes and
// spaces only. Such markers match whole words.
func isLatinPhrase(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || r == ' ' || r == '\'') {
			return false
		}
	}
	return s != ""
}

// trimValue strips surrounding whitespace and trailing sentence punctuation
// from a captured value.
func trimValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".!?,;:。！？、")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'「」『』`)
	return strings.TrimSpace(s)
}
