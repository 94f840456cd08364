package command

import (
	"strings"
	"unicode"
)

// Intent is what a message asks the bot to do.
type Intent string

const (
	// IntentCustodyUpdate moves tools from one holder to another.
	IntentCustodyUpdate Intent = "custody_update"
	// IntentLocationQuery asks where a tool is.
	IntentLocationQuery Intent = "location_query"
	// IntentFallback is anything else.
	IntentFallback Intent = "fallback"
)

// Classify selects the intent of a cleaned message. Rules are evaluated in
// order and the first match wins:
//
//  1. a from-marker and a to-marker are both present: custody update
//  2. a location marker is present: location query
//  3. otherwise: fallback
//
// A message carrying transfer and location markers is a custody update.
func (g *Grammar) Classify(text string) Intent {
	m := newMarkerText(text)
	switch {
	case m.containsAny(g.fromMarkers) && m.containsAny(g.toMarkers):
		return IntentCustodyUpdate
	case m.containsAny(g.locationMarkers):
		return IntentLocationQuery
	default:
		return IntentFallback
	}
}

// markerText is folded message text prepared for marker lookups.
type markerText struct {
	folded string
	// words is the folded text reduced to space-separated letter/digit
	// runs, padded with spaces on both ends.
	words string
}

func newMarkerText(text string) markerText {
	folded := fold(text)
	return markerText{
		folded: folded,
		words:  padWords(folded),
	}
}

func padWords(s string) string {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(tokens, " ") + " "
}

func (m markerText) contains(marker string) bool {
	if isLatinPhrase(marker) {
		return strings.Contains(m.words, padWords(marker))
	}
	return strings.Contains(m.folded, marker)
}

func (m markerText) containsAny(markers []string) bool {
	for _, marker := range markers {
		if m.contains(marker) {
			return true
		}
	}
	return false
}
