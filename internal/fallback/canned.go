package fallback

import "context"

// Canned answers every message with the same text. It stands in for Gemini
// when no API key is configured.
type Canned struct {
	Text string
}

// DefaultCannedText is used by a zero Canned.
const DefaultCannedText = "I only know about tools. Ask \"where is the ladder\" " +
	"or tell me \"ladder from Alice to Bob\"."

// Complete returns the canned text.
func (c Canned) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.Text == "" {
		return DefaultCannedText, nil
	}
	return c.Text, nil
}
