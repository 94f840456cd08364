// Package slackapp connects the bot to Slack: the Events API webhook on the
// way in and the Web API on the way out.
package slackapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/erazemk/orodjarna/internal/bot"
)

const maxBodySize = 1 << 20

// Dispatcher handles one inbound event to completion.
type Dispatcher interface {
	Handle(ctx context.Context, ev bot.Event) error
}

// Handler serves the Slack Events API endpoint. Mentions are acknowledged
// immediately and handled in the background, so slow store or model calls
// never make Slack redeliver.
type Handler struct {
	Bot           Dispatcher
	SigningSecret string
	// HandleTimeout bounds a single background event.
	HandleTimeout time.Duration

	wg sync.WaitGroup
}

// NewHandler returns a handler dispatching to b. An empty secret disables
// signature verification.
func NewHandler(b Dispatcher, signingSecret string) *Handler {
	return &Handler{Bot: b, SigningSecret: signingSecret, HandleTimeout: 2 * time.Minute}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if h.SigningSecret != "" {
		if err := verify(r.Header, body, h.SigningSecret); err != nil {
			slog.Warn("rejected slack request", "error", err, "remote", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	switch ev.Type {
	case slackevents.URLVerification:
		var ch slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &ch); err != nil {
			http.Error(w, "invalid challenge", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(ch.Challenge))

	case slackevents.CallbackEvent:
		if retry := r.Header.Get("X-Slack-Retry-Num"); retry != "" {
			slog.Info("slack redelivery", "retry", retry, "reason", r.Header.Get("X-Slack-Retry-Reason"))
		}
		var eventID string
		if cb, ok := ev.Data.(*slackevents.EventsAPICallbackEvent); ok {
			eventID = cb.EventID
		}
		if mention, ok := ev.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			h.mention(eventID, mention)
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) mention(eventID string, m *slackevents.AppMentionEvent) {
	if m.BotID != "" {
		return
	}
	ev := bot.Event{ID: eventID, Text: CleanText(m.Text), Channel: m.Channel}

	h.wg.Go(func() {
		ctx := context.Background()
		if h.HandleTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.HandleTimeout)
			defer cancel()
		}
		if err := h.Bot.Handle(ctx, ev); err != nil {
			slog.Error("handling slack event", "event", ev.ID, "channel", ev.Channel, "error", err)
		}
	})
}

// Wait blocks until every dispatched event has been handled.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func verify(header http.Header, body []byte, secret string) error {
	sv, err := slack.NewSecretsVerifier(header, secret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

var (
	mentionMarkup = regexp.MustCompile(`<@[A-Z0-9]+(?:\|[^>]*)?>`)
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	entities      = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// CleanText removes user mention markup and unescapes the entities Slack
// escapes in message text. Line breaks are kept.
func CleanText(text string) string {
	text = mentionMarkup.ReplaceAllString(text, "")
	text = entities.Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
