// Package bot turns inbound chat events into replies.
//
// A Bot gates events through the dedup cache, classifies the text and
// dispatches it to the custody executor, the locator or the generative
// fallback. Nothing that goes wrong while handling an event is fatal: every
// failure ends in a reply or a log line.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/orodjarna/internal/command"
	"github.com/erazemk/orodjarna/internal/custody"
	"github.com/erazemk/orodjarna/internal/dedup"
	"github.com/erazemk/orodjarna/internal/model"
)

// Event is an inbound chat message. Text is already free of mention markup.
type Event struct {
	ID      string
	Text    string
	Channel string
}

// Generator answers messages the bot does not understand.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ReplySink delivers replies to a channel.
type ReplySink interface {
	Post(ctx context.Context, channel, text string) error
	Upload(ctx context.Context, channel string, data []byte, filename, caption string) error
}

// PhotoStore returns stored tool photos. Data is nil when there is none.
type PhotoStore interface {
	Photo(ctx context.Context, id int64) ([]byte, string, error)
}

// Photo is an image attached to a reply.
type Photo struct {
	Data     []byte
	Filename string
	Caption  string
}

// Reply is the bot's answer to one event.
type Reply struct {
	Text   string
	Intent command.Intent
	// Skip is set for duplicate deliveries, which get no reply at all.
	Skip  bool
	Photo *Photo
}

// DefaultSystemPrompt is sent with every fallback request.
const DefaultSystemPrompt = "You are a helpful Slack assistant bot for a shared tool room. Answer briefly."

// Reply texts.
const (
	HelpText = "Ask me where a tool is (\"where is the ladder\") or move tools " +
		"between people (\"ladder from Alice to Bob\", or one tool per line followed by \"from Alice to Bob\")."
	MissingHoldersText = "I could not tell who the tools are moving between. " +
		"Write it as \"ladder from Alice to Bob\"."
	MissingItemsText = "Which tools are moving? List them one per line above \"from Alice to Bob\"."
	NoFallbackText   = "I can only answer questions about tools. " + HelpText
	ApologyText      = "Sorry, I could not come up with an answer right now."
)

// Bot is the event pipeline.
type Bot struct {
	Grammar   *command.Grammar
	Dedup     *dedup.Cache
	Executor  *custody.Executor
	Locator   *custody.Locator
	Generator Generator
	Sink      ReplySink
	Photos    PhotoStore

	Now             func() time.Time
	SystemPrompt    string
	FallbackTimeout time.Duration
}

// New returns a bot with default clock, prompt and fallback timeout. Sink,
// Photos and Generator may be set afterwards.
func New(g *command.Grammar, cache *dedup.Cache, exec *custody.Executor, loc *custody.Locator) *Bot {
	return &Bot{
		Grammar:         g,
		Dedup:           cache,
		Executor:        exec,
		Locator:         loc,
		Now:             time.Now,
		SystemPrompt:    DefaultSystemPrompt,
		FallbackTimeout: 30 * time.Second,
	}
}

// Respond computes the reply to ev without delivering it.
func (b *Bot) Respond(ctx context.Context, ev Event) Reply {
	if b.Dedup.Observe(ev.ID, b.Now()) == dedup.Duplicate {
		slog.Info("duplicate event skipped", "event", ev.ID)
		return Reply{Skip: true}
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return Reply{Text: HelpText, Intent: command.IntentFallback}
	}

	intent := b.Grammar.Classify(text)
	slog.Info("event classified", "event", ev.ID, "channel", ev.Channel, "intent", intent)

	var r Reply
	switch intent {
	case command.IntentCustodyUpdate:
		r = b.update(ctx, ev.ID, text)
	case command.IntentLocationQuery:
		r = b.locate(ctx, text)
	default:
		r = b.fallback(ctx, ev.ID, text)
	}
	r.Intent = intent
	return r
}

// Handle responds to ev and delivers the reply through the sink.
func (b *Bot) Handle(ctx context.Context, ev Event) error {
	r := b.Respond(ctx, ev)
	if r.Skip {
		return nil
	}
	if b.Sink == nil {
		return errors.New("no reply sink configured")
	}

	if err := b.Sink.Post(ctx, ev.Channel, r.Text); err != nil {
		return fmt.Errorf("posting reply: %w", err)
	}
	if r.Photo != nil {
		if err := b.Sink.Upload(ctx, ev.Channel, r.Photo.Data, r.Photo.Filename, r.Photo.Caption); err != nil {
			return fmt.Errorf("uploading photo: %w", err)
		}
	}
	return nil
}

func (b *Bot) update(ctx context.Context, eventID, text string) Reply {
	cmd, err := b.Grammar.Parse(text)
	switch {
	case errors.Is(err, command.ErrMissingHolders):
		slog.Info("custody command rejected", "event", eventID, "error", err)
		return Reply{Text: MissingHoldersText}
	case errors.Is(err, command.ErrMissingItems):
		slog.Info("custody command rejected", "event", eventID, "error", err)
		return Reply{Text: MissingItemsText}
	case err != nil:
		return Reply{Text: HelpText}
	}

	res := b.Executor.Execute(ctx, cmd, eventID)
	return Reply{Text: res.Summary()}
}

func (b *Bot) locate(ctx context.Context, text string) Reply {
	a := b.Locator.Answer(ctx, text)
	r := Reply{Text: a.Text}
	if a.Tool == nil || !a.Tool.HasImage() || b.Photos == nil {
		return r
	}

	data, mime, err := b.Photos.Photo(ctx, a.Tool.ID)
	if err != nil {
		slog.Warn("loading tool photo failed", "tool", a.Tool.Name, "error", err)
		return r
	}
	if data != nil {
		r.Photo = &Photo{Data: data, Filename: photoFilename(a.Tool, mime), Caption: a.Tool.Name}
	}
	return r
}

func (b *Bot) fallback(ctx context.Context, eventID, text string) Reply {
	if b.Generator == nil {
		return Reply{Text: NoFallbackText}
	}

	if b.FallbackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.FallbackTimeout)
		defer cancel()
	}

	out, err := b.Generator.Complete(ctx, b.SystemPrompt, text)
	if err != nil {
		slog.Warn("fallback generation failed", "event", eventID, "error", err)
		return Reply{Text: ApologyText}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return Reply{Text: ApologyText}
	}
	return Reply{Text: out}
}

func photoFilename(t *model.Tool, mime string) string {
	ext := ".jpg"
	switch mime {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}
	if t.Code != "" {
		return "tool-" + t.Code + ext
	}
	return fmt.Sprintf("tool-%d%s", t.ID, ext)
}
