package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/orodjarna/internal/bot"
	"github.com/erazemk/orodjarna/internal/config"
)

// consoleSink writes replies to a terminal instead of a chat channel.
type consoleSink struct {
	w io.Writer
}

func (s *consoleSink) Post(ctx context.Context, channel, text string) error {
	_, err := fmt.Fprintf(s.w, "[%s] %s\n", channel, text)
	return err
}

func (s *consoleSink) Upload(ctx context.Context, channel string, data []byte, filename, caption string) error {
	_, err := fmt.Fprintf(s.w, "[%s] attached %s (%s, %d bytes)\n", channel, filename, caption, len(data))
	return err
}

// cmdAsk runs one message through the bot against the local database. The
// message is the remaining arguments joined with spaces; "\n" sequences
// become line breaks so multi-line commands can be typed on one line.
func cmdAsk(cfg *config.Config, args []string) error {
	text := strings.ReplaceAll(strings.Join(args, " "), `\n`, "\n")
	if strings.TrimSpace(text) == "" {
		return errors.New("usage: orodjarna ask <text>")
	}

	ctx := context.Background()
	database, err := openDatabase(cfg.Server.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	b, err := newBot(ctx, cfg, database)
	if err != nil {
		return err
	}
	b.Sink = &consoleSink{w: os.Stdout}

	return b.Handle(ctx, bot.Event{ID: "cli-" + uuid.NewString(), Text: text, Channel: "console"})
}
