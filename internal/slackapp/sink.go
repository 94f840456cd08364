package slackapp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Sink posts replies with the Slack Web API.
type Sink struct {
	client *slack.Client
}

// NewSink creates a sink authenticated with a bot token.
func NewSink(token string, opts ...slack.Option) *Sink {
	return &Sink{client: slack.New(token, opts...)}
}

// Post sends text to channel.
func (s *Sink) Post(ctx context.Context, channel, text string) error {
	if _, _, err := s.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	return nil
}

// Upload shares a file in channel.
func (s *Sink) Upload(ctx context.Context, channel string, data []byte, filename, caption string) error {
	_, err := s.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  channel,
		Reader:   bytes.NewReader(data),
		FileSize: len(data),
		Filename: filename,
		Title:    caption,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", filename, err)
	}
	return nil
}
