package notifier

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Notifier delivers a text message to the configured channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NoopNotifier drops every message. It is used when no bot token is configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(_ context.Context, text string) error {
	log.Debug().Str("component", "notifier").Int("len", len(text)).Msg("notifier disabled, message dropped")
	return nil
}
