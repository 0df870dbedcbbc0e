package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler is called when a user command is received and returns the reply.
type CommandHandler func(ctx context.Context, text string) string

// mutatingCommands change the persisted book.
var mutatingCommands = map[string]bool{"/watch": true, "/unwatch": true, "/buy": true, "/sell": true}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
// With allowed chats configured, messages from other chats are ignored. Without
// any, every chat may read but none may change the book.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.logger.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update, handler)
		}
	}
}

func (t *TelegramNotifier) handleUpdate(ctx context.Context, update tgbotapi.Update, handler CommandHandler) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	text := strings.TrimSpace(msg.Text)
	var reply string
	switch {
	case t.allowed[msg.Chat.ID]:
		t.logger.Info().Str("command", text).Msg("received command")
		reply = handler(ctx, text)
	case len(t.allowed) > 0:
		t.logger.Warn().Int64("chat", msg.Chat.ID).Msg("ignoring message from unknown chat")
		return
	case mutatingCommands[commandName(text)]:
		t.logger.Warn().Int64("chat", msg.Chat.ID).Str("command", text).Msg("refusing book change without allowed chats")
		reply = "⛔ Changing the book requires an allowed chat. Set telegram.allowed_chat_ids or a numeric chat_id."
	default:
		t.logger.Info().Int64("chat", msg.Chat.ID).Str("command", text).Msg("received read-only command")
		reply = handler(ctx, text)
	}
	if reply == "" {
		return
	}
	for _, part := range splitMessage(reply, maxMessageLen) {
		out := tgbotapi.NewMessage(msg.Chat.ID, part)
		out.ParseMode = tgbotapi.ModeHTML
		out.DisableWebPagePreview = true
		if _, err := t.bot.Send(out); err != nil {
			t.logger.Error().Err(err).Msg("send reply failed")
			return
		}
	}
}

// commandName returns the lower-cased command word without a @bot suffix.
func commandName(text string) string {
	word, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	word, _, _ = strings.Cut(strings.ToLower(word), "@")
	return word
}
