package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxMessageLen is the Telegram limit for one text message.
const maxMessageLen = 4096

// ErrNoChat is returned when sending without a configured chat.
var ErrNoChat = errors.New("telegram chat id not configured")

// TelegramOptions configures a TelegramNotifier.
type TelegramOptions struct {
	Token    string
	ChatID   string // numeric chat id or @channel
	Proxy    string
	Endpoint string // API endpoint format, defaults to tgbotapi.APIEndpoint

	// AllowedChats may run every command. The numeric ChatID is always allowed.
	AllowedChats []int64
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
	allowed map[int64]bool
	logger  zerolog.Logger
}

// NewTelegramNotifier authorizes the bot with optional proxy support.
func NewTelegramNotifier(opts TelegramOptions) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	// Long polling holds requests for up to 60s.
	client := &http.Client{Timeout: 75 * time.Second, Transport: transport}
	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram authorize: %w", err)
	}

	t := &TelegramNotifier{
		bot:     bot,
		allowed: map[int64]bool{},
		logger:  log.With().Str("component", "telegram").Logger(),
	}
	for _, id := range opts.AllowedChats {
		t.allowed[id] = true
	}
	chat := strings.TrimSpace(opts.ChatID)
	if strings.HasPrefix(chat, "@") {
		t.channel = chat
	} else if chat != "" {
		if t.chatID, err = strconv.ParseInt(chat, 10, 64); err != nil {
			return nil, fmt.Errorf("telegram chat id %q: %w", chat, err)
		}
	}
	if t.chatID != 0 {
		t.allowed[t.chatID] = true
	}
	t.logger.Info().Str("username", bot.Self.UserName).Int("allowed_chats", len(t.allowed)).Msg("authorized on telegram")
	return t, nil
}

// Send sends a message to the configured chat, split at the length limit.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.send(ctx, text, func(part string) error { return t.sendPart(part) })
}

// SendWithRetry sends a message with exponential backoff retry. Each part
// of a split message is retried on its own, so delivered parts are not repeated.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	return t.send(ctx, text, func(part string) error {
		attempt := 0
		op := func() error {
			attempt++
			err := t.sendPart(part)
			if err != nil {
				t.logger.Warn().Err(err).Int("attempt", attempt).Int("max", maxRetries+1).Msg("telegram send failed")
			}
			return err
		}
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Second
		policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
		if err := backoff.Retry(op, policy); err != nil {
			return fmt.Errorf("telegram send after %d attempts: %w", attempt, err)
		}
		return nil
	})
}

func (t *TelegramNotifier) send(ctx context.Context, text string, deliver func(part string) error) error {
	if t.chatID == 0 && t.channel == "" {
		return ErrNoChat
	}
	for _, part := range splitMessage(text, maxMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := deliver(part); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) sendPart(part string) error {
	var msg tgbotapi.MessageConfig
	if t.channel != "" {
		msg = tgbotapi.NewMessageToChannel(t.channel, part)
	} else {
		msg = tgbotapi.NewMessage(t.chatID, part)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// splitMessage cuts text into parts of at most limit bytes at line breaks.
// A single line longer than limit is cut outside HTML tags and elements
// where possible, and never inside a UTF-8 sequence.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = lineCut(text, limit)
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	return append(parts, text)
}

// lineCut returns the last rune boundary at or before limit that is outside
// any tag, entity and open element, falling back to the last rune boundary.
func lineCut(text string, limit int) int {
	best, depth, inTag, inEntity := 0, 0, false, false
	for i := 0; i <= limit && i < len(text); i++ {
		if !inTag && !inEntity && depth == 0 && i > 0 && utf8Start(text[i]) {
			best = i
		}
		switch text[i] {
		case '<':
			inTag = true
			if i+1 < len(text) && text[i+1] == '/' {
				depth--
			} else {
				depth++
			}
		case '>':
			inTag = false
		case '&':
			inEntity = !inTag
		case ';':
			inEntity = false
		}
	}
	if best > 0 {
		return best
	}
	cut := limit
	for cut > 0 && !utf8Start(text[cut]) {
		cut--
	}
	return cut
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
