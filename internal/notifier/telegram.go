package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"SwapSentinel/internal/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const mirrorRetries = 2

// TelegramMirror forwards alerts to a Telegram chat.
type TelegramMirror struct {
	api     *tgbotapi.BotAPI
	chatID  int64
	log     *zap.Logger
	backoff time.Duration
}

// NewTelegramMirror creates a mirror with optional proxy support.
func NewTelegramMirror(botToken string, chatID int64, proxyURL string, log *zap.Logger) (*TelegramMirror, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Warn("ignoring invalid proxy", zap.Error(err))
		}
	}
	client := &http.Client{Timeout: 30 * time.Second, Transport: transport}
	return NewTelegramMirrorWithClient(botToken, tgbotapi.APIEndpoint, chatID, client, log)
}

// NewTelegramMirrorWithClient lets callers choose the API endpoint, in the
// "https://host/bot%s/%s" form.
func NewTelegramMirrorWithClient(botToken, endpoint string, chatID int64, client *http.Client, log *zap.Logger) (*TelegramMirror, error) {
	api, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log = log.Named("telegram")
	log.Info("telegram mirror initialized", zap.String("bot_username", api.Self.UserName))
	return &TelegramMirror{api: api, chatID: chatID, log: log, backoff: time.Second}, nil
}

// Send mirrors the alert for rec, retrying transient failures.
func (t *TelegramMirror) Send(ctx context.Context, rec *model.AnalysisRecord) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("telegram send panicked", zap.Any("panic", r))
			ok = false
		}
	}()
	if err := t.SendWithRetry(ctx, FormatTelegram(rec), mirrorRetries); err != nil {
		t.log.Error("telegram alert failed", zap.Error(err))
		return false
	}
	return true
}

// SendText sends one HTML message to the configured chat.
func (t *TelegramMirror) SendText(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramMirror) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.SendText(text); err != nil {
			lastErr = err
			if i == maxRetries {
				break
			}
			backoff := t.backoff << uint(i)
			t.log.Warn("telegram send failed, retrying",
				zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries+1),
				zap.Duration("backoff", backoff), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}
