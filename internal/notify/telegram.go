package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chuck-jokes/internal/config"
	"chuck-jokes/pkg/logger"

	"gopkg.in/telebot.v4"
)

var ErrRateLimited = errors.New("telegram rate limited")

const maxRetries = 3

// Telegram sends import summaries to a single chat.
type Telegram struct {
	bot        *telebot.Bot
	chat       *telebot.Chat
	retryDelay time.Duration
}

type Option func(*Telegram)

// WithRetryDelay sets the first wait after a rate-limited send; it doubles on every retry.
func WithRetryDelay(d time.Duration) Option {
	return func(t *Telegram) {
		t.retryDelay = d
	}
}

func NewTelegram(cfg config.TelegramConfig, opts ...Option) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, config.ErrEmptyBotToken
	}
	if cfg.ChatID == 0 {
		return nil, config.ErrEmptyChatID
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.Token,
		URL:     cfg.URL,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	t := &Telegram{
		bot:        bot,
		chat:       &telebot.Chat{ID: cfg.ChatID},
		retryDelay: time.Second,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	retryDelay := t.retryDelay

	for i := 0; i < maxRetries; i++ {
		_, err := t.bot.Send(t.chat, text)
		if err == nil {
			return nil
		}

		errStr := err.Error()
		if !strings.Contains(errStr, "Too Many Requests") && !strings.Contains(errStr, "rate") {
			return fmt.Errorf("failed to send message: %w", err)
		}

		if i == maxRetries-1 {
			break
		}

		logger.Warn("Rate limited, retrying...",
			logger.Int("retry", i+1),
			logger.Int("max_retries", maxRetries),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
		retryDelay *= 2
	}

	return ErrRateLimited
}
