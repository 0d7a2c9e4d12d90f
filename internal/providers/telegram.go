package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"sla-service/internal/logging"
	"sla-service/internal/models"
	"sla-service/internal/utils"
)

// TelegramConfig holds the bot token and target chat for SLA notices.
type TelegramConfig struct {
	BotToken  string
	ChatID    int64
	RateLimit int // messages per second
}

// Telegram is a notification sink posting to one chat via go-telegram/bot.
type Telegram struct {
	cfg     TelegramConfig
	limiter *rate.Limiter
	logger  *logging.Logger

	mu     sync.Mutex
	client *bot.Bot
}

// NewTelegram validates cfg and returns a sink. The bot client is created on first send.
func NewTelegram(cfg TelegramConfig, logger *logging.Logger) (*Telegram, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("missing telegram bot token")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("missing telegram chat id")
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	return &Telegram{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)), cfg.RateLimit),
		logger:  logger,
	}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Send posts n to the configured chat, retrying transient failures.
func (t *Telegram) Send(ctx context.Context, n models.Notification) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	text := FormatTelegram(n)
	return utils.Retry(ctx, t.logger, 3, time.Second, func() error {
		b, err := t.bot()
		if err != nil {
			return err
		}
		params := &bot.SendMessageParams{
			ChatID: t.cfg.ChatID,
			Text:   text,
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", t.cfg.ChatID, err)
		}
		return nil
	})
}

func (t *Telegram) bot() (*bot.Bot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	b, err := bot.New(t.cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	t.client = b
	return b, nil
}

// FormatTelegram renders a plain-text chat message for n.
func FormatTelegram(n models.Notification) string {
	var sb strings.Builder
	sb.WriteString(n.Subject())
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Request: %s\n", n.RequestID)
	fmt.Fprintf(&sb, "Category: %s\n", n.Category)
	fmt.Fprintf(&sb, "Priority: %s\n", n.Priority)
	switch {
	case n.Checkpoint != nil:
		fmt.Fprintf(&sb, "Checkpoint: %gh elapsed\n", *n.Checkpoint)
	case n.ViolatedAt != nil:
		fmt.Fprintf(&sb, "Violated at: %s\n", n.ViolatedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "Time: %s", n.Timestamp.UTC().Format(time.RFC3339))
	return sb.String()
}
