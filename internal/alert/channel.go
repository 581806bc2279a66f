// Package alert fans notifications out to configured delivery channels.
// Channels are best-effort: a failing channel never blocks the pipeline or
// the other channels.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"launch-radar/internal/domain"
)

// DefaultSendTimeout bounds a single channel delivery.
const DefaultSendTimeout = 10 * time.Second

// Channel delivers one alert to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, a *domain.Alert) error
}

// ConsoleChannel writes alerts to the structured log. Always configured as
// the fallback channel.
type ConsoleChannel struct {
	logger *zap.Logger
}

// NewConsoleChannel creates a console channel.
func NewConsoleChannel(logger *zap.Logger) *ConsoleChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleChannel{logger: logger}
}

func (c *ConsoleChannel) Name() string { return "console" }

func (c *ConsoleChannel) Send(_ context.Context, a *domain.Alert) error {
	fields := []zap.Field{
		zap.String("level", string(a.Level)),
		zap.String("title", a.Title),
	}
	for k, v := range a.Metadata {
		fields = append(fields, zap.String("meta_"+k, v))
	}
	switch a.Level {
	case domain.AlertError:
		c.logger.Error(a.Message, fields...)
	case domain.AlertWarning:
		c.logger.Warn(a.Message, fields...)
	default:
		c.logger.Info(a.Message, fields...)
	}
	return nil
}

// WebhookChannel POSTs alerts as JSON to an arbitrary endpoint.
type WebhookChannel struct {
	name    string
	url     string
	httpCli *http.Client
}

// NewWebhookChannel creates a generic webhook channel.
func NewWebhookChannel(name, url string) *WebhookChannel {
	return &WebhookChannel{
		name:    name,
		url:     url,
		httpCli: &http.Client{Timeout: DefaultSendTimeout},
	}
}

func (w *WebhookChannel) Name() string { return w.name }

func (w *WebhookChannel) Send(ctx context.Context, a *domain.Alert) error {
	body := struct {
		Level     string            `json:"level"`
		Title     string            `json:"title"`
		Message   string            `json:"message"`
		Timestamp time.Time         `json:"timestamp"`
		Metadata  map[string]string `json:"metadata,omitempty"`
	}{
		Level:     string(a.Level),
		Title:     a.Title,
		Message:   a.Message,
		Timestamp: a.Timestamp,
		Metadata:  a.Metadata,
	}
	return postJSON(ctx, w.httpCli, w.url, body)
}

// DiscordWebhookChannel posts alerts to a Discord webhook as a single
// embed, colored by severity.
type DiscordWebhookChannel struct {
	url     string
	httpCli *http.Client
}

// NewDiscordWebhookChannel creates a Discord webhook channel.
func NewDiscordWebhookChannel(url string) *DiscordWebhookChannel {
	return &DiscordWebhookChannel{
		url:     url,
		httpCli: &http.Client{Timeout: DefaultSendTimeout},
	}
}

func (d *DiscordWebhookChannel) Name() string { return "discord" }

var discordColors = map[domain.AlertLevel]int{
	domain.AlertInfo:    0x3498db,
	domain.AlertSuccess: 0x2ecc71,
	domain.AlertWarning: 0xf39c12,
	domain.AlertError:   0xe74c3c,
}

func (d *DiscordWebhookChannel) Send(ctx context.Context, a *domain.Alert) error {
	type embedField struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Inline bool   `json:"inline"`
	}
	type embed struct {
		Title       string       `json:"title"`
		Description string       `json:"description"`
		Color       int          `json:"color"`
		Fields      []embedField `json:"fields,omitempty"`
		Timestamp   string       `json:"timestamp"`
	}

	e := embed{
		Title:       a.Title,
		Description: a.Message,
		Color:       discordColors[a.Level],
		Timestamp:   a.Timestamp.UTC().Format(time.RFC3339),
	}
	for k, v := range a.Metadata {
		e.Fields = append(e.Fields, embedField{Name: k, Value: v, Inline: true})
	}

	body := struct {
		Embeds []embed `json:"embeds"`
	}{Embeds: []embed{e}}
	return postJSON(ctx, d.httpCli, d.url, body)
}

// TelegramChannel sends alerts through a Telegram bot.
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// telegramEndpoint is swapped in tests.
var telegramEndpoint = tgbotapi.APIEndpoint

// NewTelegramChannel creates a Telegram channel from a bot token and target
// chat. The bot API client carries its own timeout so a hung Telegram call
// cannot outlive the dispatcher's per-delivery budget.
func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	cli := &http.Client{Timeout: DefaultSendTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, telegramEndpoint, cli)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

func (t *TelegramChannel) Name() string { return "telegram" }

var telegramPrefix = map[domain.AlertLevel]string{
	domain.AlertInfo:    "ℹ️",
	domain.AlertSuccess: "✅",
	domain.AlertWarning: "⚠️",
	domain.AlertError:   "❌",
}

func (t *TelegramChannel) Send(_ context.Context, a *domain.Alert) error {
	text := fmt.Sprintf("%s *%s*\n%s", telegramPrefix[a.Level], a.Title, a.Message)
	for k, v := range a.Metadata {
		text += fmt.Sprintf("\n`%s`: %s", k, v)
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func postJSON(ctx context.Context, cli *http.Client, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned %d", resp.StatusCode)
	}
	return nil
}
