package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/socialflow/internal/metrics"
)

// pollErrorPause is how long the poller waits after a failed getUpdates.
const pollErrorPause = 5 * time.Second

// PollerConfig configures a Poller.
type PollerConfig struct {
	// Timeout is the long-poll duration sent to getUpdates.
	Timeout time.Duration
	// ErrorPause is the wait after a failed poll. Zero means pollErrorPause.
	ErrorPause time.Duration
}

// Poller long-polls getUpdates and answers the bot commands /start and
// /chatid with the id of the chat they were sent from.
type Poller struct {
	client *Client
	logger *slog.Logger
	config PollerConfig
	offset int64
}

func NewPoller(client *Client, config PollerConfig, logger *slog.Logger) *Poller {
	if config.ErrorPause <= 0 {
		config.ErrorPause = pollErrorPause
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: client, logger: logger, config: config}
}

// Run polls until ctx is cancelled. It returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("telegram poller started", "timeout", p.config.Timeout)
	defer p.logger.Info("telegram poller stopped")

	for {
		updates, err := p.client.GetUpdates(ctx, GetUpdatesParams{
			Offset:         p.offset,
			Timeout:        int(p.config.Timeout / time.Second),
			AllowedUpdates: []string{"message"},
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Code == 409 {
				p.logger.Warn("telegram poller conflicts with a webhook; delete it to poll", "error", err)
			} else {
				p.logger.Warn("telegram poll failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.config.ErrorPause):
			}
			continue
		}

		for _, u := range updates {
			metrics.TelegramUpdatesTotal.Inc()
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			if err := p.handle(ctx, u); err != nil {
				p.logger.Warn("telegram update not answered", "update_id", u.UpdateID, "error", err)
			}
		}
	}
}

func (p *Poller) handle(ctx context.Context, u Update) error {
	if u.Message == nil {
		return nil
	}
	switch command(u.Message.Text) {
	case "/start", "/chatid":
		_, err := p.client.SendMessage(ctx, SendMessageParams{
			ChatID:           ChatIDFromInt(u.Message.Chat.ID),
			Text:             fmt.Sprintf("Chat ID: %d", u.Message.Chat.ID),
			ReplyToMessageID: u.Message.MessageID,
		})
		return err
	}
	return nil
}

// command returns the leading bot command of text without any @botname
// suffix, or "" when text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}
