package automation

import (
	"context"
	"fmt"

	"github.com/DukeRupert/socialflow/internal/telegram"
	"github.com/DukeRupert/socialflow/internal/twitter"
)

// MessageSender is the part of the Telegram client the forwarder needs.
type MessageSender interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
}

// TelegramForwarder posts every tweet with text to one Telegram chat.
type TelegramForwarder struct {
	sender MessageSender
	chatID telegram.ChatID
}

func NewTelegramForwarder(sender MessageSender, chatID string) *TelegramForwarder {
	return &TelegramForwarder{sender: sender, chatID: telegram.ChatID(chatID)}
}

func (*TelegramForwarder) Name() string { return "telegram" }

func (f *TelegramForwarder) ProcessTweet(ctx context.Context, env twitter.Envelope) error {
	if env.Data.Text == "" {
		return nil
	}
	_, err := f.sender.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: f.chatID,
		Text:   ForwardText(env.Data),
	})
	if err != nil {
		return fmt.Errorf("forward tweet %s: %w", env.Data.ID, err)
	}
	return nil
}

// ForwardText formats the Telegram message for a tweet.
func ForwardText(t twitter.Tweet) string {
	if handle := t.AuthorHandle(); handle != "" {
		return fmt.Sprintf("New post from @%s: %s", handle, t.Text)
	}
	return "New post: " + t.Text
}
