// Package telegram connects the conversation engine to a Telegram bot using
// long polling. Only one Telegram user is served.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/telegrana/internal/config"
	"github.com/dvloznov/telegrana/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Conversation is implemented by conversation.Engine.
type Conversation interface {
	Handle(ctx context.Context, sessionID, text string) string
	Reset(ctx context.Context, sessionID string) string
}

// Sender sends one outgoing message.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot reads updates and answers the allowed user.
type Bot struct {
	api           *tgbotapi.BotAPI
	sender        Sender
	conv          Conversation
	allowedUserID int64
	pollTimeout   int
}

// New authenticates with Telegram.
func New(cfg config.TelegramConfig, conv Conversation) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("New: bot api: %w", err)
	}
	api.Debug = cfg.Debug

	b := newBot(api, conv, cfg.AllowedUserID)
	b.api = api
	b.pollTimeout = cfg.PollTimeout
	return b, nil
}

func newBot(sender Sender, conv Conversation, allowedUserID int64) *Bot {
	return &Bot{
		sender:        sender,
		conv:          conv,
		allowedUserID: allowedUserID,
		pollTimeout:   60,
	}
}

// Run polls for updates until ctx is cancelled. Updates are handled one at a
// time in arrival order.
func (b *Bot) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info().Str("bot", b.api.Self.UserName).Msg("Telegram bot started")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info().Msg("Telegram bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("Run: updates channel closed")
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers a single update. Updates from anyone but the allowed
// user are dropped without a reply.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	log := logger.FromContext(ctx)
	if msg.From == nil || msg.From.ID != b.allowedUserID {
		var from int64
		if msg.From != nil {
			from = msg.From.ID
		}
		log.Warn().Int64("user_id", from).Msg("Ignoring message from unauthorized user")
		return
	}

	sessionID := strconv.FormatInt(msg.Chat.ID, 10)

	var reply tgbotapi.MessageConfig
	if msg.IsCommand() && msg.Command() == "start" {
		reply = tgbotapi.NewMessage(msg.Chat.ID, b.conv.Reset(ctx, sessionID))
	} else {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			text = strings.TrimSpace(msg.Caption)
		}
		reply = tgbotapi.NewMessage(msg.Chat.ID, b.conv.Handle(ctx, sessionID, text))
	}

	if _, err := b.sender.Send(reply); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send reply")
	}
}
