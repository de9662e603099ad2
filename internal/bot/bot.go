package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"price_bot/internal/scraper"
	"price_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that handles user commands and delivers price
// alerts on behalf of the monitoring engine.
type Bot struct {
	api     telegramAPI
	store   storage.Storage
	scraper *scraper.Scraper
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and scraper.
func New(token string, store storage.Storage, scr *scraper.Scraper, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:     api,
		store:   store,
		scraper: scr,
		log:     log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// Deliver sends a notification message to the given user. It is the
// engine-facing delivery hook; unlike SendMessage, failures propagate so the
// engine can account for undelivered alerts.
func (b *Bot) Deliver(userTID int64, text string) error {
	msg := tgbotapi.NewMessage(userTID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", userTID, err)
	}
	return nil
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "auth":
		b.handleAuth(ctx, msg)
	case "track":
		b.handleTrack(ctx, msg.From.ID, chatID, args)
	case "list":
		b.handleList(ctx, msg.From.ID, chatID)
	case "untrack":
		b.handleUntrack(ctx, msg.From.ID, chatID, args)
	case "threshold":
		b.handleThreshold(ctx, msg.From.ID, chatID, args)
	case "history":
		b.handleHistory(ctx, msg.From.ID, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
