package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"price_bot/internal/catalog"
	"price_bot/internal/model"
	"price_bot/internal/scraper"
)

// defaultThresholdRatio sets the initial alert threshold relative to the
// price observed when tracking starts.
const defaultThresholdRatio = 0.9

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Price Monitor Bot!

Track ozon.ru products and get notified when prices drop.

Quick start:
1. /auth — register to receive alerts
2. /track <url|sku> — start tracking a product
3. /list — show your tracked products

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Account:
/auth — register (required before tracking)

Tracking:
/track <url|sku> — track a product by page URL or SKU
/list — show all tracked products
/untrack <id> — stop tracking a product
/threshold <id> <price> — set your alert threshold
/history <id> — show recorded price history

Prices are re-checked periodically; you get one message per
cycle listing every tracked product whose price dropped.`)
}

func (b *Bot) handleAuth(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From
	if from == nil {
		return
	}

	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	u := &model.User{
		TID:      from.ID,
		Name:     name,
		Username: from.UserName,
	}
	if err := b.store.SaveUser(ctx, u); err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Failed to register: %v", err))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Registered as %s. Use /track <url|sku> to start tracking.", name))
}

func (b *Bot) handleTrack(ctx context.Context, userTID, chatID int64, args string) {
	if !b.requireUser(ctx, userTID, chatID) {
		return
	}

	sku, url, err := ParseReference(args)
	if err != nil {
		b.reply(chatID, "Usage: /track <url|sku>")
		return
	}

	p, err := b.scraper.Scrape(ctx, sku, url)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidReference):
			b.reply(chatID, "That does not look like a product URL or SKU.")
		case errors.Is(err, scraper.ErrNotFound):
			b.reply(chatID, "Product not found or its page could not be read.")
		default:
			b.reply(chatID, fmt.Sprintf("Failed to fetch product: %v", err))
		}
		return
	}

	if err := b.store.UpsertProduct(ctx, p); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save product: %v", err))
		return
	}

	threshold := defaultThreshold(p.Price)
	t := &model.Tracking{
		UserTID:   userTID,
		ProductID: p.ID,
		Threshold: &threshold,
	}
	if err := b.store.SaveTracking(ctx, t); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save tracking: %v", err))
		return
	}

	b.reply(chatID, "Now tracking:\n"+FormatProductInfo(p, threshold))
}

func (b *Bot) handleList(ctx context.Context, userTID, chatID int64) {
	if !b.requireUser(ctx, userTID, chatID) {
		return
	}

	tracked, err := b.store.ListTracked(ctx, userTID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatTrackedList(tracked))
}

func (b *Bot) handleUntrack(ctx context.Context, userTID, chatID int64, args string) {
	if !b.requireUser(ctx, userTID, chatID) {
		return
	}

	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /untrack <id>")
		return
	}

	tp, ok := b.findTracked(ctx, userTID, id)
	if !ok {
		b.reply(chatID, fmt.Sprintf("Product #%d is not in your list.", id))
		return
	}

	if err := b.store.DeleteTracking(ctx, userTID, id); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Stopped tracking #%d %s.", id, displayName(&tp.Product)))
}

func (b *Bot) handleThreshold(ctx context.Context, userTID, chatID int64, args string) {
	if !b.requireUser(ctx, userTID, chatID) {
		return
	}

	id, threshold, err := ParseThresholdArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	if _, ok := b.findTracked(ctx, userTID, id); !ok {
		b.reply(chatID, fmt.Sprintf("Product #%d is not in your list.", id))
		return
	}

	t := &model.Tracking{
		UserTID:   userTID,
		ProductID: id,
		Threshold: &threshold,
	}
	if err := b.store.SaveTracking(ctx, t); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Threshold for #%d set to %s ₽.", id, threshold))
}

func (b *Bot) handleHistory(ctx context.Context, userTID, chatID int64, args string) {
	if !b.requireUser(ctx, userTID, chatID) {
		return
	}

	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /history <id>")
		return
	}

	tp, ok := b.findTracked(ctx, userTID, id)
	if !ok {
		b.reply(chatID, fmt.Sprintf("Product #%d is not in your list.", id))
		return
	}

	history, err := b.store.PriceHistory(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatHistory(&tp.Product, history))
}

// requireUser checks that the sender has registered via /auth.
func (b *Bot) requireUser(ctx context.Context, userTID, chatID int64) bool {
	if _, err := b.store.GetUser(ctx, userTID); err != nil {
		b.reply(chatID, "You are not registered yet. Use /auth first.")
		return false
	}
	return true
}

// findTracked returns the user's tracking entry for a product, enforcing
// that users can only act on products from their own list.
func (b *Bot) findTracked(ctx context.Context, userTID, productID int64) (model.TrackedProduct, bool) {
	tracked, err := b.store.ListTracked(ctx, userTID)
	if err != nil {
		return model.TrackedProduct{}, false
	}
	for _, tp := range tracked {
		if tp.ID == productID {
			return tp, true
		}
	}
	return model.TrackedProduct{}, false
}

// defaultThreshold derives the initial alert threshold from the price seen
// at track time, rounded to kopeck precision.
func defaultThreshold(price string) string {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return price
	}
	v := math.Round(p*defaultThresholdRatio*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64)
}
