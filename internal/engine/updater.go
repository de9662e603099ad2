// Package engine implements the periodic price monitoring cycle: re-pricing
// every tracked product, recording history, and fanning out grouped
// notifications to subscribers.
package engine

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"price_bot/internal/model"
	"price_bot/internal/scraper"
	"price_bot/internal/storage"
)

// Notifier delivers a notification message to one user.
type Notifier interface {
	Deliver(userTID int64, text string) error
}

// CycleReport summarizes one run of the batch price updater.
type CycleReport struct {
	Examined int // products fetched from persistence
	Repriced int // products whose price was successfully re-extracted
	Changed  int // products whose price move met the notification condition
	Notified int // users that received a message
	Failed   int // products skipped due to scrape failure
}

// Updater is the batch price updater. One call to RunCycle re-prices every
// tracked product inside a single shared page session.
type Updater struct {
	store     storage.Storage
	sessions  scraper.SessionFactory
	extractor *scraper.Extractor
	notifier  Notifier
	log       *slog.Logger
	now       func() time.Time
}

// New creates an Updater.
func New(store storage.Storage, sessions scraper.SessionFactory, extractor *scraper.Extractor, notifier Notifier, log *slog.Logger) *Updater {
	return &Updater{
		store:     store,
		sessions:  sessions,
		extractor: extractor,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// PriceDropped reports whether a move from old to new is worth notifying
// subscribers about. The business rule is to alert on price drops only; the
// comparison lives here, named and alone, so the direction is a one-line
// change.
func PriceDropped(old, new float64) bool {
	return new < old
}

// RunCycle executes one Fetch -> Scrape-All -> Diff -> Persist -> Notify
// pass. Individual product failures are skipped; only a session-open failure
// ends the cycle early, in which case every product is treated as unchanged
// and nothing is written or delivered.
func (u *Updater) RunCycle(ctx context.Context) CycleReport {
	var report CycleReport

	products, err := u.store.ListProducts(ctx)
	if err != nil {
		u.log.Error("list products", "error", err)
		return report
	}
	report.Examined = len(products)
	if len(products) == 0 {
		return report
	}

	sess, err := u.sessions.OpenSession(ctx)
	if err != nil {
		u.log.Error("open batch scrape session", "error", err)
		return report
	}
	defer sess.Close()

	var (
		repriced []model.Product
		changed  []model.Product
	)
	for i := range products {
		if ctx.Err() != nil {
			break
		}
		p := products[i]

		if err := sess.Visit(ctx, p.URL); err != nil {
			u.log.Error("visit product page", "product_id", p.ID, "url", p.URL, "error", err)
			report.Failed++
			continue
		}

		newPrice, ok := u.extractor.ExtractPrice(ctx, sess)
		if !ok {
			u.log.Warn("price extraction failed, skipping", "product_id", p.ID, "url", p.URL)
			report.Failed++
			continue
		}

		oldPrice, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			u.log.Warn("stored price unparseable, treating as unchanged", "product_id", p.ID, "price", p.Price)
			oldPrice = float64(newPrice)
		}

		p.Price = strconv.Itoa(newPrice)
		repriced = append(repriced, p)
		if PriceDropped(oldPrice, float64(newPrice)) {
			changed = append(changed, p)
		}
	}

	report.Repriced = len(repriced)
	report.Changed = len(changed)

	if len(repriced) > 0 {
		if err := u.store.UpdateProducts(ctx, repriced); err != nil {
			u.log.Error("update products", "error", err)
		}
		// History is a time series, not a diff log: every re-priced product
		// gets an observation, changed or not.
		ids := productIDs(repriced)
		if err := u.store.AddPriceHistory(ctx, ids, u.now().UTC()); err != nil {
			u.log.Error("append price history", "error", err)
		}
	}

	report.Notified = u.fanOut(ctx, changed)

	u.log.Info("cycle complete",
		"examined", report.Examined,
		"repriced", report.Repriced,
		"changed", report.Changed,
		"notified", report.Notified,
		"failed", report.Failed,
	)
	return report
}

// fanOut maps the changed-set onto its subscribers and delivers one grouped
// message per user. Returns the number of users notified.
func (u *Updater) fanOut(ctx context.Context, changed []model.Product) int {
	if len(changed) == 0 {
		return 0
	}

	byUser, err := u.store.UsersByProducts(ctx, productIDs(changed))
	if err != nil {
		u.log.Error("resolve subscribers", "error", err)
		return 0
	}

	notified := 0
	for userTID, tracked := range byUser {
		items := dedupeByID(tracked)
		if len(items) == 0 {
			continue
		}
		if err := u.notifier.Deliver(userTID, FormatAlert(items)); err != nil {
			u.log.Error("deliver notification", "user_tid", userTID, "error", err)
			continue
		}
		notified++
	}
	return notified
}

func productIDs(products []model.Product) []int64 {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

// dedupeByID keeps each product once, preserving order.
func dedupeByID(tracked []model.TrackedProduct) []model.TrackedProduct {
	seen := make(map[int64]bool, len(tracked))
	out := tracked[:0:0]
	for _, tp := range tracked {
		if seen[tp.ID] {
			continue
		}
		seen[tp.ID] = true
		out = append(out, tp)
	}
	return out
}
