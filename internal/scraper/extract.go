package scraper

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Selector candidates for each product field, most recent markup first.
// The remote page rotates class names across deployments; new variants go at
// the front of these lists and the retry engine stays untouched.
var (
	NameSelectors = []string{".m2q_28", ".m1q_28", ".m3q_28"}

	SellerSelectors = []string{
		".tsCompactControl500Medium > span:nth-child(1)",
		"div.tsCompactControl500Medium > span:nth-child(1)",
		".m5p_28",
		".y6k_28 > div:nth-child(2) > div:nth-child(2) > div:nth-child(1) > div:nth-child(1) > a:nth-child(1)",
	}

	PriceSelectors = []string{".m6p_28", ".m5p_28", "div.m5p_28"}
)

// Default extraction budget: attempts per field and the pause between them.
const (
	DefaultRetries  = 3
	DefaultCooldown = time.Second
)

// thousandsSep is the thin space the remote locale uses to group digits.
const thousandsSep = "\u2009"

var errFieldNotFound = errors.New("no selector matched")

// Extractor retrieves field text from a live page session despite the page's
// markup being unstable. Exhausting the budget yields absence, never an error.
type Extractor struct {
	retries      int
	cooldown     time.Duration
	keepFailures bool
	log          *slog.Logger
}

// NewExtractor creates an Extractor with the given attempt budget. When
// keepFailures is set, a page snapshot is saved after every fully failed
// attempt.
func NewExtractor(retries int, cooldown time.Duration, keepFailures bool, log *slog.Logger) *Extractor {
	if retries < 1 {
		retries = DefaultRetries
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Extractor{
		retries:      retries,
		cooldown:     cooldown,
		keepFailures: keepFailures,
		log:          log,
	}
}

// ExtractField probes the ordered selector candidates for up to the attempt
// budget. The first non-empty match wins and short-circuits the remaining
// selectors and attempts. A fully failed attempt optionally snapshots the
// page, then waits one cooldown before the next pass.
func (e *Extractor) ExtractField(ctx context.Context, sess Session, field string, selectors []string) (string, bool) {
	backoff := retry.WithMaxRetries(uint64(e.retries-1), retry.NewConstant(e.cooldown))

	var text string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		for _, sel := range selectors {
			if t, ok := sess.ProbeText(sel); ok {
				text = t
				return nil
			}
		}
		if e.keepFailures {
			if err := sess.SaveSnapshot("failure" + field); err != nil {
				e.log.Warn("save failure snapshot", "field", field, "error", err)
			}
		}
		return retry.RetryableError(errFieldNotFound)
	})
	if err != nil {
		return "", false
	}
	return text, true
}

// ExtractPrice retrieves the price field and parses its numeric value.
// An unparseable match is absence, the same as a missing selector match.
func (e *Extractor) ExtractPrice(ctx context.Context, sess Session) (int, bool) {
	text, ok := e.ExtractField(ctx, sess, "Price", PriceSelectors)
	if !ok {
		return 0, false
	}
	return ParsePrice(text)
}

// ParsePrice turns the page's price text into an integer amount. The text
// carries a trailing currency glyph and thin-space thousands separators, so
// "1 999₽" parses to 1999.
func ParsePrice(text string) (int, bool) {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return 0, false
	}
	runes = runes[:len(runes)-1] // trailing currency glyph

	cleaned := strings.ReplaceAll(string(runes), thousandsSep, "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	return n, true
}
