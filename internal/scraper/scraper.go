package scraper

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"price_bot/internal/catalog"
	"price_bot/internal/model"
)

// ErrNotFound means the product page could not be scraped into a usable
// record. Session and navigation failures degrade to this error rather than
// propagating to the caller.
var ErrNotFound = errors.New("product not found")

// Scraper produces fully-populated product records from a bare SKU or URL.
type Scraper struct {
	sessions  SessionFactory
	extractor *Extractor
	retries   int
	log       *slog.Logger
}

// New creates a Scraper. retries is the number of additional full extraction
// passes taken while any field is still unresolved.
func New(sessions SessionFactory, extractor *Extractor, retries int, log *slog.Logger) *Scraper {
	if retries < 1 {
		retries = DefaultRetries
	}
	return &Scraper{
		sessions:  sessions,
		extractor: extractor,
		retries:   retries,
		log:       log,
	}
}

// fieldSet accumulates the first non-absent value seen per field across
// repeated extraction passes. Resolved slots are never overwritten.
type fieldSet struct {
	name   *string
	seller *string
	price  *int
}

func (f *fieldSet) complete() bool {
	return f.name != nil && f.seller != nil && f.price != nil
}

// Scrape resolves a product reference and extracts its name, seller, and
// price. Exactly one of sku/url must be set; violating that returns
// catalog.ErrInvalidReference without any network access.
//
// Field failures are independent (a seller selector may be more volatile
// than a price one), so an incomplete first pass is followed by whole-page
// repeats that fill only the still-missing slots. Price is mandatory; name
// and seller fall back to the empty string.
func (s *Scraper) Scrape(ctx context.Context, sku, url string) (*model.Product, error) {
	ref, err := catalog.Canonicalize(sku, url)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.OpenSession(ctx)
	if err != nil {
		s.log.Error("open scrape session", "url", ref.URL, "error", err)
		return nil, ErrNotFound
	}
	defer sess.Close()

	var fields fieldSet
	s.extractInto(ctx, sess, ref.URL, &fields)
	for i := 0; i < s.retries && !fields.complete(); i++ {
		s.extractInto(ctx, sess, ref.URL, &fields)
	}

	if fields.price == nil {
		return nil, ErrNotFound
	}

	name, seller := "", ""
	if fields.name != nil {
		name = *fields.name
	}
	if fields.seller != nil {
		seller = *fields.seller
	}

	return &model.Product{
		SKU:    ref.SKU,
		URL:    ref.URL,
		Name:   name,
		Price:  strconv.Itoa(*fields.price),
		Seller: seller,
	}, nil
}

// extractInto runs one full three-field pass, filling only unresolved slots.
func (s *Scraper) extractInto(ctx context.Context, sess Session, url string, fields *fieldSet) {
	if err := sess.Visit(ctx, url); err != nil {
		s.log.Error("visit product page", "url", url, "error", err)
		return
	}
	if fields.name == nil {
		if v, ok := s.extractor.ExtractField(ctx, sess, "Name", NameSelectors); ok {
			fields.name = &v
		}
	}
	if fields.seller == nil {
		if v, ok := s.extractor.ExtractField(ctx, sess, "Seller", SellerSelectors); ok {
			fields.seller = &v
		}
	}
	if fields.price == nil {
		if v, ok := s.extractor.ExtractPrice(ctx, sess); ok {
			fields.price = &v
		}
	}
}
