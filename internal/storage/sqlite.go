package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"price_bot/internal/model"
	"price_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertProduct inserts a product or, when its SKU (or canonical URL for
// products without an embedded SKU) is already known, updates the existing
// row. The product's ID is populated either way.
func (s *SQLite) UpsertProduct(ctx context.Context, p *model.Product) error {
	var (
		id  int64
		err error
	)
	if p.SKU != "" {
		err = s.db.QueryRowContext(ctx, `SELECT id FROM products WHERE sku = ?`, p.SKU).Scan(&id)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT id FROM products WHERE url = ?`, p.URL).Scan(&id)
	}

	switch {
	case err == nil:
		p.ID = id
		return s.updateProduct(ctx, p)
	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO products (sku, url, name, price, seller) VALUES (?, ?, ?, ?, ?)`,
			nullIfEmpty(p.SKU), p.URL, p.Name, p.Price, p.Seller,
		)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		p.ID = id
		return nil
	default:
		return fmt.Errorf("lookup product: %w", err)
	}
}

// GetProduct returns a single product by its ID.
func (s *SQLite) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, sku, url, name, price, seller FROM products WHERE id = ?`, id,
	)
	return scanProduct(row)
}

// ListProducts returns every tracked product.
func (s *SQLite) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sku, url, name, price, seller FROM products ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanProducts(rows)
}

// UpdateProducts writes the given products back. A failed row does not stop
// the remaining writes; the errors are aggregated.
func (s *SQLite) UpdateProducts(ctx context.Context, products []model.Product) error {
	var errs error
	for i := range products {
		if err := s.updateProduct(ctx, &products[i]); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (s *SQLite) updateProduct(ctx context.Context, p *model.Product) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE products SET sku = ?, url = ?, name = ?, price = ?, seller = ? WHERE id = ?`,
		nullIfEmpty(p.SKU), p.URL, p.Name, p.Price, p.Seller, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return nil
}

// AddPriceHistory appends one observation per product at the given
// timestamp, recording each product's currently stored price.
func (s *SQLite) AddPriceHistory(ctx context.Context, productIDs []int64, at time.Time) error {
	if len(productIDs) == 0 {
		return nil
	}
	query := `INSERT INTO price_history (product_id, price, observed_at)
		 SELECT id, price, ? FROM products WHERE id IN (` + placeholders(len(productIDs)) + `)`
	args := make([]any, 0, len(productIDs)+1)
	args = append(args, at.UTC().Format(timeLayout))
	for _, id := range productIDs {
		args = append(args, id)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append price history: %w", err)
	}
	return nil
}

// PriceHistory returns a product's observations, oldest first.
func (s *SQLite) PriceHistory(ctx context.Context, productID int64) ([]model.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, price, observed_at FROM price_history
		 WHERE product_id = ? ORDER BY observed_at, id`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []model.PriceObservation
	for rows.Next() {
		var (
			obs model.PriceObservation
			at  string
		)
		if err := rows.Scan(&obs.ProductID, &obs.Price, &at); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs.ObservedAt, _ = time.Parse(timeLayout, at)
		history = append(history, obs)
	}
	return history, rows.Err()
}

// SaveTracking creates a tracking or overwrites the threshold of an
// existing (user, product) pair.
func (s *SQLite) SaveTracking(ctx context.Context, t *model.Tracking) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trackings (user_tid, product_id, threshold, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_tid, product_id) DO UPDATE SET threshold = excluded.threshold`,
		t.UserTID, t.ProductID, t.Threshold, now,
	)
	if err != nil {
		return fmt.Errorf("save tracking: %w", err)
	}
	t.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// DeleteTracking removes one user's tracking of one product.
func (s *SQLite) DeleteTracking(ctx context.Context, userTID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM trackings WHERE user_tid = ? AND product_id = ?`, userTID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete tracking: %w", err)
	}
	return nil
}

// ListTracked returns the products a user tracks, with their thresholds.
func (s *SQLite) ListTracked(ctx context.Context, userTID int64) ([]model.TrackedProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.sku, p.url, p.name, p.price, p.seller, t.threshold
		 FROM trackings t JOIN products p ON p.id = t.product_id
		 WHERE t.user_tid = ? ORDER BY p.id`, userTID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tracked products: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTrackedProducts(rows)
}

// UsersByProducts returns the reverse subscription index for the given
// products: every user tracking at least one of them, mapped to the tracked
// subset with per-user thresholds.
func (s *SQLite) UsersByProducts(ctx context.Context, productIDs []int64) (map[int64][]model.TrackedProduct, error) {
	if len(productIDs) == 0 {
		return map[int64][]model.TrackedProduct{}, nil
	}
	query := `SELECT t.user_tid, p.id, p.sku, p.url, p.name, p.price, p.seller, t.threshold
		 FROM trackings t JOIN products p ON p.id = t.product_id
		 WHERE t.product_id IN (` + placeholders(len(productIDs)) + `) ORDER BY t.user_tid, p.id`
	args := make([]any, len(productIDs))
	for i, id := range productIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users by products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[int64][]model.TrackedProduct)
	for rows.Next() {
		var (
			userTID int64
			tp      model.TrackedProduct
			sku     sql.NullString
		)
		err := rows.Scan(&userTID, &tp.ID, &sku, &tp.URL, &tp.Name, &tp.Price, &tp.Seller, &tp.Threshold)
		if err != nil {
			return nil, fmt.Errorf("scan tracked product: %w", err)
		}
		tp.SKU = sku.String
		result[userTID] = append(result[userTID], tp)
	}
	return result, rows.Err()
}

// SaveUser inserts or refreshes a Telegram user's profile.
func (s *SQLite) SaveUser(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (tid, name, username, avatar_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(tid) DO UPDATE SET name = excluded.name, username = excluded.username,
		 avatar_id = excluded.avatar_id`,
		u.TID, u.Name, u.Username, u.AvatarID,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// GetUser returns a user by Telegram ID.
func (s *SQLite) GetUser(ctx context.Context, tid int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT tid, name, username, avatar_id FROM users WHERE tid = ?`, tid,
	).Scan(&u.TID, &u.Name, &u.Username, &u.AvatarID)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProduct(row scannable) (*model.Product, error) {
	var (
		p   model.Product
		sku sql.NullString
	)
	if err := row.Scan(&p.ID, &sku, &p.URL, &p.Name, &p.Price, &p.Seller); err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.SKU = sku.String
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func scanTrackedProducts(rows *sql.Rows) ([]model.TrackedProduct, error) {
	var tracked []model.TrackedProduct
	for rows.Next() {
		var (
			tp  model.TrackedProduct
			sku sql.NullString
		)
		err := rows.Scan(&tp.ID, &sku, &tp.URL, &tp.Name, &tp.Price, &tp.Seller, &tp.Threshold)
		if err != nil {
			return nil, fmt.Errorf("scan tracked product: %w", err)
		}
		tp.SKU = sku.String
		tracked = append(tracked, tp)
	}
	return tracked, rows.Err()
}
