// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"price_bot/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	UpsertProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProducts(ctx context.Context, products []model.Product) error

	AddPriceHistory(ctx context.Context, productIDs []int64, at time.Time) error
	PriceHistory(ctx context.Context, productID int64) ([]model.PriceObservation, error)

	SaveTracking(ctx context.Context, t *model.Tracking) error
	DeleteTracking(ctx context.Context, userTID, productID int64) error
	ListTracked(ctx context.Context, userTID int64) ([]model.TrackedProduct, error)
	UsersByProducts(ctx context.Context, productIDs []int64) (map[int64][]model.TrackedProduct, error)

	SaveUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, tid int64) (*model.User, error)

	Close() error
}
