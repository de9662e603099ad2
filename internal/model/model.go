// Package model defines the domain types used across the application.
package model

import "time"

// Product is a catalog item whose price is being monitored.
// The SKU is the remote catalog's stable identity; ID is assigned by
// persistence on first insert. Price is kept as a decimal string to avoid
// floating-point artifacts from the source currency format.
type Product struct {
	ID     int64
	SKU    string
	URL    string
	Name   string
	Price  string
	Seller string
}

// Tracking links a user to a product with an optional alert threshold.
// At most one tracking exists per (user, product) pair; re-saving
// overwrites the threshold.
type Tracking struct {
	UserTID   int64
	ProductID int64
	Threshold *string
	CreatedAt time.Time
}

// TrackedProduct is a product together with one user's alert threshold.
type TrackedProduct struct {
	Product
	Threshold *string
}

// PriceObservation is one immutable point of a product's price history.
type PriceObservation struct {
	ProductID  int64
	Price      string
	ObservedAt time.Time
}

// User is a Telegram identity known to the bot. The engine only reads
// users to address notifications.
type User struct {
	TID      int64
	Name     string
	Username string
	AvatarID *string
}
