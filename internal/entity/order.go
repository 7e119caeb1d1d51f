package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order represents one customer purchase stored in the relational database.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64       `bun:",pk,autoincrement" json:"id"`
	Number          string      `bun:"number" json:"number"`
	CustomerID      string      `bun:"customer_id" json:"customer_id"`
	CustomerName    string      `bun:"customer_name" json:"customer_name"`
	CustomerPhone   string      `bun:"customer_phone" json:"customer_phone"`
	CustomerEmail   string      `bun:"customer_email" json:"customer_email"`
	DeliveryAddress string      `bun:"delivery_address" json:"delivery_address"`
	Status          OrderStatus `bun:"status" json:"status"`

	Subtotal    float64 `bun:"subtotal" json:"subtotal"`
	Tax         float64 `bun:"tax" json:"tax"`
	DeliveryFee float64 `bun:"delivery_fee" json:"delivery_fee"`
	Discount    float64 `bun:"discount" json:"discount"`
	Total       float64 `bun:"total" json:"total"`

	// ModificationCount tracks grace-period edits; the first edit sets the
	// initial window, later ones extend it.
	ModificationCount int        `bun:"modification_count" json:"modification_count"`
	GraceExpiresAt    *time.Time `bun:"grace_expires_at,nullzero" json:"grace_expires_at,omitempty"`
	EstimatedReadyAt  *time.Time `bun:"estimated_ready_at,nullzero" json:"estimated_ready_at,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items"`
}

// Modifiable reports whether the order may still be edited at the given
// instant: the status must be PENDING_CONFIRMATION and the grace timer, when
// set, must not have elapsed.
func (o *Order) Modifiable(at time.Time) bool {
	if o.Status != StatusPendingConfirmation {
		return false
	}
	if o.GraceExpiresAt != nil && at.After(*o.GraceExpiresAt) {
		return false
	}
	return true
}

// GraceRemaining returns how long the modification window has left at the
// given instant, zero when no window is running or it has elapsed.
func (o *Order) GraceRemaining(at time.Time) time.Duration {
	if o.Status != StatusPendingConfirmation || o.GraceExpiresAt == nil {
		return 0
	}
	if remaining := o.GraceExpiresAt.Sub(at); remaining > 0 {
		return remaining
	}
	return 0
}

// OrderItem is one line item within an order. Price and subtotal are
// denormalized at modification time; items are replaced wholesale on each
// modification, never diffed.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID           int64   `bun:",pk,autoincrement" json:"id"`
	OrderID      int64   `bun:"order_id" json:"order_id"`
	MenuItemID   int64   `bun:"menu_item_id" json:"menu_item_id"`
	Name         string  `bun:"name" json:"name"`
	Quantity     int     `bun:"quantity" json:"quantity"`
	UnitPrice    float64 `bun:"unit_price" json:"unit_price"`
	Subtotal     float64 `bun:"subtotal" json:"subtotal"`
	Instructions string  `bun:"instructions" json:"instructions,omitempty"`
}
