// Package pricing recomputes order totals. Totals are always derived from
// scratch over the full item set, never patched incrementally.
package pricing

import (
	"math"

	"github.com/techbantu/gharse/internal/entity"
)

// Breakdown is a full pricing snapshot for an order.
type Breakdown struct {
	Subtotal    float64
	Tax         float64
	DeliveryFee float64
	Discount    float64
	Total       float64
}

// Quote prices the given items: subtotal is the sum of quantity times unit
// price, tax applies the configured rate to the subtotal, and the total adds
// the flat delivery fee and subtracts any existing discount. All amounts are
// rounded to two decimals.
func Quote(items []*entity.OrderItem, taxRate, deliveryFee, discount float64) Breakdown {
	var subtotal float64
	for _, item := range items {
		if item == nil || item.Quantity <= 0 {
			continue
		}
		subtotal += float64(item.Quantity) * item.UnitPrice
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal * taxRate)

	return Breakdown{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		Total:       round2(subtotal + tax + deliveryFee - discount),
	}
}

// Apply copies the breakdown onto the order's pricing snapshot.
func (b Breakdown) Apply(order *entity.Order) {
	order.Subtotal = b.Subtotal
	order.Tax = b.Tax
	order.DeliveryFee = b.DeliveryFee
	order.Discount = b.Discount
	order.Total = b.Total
}

// Line prices a single order line, rounded to two decimals.
func Line(quantity int, unitPrice float64) float64 {
	if quantity <= 0 {
		return 0
	}
	return round2(float64(quantity) * unitPrice)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
