package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techbantu/gharse/internal/entity"
)

func TestQuote(t *testing.T) {
	items := []*entity.OrderItem{
		{Quantity: 2, UnitPrice: 100},
		{Quantity: 1, UnitPrice: 50},
	}

	b := Quote(items, 0.05, 50, 0)

	assert.Equal(t, 250.0, b.Subtotal)
	assert.Equal(t, 12.5, b.Tax)
	assert.Equal(t, 312.5, b.Total)
	assert.Equal(t, b.Subtotal+b.Tax+b.DeliveryFee-b.Discount, b.Total)
}

func TestQuoteSkipsZeroQuantityAndNil(t *testing.T) {
	items := []*entity.OrderItem{
		{Quantity: 0, UnitPrice: 999},
		nil,
		{Quantity: 3, UnitPrice: 80},
	}

	b := Quote(items, 0.05, 50, 20)

	assert.Equal(t, 240.0, b.Subtotal)
	assert.Equal(t, 12.0, b.Tax)
	assert.Equal(t, 20.0, b.Discount)
	assert.Equal(t, 282.0, b.Total)
}

func TestQuoteRounding(t *testing.T) {
	items := []*entity.OrderItem{{Quantity: 3, UnitPrice: 33.33}}

	b := Quote(items, 0.05, 0, 0)

	assert.Equal(t, 99.99, b.Subtotal)
	assert.Equal(t, 5.0, b.Tax)
	assert.Equal(t, 104.99, b.Total)
}

func TestApply(t *testing.T) {
	order := &entity.Order{}
	b := Breakdown{Subtotal: 250, Tax: 12.5, DeliveryFee: 50, Discount: 0, Total: 312.5}
	b.Apply(order)

	assert.Equal(t, 250.0, order.Subtotal)
	assert.Equal(t, 12.5, order.Tax)
	assert.Equal(t, 50.0, order.DeliveryFee)
	assert.Equal(t, 312.5, order.Total)
}
