package dto

import (
	"time"

	"github.com/techbantu/gharse/internal/entity"
)

// OrderItemResponse is one order line as exposed over HTTP.
type OrderItemResponse struct {
	MenuItemID   int64   `json:"menu_item_id"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Subtotal     float64 `json:"subtotal"`
	Instructions string  `json:"instructions,omitempty"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                int64               `json:"id"`
	Number            string              `json:"number"`
	Status            string              `json:"status"`
	CustomerName      string              `json:"customer_name"`
	DeliveryAddress   string              `json:"delivery_address"`
	Subtotal          float64             `json:"subtotal"`
	Tax               float64             `json:"tax"`
	DeliveryFee       float64             `json:"delivery_fee"`
	Discount          float64             `json:"discount,omitempty"`
	Total             float64             `json:"total"`
	ModificationCount int                 `json:"modification_count"`
	GraceExpiresAt    *time.Time          `json:"grace_expires_at,omitempty"`
	EstimatedReadyAt  *time.Time          `json:"estimated_ready_at,omitempty"`
	Items             []OrderItemResponse `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// NewOrderResponse maps an order entity to its transport shape.
func NewOrderResponse(order *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			MenuItemID:   item.MenuItemID,
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Subtotal:     item.Subtotal,
			Instructions: item.Instructions,
		})
	}
	return OrderResponse{
		ID:                order.ID,
		Number:            order.Number,
		Status:            string(order.Status),
		CustomerName:      order.CustomerName,
		DeliveryAddress:   order.DeliveryAddress,
		Subtotal:          order.Subtotal,
		Tax:               order.Tax,
		DeliveryFee:       order.DeliveryFee,
		Discount:          order.Discount,
		Total:             order.Total,
		ModificationCount: order.ModificationCount,
		GraceExpiresAt:    order.GraceExpiresAt,
		EstimatedReadyAt:  order.EstimatedReadyAt,
		Items:             items,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

// ModifiabilityResponse answers "can this order still be edited".
type ModifiabilityResponse struct {
	Status            string `json:"status"`
	Modifiable        bool   `json:"modifiable"`
	RemainingMS       int64  `json:"remaining_ms"`
	ModificationCount int    `json:"modification_count"`
}
