package order

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/entity"
)

// Event names carried on the orders topic.
const (
	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventOrderFinalized = "order.finalized"
)

const publishTimeout = 5 * time.Second

// OrderEvent is the payload for every order lifecycle event. The worker
// consumes it to drive customer notifications, so it carries enough contact
// detail to address the customer without a database round trip.
type OrderEvent struct {
	ID                int64     `json:"id"`
	Number            string    `json:"number"`
	Status            string    `json:"status"`
	CustomerName      string    `json:"customer_name"`
	CustomerPhone     string    `json:"customer_phone,omitempty"`
	CustomerEmail     string    `json:"customer_email,omitempty"`
	Total             float64   `json:"total"`
	ItemCount         int       `json:"item_count"`
	ModificationCount int       `json:"modification_count"`
	Channels          []string  `json:"channels,omitempty"`
	At                time.Time `json:"at"`
}

func (s *Service) eventFor(order *entity.Order) OrderEvent {
	return OrderEvent{
		ID:                order.ID,
		Number:            order.Number,
		Status:            string(order.Status),
		CustomerName:      order.CustomerName,
		CustomerPhone:     order.CustomerPhone,
		CustomerEmail:     order.CustomerEmail,
		Total:             order.Total,
		ItemCount:         len(order.Items),
		ModificationCount: order.ModificationCount,
		Channels:          s.channels,
		At:                s.now().UTC(),
	}
}

// publishEvent emits an order event on the bus without blocking the caller.
// The order state change has already committed by the time this runs, so
// failures are logged and swallowed; the bus consumer retries on its side.
func (s *Service) publishEvent(event string, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil || order == nil {
		return
	}

	payload, err := json.Marshal(s.eventFor(order))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.String("event", event), zap.Error(err))
		}
		return
	}

	key := []byte(order.Number)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, event, key, payload); err != nil {
			if s.logger != nil {
				s.logger.Error("publish order event",
					zap.String("event", event),
					zap.Int64("order_id", order.ID),
					zap.Error(err),
				)
			}
		}
	}()
}
