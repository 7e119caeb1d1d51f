// Package broadcast fans order events out to connected kitchen-dashboard
// sessions. Delivery is best effort: there is no ack, and a slow subscriber
// drops events rather than blocking the publisher.
package broadcast

import (
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/entity"
)

// Event is one push to the kitchen dashboards.
type Event struct {
	Type    string         `json:"type"`
	OrderID int64          `json:"order_id"`
	Status  string         `json:"status"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

const (
	// EventNewOrder announces a finalized order, now actionable by the kitchen.
	EventNewOrder = "new_order"
	// EventOrderUpdate announces a change on an order still awaiting
	// confirmation; dashboards must not treat it as actionable yet.
	EventOrderUpdate = "order_update"
)

const subscriberBuffer = 16

// Module provides the kitchen hub to Fx.
var Module = fx.Provide(NewHub)

// Hub is an in-process pub/sub fan-out for kitchen sessions.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	logger *zap.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new session and returns its event channel plus a
// cancel function. The channel is closed on cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports the number of connected sessions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// BroadcastNewOrder pushes a finalized order summary to every session.
func (h *Hub) BroadcastNewOrder(order *entity.Order) {
	if order == nil {
		return
	}
	h.publish(Event{
		Type:    EventNewOrder,
		OrderID: order.ID,
		Status:  string(order.Status),
		At:      time.Now().UTC(),
		Payload: map[string]any{
			"number":        order.Number,
			"customer_name": order.CustomerName,
			"total":         order.Total,
			"item_count":    len(order.Items),
		},
	})
}

// BroadcastOrderUpdate pushes a non-actionable update for an order still in
// its grace period.
func (h *Hub) BroadcastOrderUpdate(orderID int64, status entity.OrderStatus, metadata map[string]any) {
	h.publish(Event{
		Type:    EventOrderUpdate,
		OrderID: orderID,
		Status:  string(status),
		At:      time.Now().UTC(),
		Payload: metadata,
	})
}

func (h *Hub) publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			if h.logger != nil {
				h.logger.Warn("kitchen subscriber lagging; event dropped",
					zap.String("type", event.Type),
					zap.Int64("order_id", event.OrderID),
				)
			}
		}
	}
}
