// Package notification delivers customer-facing status updates through a
// pluggable gateway. It is only ever invoked from the event-bus worker, never
// from the request path, so a slow or failing gateway cannot delay an order
// modification.
package notification

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/config"
)

// StatusTag names the customer-facing meaning of an update. "received"
// (order accepted, in the kitchen queue) is distinct from "confirmed" (the
// kitchen has picked it up); conflating the two is a bug, not a nicety.
type StatusTag string

const (
	TagReceived  StatusTag = "received"
	TagConfirmed StatusTag = "confirmed"
	TagPreparing StatusTag = "preparing"
	TagReady     StatusTag = "ready"
	TagDelivered StatusTag = "delivered"
	TagCancelled StatusTag = "cancelled"
)

// StatusNote is one update to deliver to a customer.
type StatusNote struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Customer    string    `json:"customer"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Tag         StatusTag `json:"tag"`
	Message     string    `json:"message"`
	Channels    []string  `json:"channels"`
	At          time.Time `json:"at"`
}

// Sender pushes a status note to the notification gateway.
type Sender interface {
	SendStatusUpdate(ctx context.Context, note StatusNote) error
}

// Module provides the configured Sender to Fx.
var Module = fx.Provide(NewSender)

// NewSender selects a sender implementation from configuration.
func NewSender(cfg config.Config, logger *zap.Logger) (Sender, error) {
	switch cfg.Notification.Driver {
	case "noop":
		if logger != nil {
			logger.Info("notifications disabled; using noop sender")
		}
		return noopSender{logger: logger}, nil
	case "webhook":
		return newWebhookSender(cfg.Notification, logger), nil
	default:
		// config.New already validated the driver; keep the guard anyway.
		return noopSender{logger: logger}, nil
	}
}

type noopSender struct {
	logger *zap.Logger
}

func (n noopSender) SendStatusUpdate(_ context.Context, note StatusNote) error {
	if n.logger != nil {
		n.logger.Debug("notification suppressed",
			zap.Int64("order_id", note.OrderID),
			zap.String("tag", string(note.Tag)),
		)
	}
	return nil
}
