package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/messaging"
	"github.com/techbantu/gharse/internal/notification"
	ordersvc "github.com/techbantu/gharse/internal/service/order"
	"github.com/techbantu/gharse/internal/worker"
)

var workerTracer = otel.Tracer("github.com/techbantu/gharse/worker/order")

// Module registers the order event handlers and the grace-window sweeper.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderCreatedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
		fx.Annotate(
			NewOrderFinalizedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
		NewSweeper,
	),
	fx.Invoke(func(lc fx.Lifecycle, s *Sweeper) {
		lc.Append(fx.Hook{
			OnStart: s.start,
			OnStop:  s.stop,
		})
	}),
)

func decodeEvent(msg messaging.Message) (ordersvc.OrderEvent, error) {
	var event ordersvc.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return ordersvc.OrderEvent{}, fmt.Errorf("decode %s event: %w", msg.Event, err)
	}
	return event, nil
}

// NewOrderCreatedHandler audit-logs new orders. Creation does not notify the
// customer; the order only becomes final when its grace window closes.
func NewOrderCreatedHandler(logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.created", trace.WithAttributes(
			attribute.String("messaging.event", msg.Event),
		))
		defer span.End()

		event, err := decodeEvent(msg)
		if err != nil {
			logger.Error("failed to decode order created", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		logger.Info("order placed",
			zap.Int64("id", event.ID),
			zap.String("number", event.Number),
			zap.Float64("total", event.Total),
			zap.Int("items", event.ItemCount),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Event:   ordersvc.EventOrderCreated,
		Handler: handler,
	}
}

// NewOrderFinalizedHandler turns a finalized order into the customer "order
// received" notification. A send failure propagates so the message is
// redelivered and retried.
func NewOrderFinalizedHandler(logger *zap.Logger, sender notification.Sender) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.finalized", trace.WithAttributes(
			attribute.String("messaging.event", msg.Event),
		))
		defer span.End()

		event, err := decodeEvent(msg)
		if err != nil {
			logger.Error("failed to decode order finalized", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		note := notification.StatusNote{
			OrderID:     event.ID,
			OrderNumber: event.Number,
			Customer:    event.CustomerName,
			Phone:       event.CustomerPhone,
			Email:       event.CustomerEmail,
			Tag:         notification.TagReceived,
			Message:     fmt.Sprintf("Your order %s has been received and sent to the kitchen.", event.Number),
			Channels:    event.Channels,
			At:          event.At,
		}
		if err := sender.SendStatusUpdate(ctx, note); err != nil {
			logger.Error("order received notification failed",
				zap.Int64("order_id", event.ID),
				zap.Error(err),
			)

			span.RecordError(err)
			span.SetStatus(codes.Error, "notification error")
			return err
		}

		logger.Info("order received notification sent",
			zap.Int64("order_id", event.ID),
			zap.String("number", event.Number),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Event:   ordersvc.EventOrderFinalized,
		Handler: handler,
	}
}
