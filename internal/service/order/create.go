package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/entity"
	"github.com/techbantu/gharse/internal/pricing"
	repo "github.com/techbantu/gharse/internal/repository/order"
	"github.com/techbantu/gharse/pkg/errorbank"
)

// CreateItemInput is one requested line in a new order.
type CreateItemInput struct {
	MenuItemID   int64  `json:"menu_item_id"`
	Quantity     int    `json:"quantity"`
	Instructions string `json:"instructions,omitempty"`
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	CustomerID      string            `json:"customer_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerEmail   string            `json:"customer_email"`
	DeliveryAddress string            `json:"delivery_address"`
	Discount        float64           `json:"discount"`
	Items           []CreateItemInput `json:"items"`
}

// Create places a new order: prices it against the catalog, enforces the
// minimum subtotal, and persists the order together with the ingredient
// stock decrement in one transaction. New orders always start in
// PENDING_CONFIRMATION with no grace timer; the first modification
// establishes the window.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create")
	defer span.End()

	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(in.Items))
	for _, item := range in.Items {
		ids = append(ids, item.MenuItemID)
	}
	menu, err := s.catalog.MenuItemsByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog error")
		return nil, errorbank.Internal("failed to load menu", errorbank.WithCause(err))
	}

	now := s.now().UTC()
	items := make([]*entity.OrderItem, 0, len(in.Items))
	maxPrep := 0
	for _, req := range in.Items {
		dish, ok := menu[req.MenuItemID]
		if !ok {
			return nil, errorbank.BadRequest("unknown menu item", errorbank.WithDetail("menu_item_id", req.MenuItemID))
		}
		if !dish.Available {
			return nil, errorbank.Unprocessable(fmt.Sprintf("%s is currently unavailable", dish.Name), errorbank.WithDetail("menu_item_id", dish.ID))
		}
		if dish.PrepMinutes > maxPrep {
			maxPrep = dish.PrepMinutes
		}
		items = append(items, &entity.OrderItem{
			MenuItemID:   dish.ID,
			Name:         dish.Name,
			Quantity:     req.Quantity,
			UnitPrice:    dish.Price,
			Subtotal:     pricing.Line(req.Quantity, dish.Price),
			Instructions: req.Instructions,
		})
	}

	quote := pricing.Quote(items, s.orders.TaxRate, s.orders.DeliveryFee, in.Discount)
	if quote.Subtotal < s.orders.MinSubtotal {
		return nil, errorbank.Unprocessable(
			fmt.Sprintf("order subtotal below minimum of %.2f %s", s.orders.MinSubtotal, s.orders.Currency),
			errorbank.WithDetail("subtotal", quote.Subtotal),
			errorbank.WithDetail("minimum", s.orders.MinSubtotal),
		)
	}

	readyAt := now.Add(s.orders.ReadyLead + time.Duration(maxPrep)*time.Minute)
	order := &entity.Order{
		Number:           s.newOrderNumber(now),
		CustomerID:       in.CustomerID,
		CustomerName:     in.CustomerName,
		CustomerPhone:    in.CustomerPhone,
		CustomerEmail:    in.CustomerEmail,
		DeliveryAddress:  in.DeliveryAddress,
		Status:           entity.StatusPendingConfirmation,
		EstimatedReadyAt: &readyAt,
		CreatedAt:        now,
		UpdatedAt:        now,
		Items:            items,
	}
	quote.Apply(order)

	span.SetAttributes(attribute.String("order.number", order.Number))

	usage, err := s.catalog.UsageFor(ctx, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog error")
		return nil, errorbank.Internal("failed to resolve ingredient usage", errorbank.WithCause(err))
	}

	if err := s.store.CreateWithItems(ctx, order, usage); err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			return nil, errorbank.Unprocessable("kitchen is out of stock for this order")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		if s.logger != nil {
			s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
		}
	}

	s.publishEvent(EventOrderCreated, order)
	return order, nil
}

func validateCreateInput(in CreateOrderInput) error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return errorbank.BadRequest("customer name is required")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return errorbank.BadRequest("delivery address is required")
	}
	if strings.TrimSpace(in.CustomerPhone) == "" && strings.TrimSpace(in.CustomerEmail) == "" {
		return errorbank.BadRequest("a phone number or email is required")
	}
	if in.Discount < 0 {
		return errorbank.BadRequest("discount must not be negative")
	}
	if len(in.Items) == 0 {
		return errorbank.BadRequest("at least one item is required")
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return errorbank.BadRequest("item quantity must be positive", errorbank.WithDetail("menu_item_id", item.MenuItemID))
		}
	}
	return nil
}

// newOrderNumber builds the human-readable order number, e.g.
// GS-20260830-1a2b3c4d.
func (s *Service) newOrderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("GS-%s-%s", now.Format("20060102"), suffix)
}
