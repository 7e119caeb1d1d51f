package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/entity"
	"github.com/techbantu/gharse/internal/pricing"
	repo "github.com/techbantu/gharse/internal/repository/order"
	"github.com/techbantu/gharse/pkg/errorbank"
)

// CandidateItem is one proposed line in a modification. Quantity zero means
// removal. A positive unit price is captured as the denormalized line price;
// zero falls back to the current catalog price.
type CandidateItem struct {
	MenuItemID   int64   `json:"menu_item_id"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Instructions string  `json:"instructions,omitempty"`
}

// ModifyInput is one "attempt modification" call. CustomerID is optional;
// when supplied it must match the order's owner.
type ModifyInput struct {
	OrderID    int64
	CustomerID string
	Items      []CandidateItem
	Finalize   bool
}

// ModifyResult is the outcome of a successful modification.
type ModifyResult struct {
	Order     *entity.Order
	Remaining time.Duration
	Message   string
}

// Modifiability is the read-only answer to "can this order still be edited".
type Modifiability struct {
	Status            entity.OrderStatus `json:"status"`
	Modifiable        bool               `json:"modifiable"`
	Remaining         time.Duration      `json:"-"`
	RemainingMS       int64              `json:"remaining_ms"`
	ModificationCount int                `json:"modification_count"`
}

// Modify runs the grace-period state machine for one modification attempt.
//
// Preconditions are checked in order, each a distinct failure: the order must
// exist, must still be PENDING_CONFIRMATION, its timer (when set) must not
// have elapsed, the caller (when identified) must own it, and at least one
// item must survive the quantity filter. Pricing is recomputed from scratch;
// the write replaces the item set wholesale in one transaction. Finalizing
// clears the timer and flips the order to PENDING, which makes it visible to
// the kitchen; otherwise the window is extended, clamped to the
// creation-anchored cap.
func (s *Service) Modify(ctx context.Context, in ModifyInput) (*ModifyResult, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Modify", trace.WithAttributes(
		attribute.Int64("order.id", in.OrderID),
		attribute.Bool("order.finalize", in.Finalize),
	))
	defer span.End()

	if len(in.Items) == 0 {
		return nil, errorbank.BadRequest("at least one item entry is required")
	}
	for _, item := range in.Items {
		if item.Quantity < 0 {
			return nil, errorbank.BadRequest("item quantity must not be negative", errorbank.WithDetail("menu_item_id", item.MenuItemID))
		}
		if item.UnitPrice < 0 {
			return nil, errorbank.BadRequest("item price must not be negative", errorbank.WithDetail("menu_item_id", item.MenuItemID))
		}
	}

	now := s.now().UTC()

	order, err := s.store.GetWithItems(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if order.Status != entity.StatusPendingConfirmation {
		return nil, errorbank.Conflict("order can no longer be modified",
			errorbank.WithDetail("status", string(order.Status)))
	}
	if order.GraceExpiresAt != nil && now.After(*order.GraceExpiresAt) {
		return nil, errorbank.Gone("modification window has expired",
			errorbank.WithDetail("expired_at", order.GraceExpiresAt.UTC()))
	}
	if in.CustomerID != "" && order.CustomerID != "" && in.CustomerID != order.CustomerID {
		return nil, errorbank.Forbidden("order belongs to another customer")
	}

	surviving := make([]CandidateItem, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity > 0 {
			surviving = append(surviving, item)
		}
	}
	if len(surviving) == 0 {
		// Zero-item orders are never silently finalized or deleted; the
		// customer must cancel explicitly.
		return nil, errorbank.Unprocessable("modification would leave no items; cancel the order instead",
			errorbank.WithDetail("action", "cancel"))
	}

	items, err := s.buildItems(ctx, surviving)
	if err != nil {
		return nil, err
	}

	pricing.Quote(items, s.orders.TaxRate, s.orders.DeliveryFee, order.Discount).Apply(order)
	order.Items = items
	order.ModificationCount++
	order.UpdatedAt = now

	var message string
	var remaining time.Duration
	if in.Finalize {
		order.Status = entity.StatusPending
		order.GraceExpiresAt = nil
		message = "order confirmed and sent to the kitchen"
	} else {
		expiry := s.nextExpiry(order, now)
		order.GraceExpiresAt = &expiry
		if remaining = expiry.Sub(now); remaining < 0 {
			// A very late first modification can land past the creation-anchored
			// window; the order is then expired for any further edits.
			remaining = 0
		}
		message = fmt.Sprintf("order updated; %s left to modify before it is sent to the kitchen", remaining.Round(time.Second))
	}

	if err := s.store.UpdateWithItems(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, errorbank.Internal("failed to save order modification", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, order.ID)

	if in.Finalize {
		s.dispatchFinalized(order)
	} else {
		s.dispatchUpdated(order, remaining)
	}

	return &ModifyResult{Order: order, Remaining: remaining, Message: message}, nil
}

// nextExpiry computes the new grace deadline for a non-finalizing
// modification. The first modification (or an order with no timer yet)
// anchors the initial window to creation time; later ones extend from now.
// The result is clamped to the creation-anchored max window, deliberately not
// a sliding one, so late edits can get less than the full extension. An
// existing deadline never moves backwards.
func (s *Service) nextExpiry(order *entity.Order, now time.Time) time.Time {
	cap := order.CreatedAt.Add(s.orders.MaxWindow)

	var expiry time.Time
	if order.ModificationCount <= 1 || order.GraceExpiresAt == nil {
		expiry = order.CreatedAt.Add(s.orders.InitialWindow)
	} else {
		expiry = now.Add(s.orders.ExtensionWindow)
	}
	if expiry.After(cap) {
		expiry = cap
	}
	if order.GraceExpiresAt != nil && expiry.Before(*order.GraceExpiresAt) {
		expiry = *order.GraceExpiresAt
	}
	return expiry
}

// buildItems resolves the surviving candidate lines against the catalog and
// produces the replacement item set with denormalized names and prices.
func (s *Service) buildItems(ctx context.Context, candidates []CandidateItem) ([]*entity.OrderItem, error) {
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.MenuItemID)
	}
	menu, err := s.catalog.MenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, errorbank.Internal("failed to load menu", errorbank.WithCause(err))
	}

	items := make([]*entity.OrderItem, 0, len(candidates))
	for _, c := range candidates {
		dish, ok := menu[c.MenuItemID]
		if !ok {
			return nil, errorbank.BadRequest("unknown menu item", errorbank.WithDetail("menu_item_id", c.MenuItemID))
		}
		price := c.UnitPrice
		if price == 0 {
			price = dish.Price
		}
		items = append(items, &entity.OrderItem{
			MenuItemID:   dish.ID,
			Name:         dish.Name,
			Quantity:     c.Quantity,
			UnitPrice:    price,
			Subtotal:     pricing.Line(c.Quantity, price),
			Instructions: c.Instructions,
		})
	}
	return items, nil
}

// Modifiability reports, without mutating anything, whether the order can
// currently be edited and how much window remains. When no timer is running
// yet the remaining time is measured against the creation-anchored cap,
// since that bounds any window a first modification could establish.
func (s *Service) Modifiability(ctx context.Context, id int64) (*Modifiability, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Modifiability", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.store.GetWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	now := s.now().UTC()
	remaining := order.GraceRemaining(now)
	if order.Status == entity.StatusPendingConfirmation && order.GraceExpiresAt == nil {
		if until := order.CreatedAt.Add(s.orders.MaxWindow).Sub(now); until > 0 {
			remaining = until
		}
	}

	return &Modifiability{
		Status:            order.Status,
		Modifiable:        order.Modifiable(now),
		Remaining:         remaining,
		RemainingMS:       remaining.Milliseconds(),
		ModificationCount: order.ModificationCount,
	}, nil
}

// FinalizeExpired sweeps orders whose grace window lapsed without an
// explicit confirmation and finalizes them by timeout, dispatching the same
// side effects as an explicit finalize. Expiry is otherwise enforced lazily,
// so without this sweep an abandoned order would stay parked in
// PENDING_CONFIRMATION forever.
func (s *Service) FinalizeExpired(ctx context.Context, batch int) (int, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.FinalizeExpired")
	defer span.End()

	now := s.now().UTC()
	expired, err := s.store.ListGraceExpired(ctx, now, batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return 0, errorbank.Internal("failed to list expired orders", errorbank.WithCause(err))
	}

	finalized := 0
	for _, order := range expired {
		order.Status = entity.StatusPending
		order.GraceExpiresAt = nil
		order.UpdatedAt = now

		if err := s.store.Update(ctx, order); err != nil {
			if s.logger != nil {
				s.logger.Error("timeout finalize failed", zap.Int64("order_id", order.ID), zap.Error(err))
			}
			continue
		}

		s.invalidateCache(ctx, order.ID)
		s.dispatchFinalized(order)
		finalized++
	}

	if finalized > 0 && s.logger != nil {
		s.logger.Info("finalized expired orders", zap.Int("count", finalized))
	}
	return finalized, nil
}

// dispatchFinalized fires the kitchen "new order" broadcast and the
// order.finalized bus event (which drives the customer "order received"
// notification). Both are fire-and-forget.
func (s *Service) dispatchFinalized(order *entity.Order) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastNewOrder(order)
	}
	s.publishEvent(EventOrderFinalized, order)
}

// dispatchUpdated announces a non-finalizing edit so kitchen dashboards do
// not treat the order as actionable yet.
func (s *Service) dispatchUpdated(order *entity.Order, remaining time.Duration) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastOrderUpdate(order.ID, order.Status, map[string]any{
			"awaiting_confirmation": true,
			"remaining_ms":          remaining.Milliseconds(),
			"modification_count":    order.ModificationCount,
		})
	}
	s.publishEvent(EventOrderUpdated, order)
}
