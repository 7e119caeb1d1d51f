package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/techbantu/gharse/internal/database"
	"github.com/techbantu/gharse/internal/entity"
)

var repoTracer = otel.Tracer("github.com/techbantu/gharse/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// ErrInsufficientStock is returned when an ingredient decrement would drive
// stock negative; the enclosing transaction rolls back the whole creation.
var ErrInsufficientStock = errors.New("insufficient ingredient stock")

// Repository encapsulates read/write access for orders and their items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// GetWithItems fetches an order and its line items by primary key. Reads go
// through the writer: the grace-period validation that follows must not see
// replica lag.
func (r *Repository) GetWithItems(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetWithItems", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.writer.NewSelect().Model(order).
		Relation("Items").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// CreateWithItems persists a new order, its items, and the guarded ingredient
// decrements in a single transaction. Any ingredient falling short fails the
// whole creation.
func (r *Repository) CreateWithItems(ctx context.Context, order *entity.Order, usage []entity.IngredientUsage) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CreateWithItems", trace.WithAttributes(attribute.String("order.number", order.Number)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		for _, item := range order.Items {
			item.OrderID = order.ID
		}
		if len(order.Items) > 0 {
			if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
				return err
			}
		}
		return decrementStock(ctx, tx, usage)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
	}
	return err
}

// UpdateWithItems rewrites the order row and replaces its items wholesale
// (delete then recreate, never a diff) inside one transaction.
func (r *Repository) UpdateWithItems(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateWithItems", trace.WithAttributes(attribute.Int64("order.id", order.ID)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model(order).WherePK().Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*entity.OrderItem)(nil)).
			Where("order_id = ?", order.ID).
			Exec(ctx); err != nil {
			return err
		}
		for _, item := range order.Items {
			item.ID = 0
			item.OrderID = order.ID
		}
		if len(order.Items) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&order.Items).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// Update rewrites only the order row, leaving items untouched. Used by the
// timeout sweep where the item set does not change.
func (r *Repository) Update(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.Int64("order.id", order.ID)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model(order).WherePK().Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// ListGraceExpired returns orders still parked in PENDING_CONFIRMATION whose
// grace window lapsed at or before the given instant.
func (r *Repository) ListGraceExpired(ctx context.Context, before time.Time, limit int) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListGraceExpired")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	var orders []*entity.Order
	err := r.writer.NewSelect().Model(&orders).
		Relation("Items").
		Where("o.status = ?", entity.StatusPendingConfirmation).
		Where("o.grace_expires_at IS NOT NULL").
		Where("o.grace_expires_at <= ?", before).
		Order("o.grace_expires_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

func decrementStock(ctx context.Context, tx bun.Tx, usage []entity.IngredientUsage) error {
	for _, u := range usage {
		if u.Quantity <= 0 {
			continue
		}
		res, err := tx.NewUpdate().Model((*entity.Ingredient)(nil)).
			Set("stock = stock - ?", u.Quantity).
			Where("id = ?", u.IngredientID).
			Where("stock >= ?", u.Quantity).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientStock
		}
	}
	return nil
}
