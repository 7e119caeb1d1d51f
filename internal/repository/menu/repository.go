package menu

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/techbantu/gharse/internal/database"
	"github.com/techbantu/gharse/internal/entity"
)

var repoTracer = otel.Tracer("github.com/techbantu/gharse/repository/menu")

// Repository provides read access to the menu catalog and its recipes.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a catalog repository on the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// MenuItemsByIDs loads the requested menu items keyed by id. Missing ids are
// simply absent from the result; callers decide whether that is an error.
func (r *Repository) MenuItemsByIDs(ctx context.Context, ids []int64) (map[int64]*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "MenuRepository.MenuItemsByIDs")
	defer span.End()

	if len(ids) == 0 {
		return map[int64]*entity.MenuItem{}, nil
	}

	var items []*entity.MenuItem
	err := r.reader.NewSelect().Model(&items).
		Where("mi.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	out := make(map[int64]*entity.MenuItem, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

// UsageFor aggregates the ingredient draw of the given line items from their
// recipes, summing across items sharing an ingredient.
func (r *Repository) UsageFor(ctx context.Context, items []*entity.OrderItem) ([]entity.IngredientUsage, error) {
	ctx, span := repoTracer.Start(ctx, "MenuRepository.UsageFor")
	defer span.End()

	if len(items) == 0 {
		return nil, nil
	}

	qtyByMenuItem := make(map[int64]int, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if item == nil || item.Quantity <= 0 {
			continue
		}
		if _, seen := qtyByMenuItem[item.MenuItemID]; !seen {
			ids = append(ids, item.MenuItemID)
		}
		qtyByMenuItem[item.MenuItemID] += item.Quantity
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var recipes []*entity.Recipe
	err := r.reader.NewSelect().Model(&recipes).
		Where("rec.menu_item_id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	totals := make(map[int64]float64)
	order := make([]int64, 0, len(recipes))
	for _, rec := range recipes {
		qty := float64(qtyByMenuItem[rec.MenuItemID]) * rec.Quantity
		if qty <= 0 {
			continue
		}
		if _, seen := totals[rec.IngredientID]; !seen {
			order = append(order, rec.IngredientID)
		}
		totals[rec.IngredientID] += qty
	}

	usage := make([]entity.IngredientUsage, 0, len(order))
	for _, id := range order {
		usage = append(usage, entity.IngredientUsage{IngredientID: id, Quantity: totals[id]})
	}
	return usage, nil
}
