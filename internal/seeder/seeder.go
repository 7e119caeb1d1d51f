package seeder

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/database"
	"github.com/techbantu/gharse/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Menu seeds a small home-kitchen menu with ingredients and recipes. Inserts
// are idempotent on natural keys so the seeder can run repeatedly.
func (s *Seeder) Menu(ctx context.Context) error {
	ingredients := []entity.Ingredient{
		{ID: 1, Name: "Paneer", Unit: "g", Stock: 5000},
		{ID: 2, Name: "Toor Dal", Unit: "g", Stock: 8000},
		{ID: 3, Name: "Basmati Rice", Unit: "g", Stock: 10000},
		{ID: 4, Name: "Atta", Unit: "g", Stock: 6000},
	}
	for i := range ingredients {
		if _, err := s.db.NewInsert().Model(&ingredients[i]).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	menu := []entity.MenuItem{
		{ID: 1, Name: "Paneer Tikka", Description: "Char-grilled paneer with mint chutney", Price: 220, Available: true, PrepMinutes: 20},
		{ID: 2, Name: "Dal Tadka", Description: "Slow-cooked toor dal, ghee tempering", Price: 150, Available: true, PrepMinutes: 15},
		{ID: 3, Name: "Jeera Rice", Description: "Cumin-tossed basmati", Price: 120, Available: true, PrepMinutes: 15},
		{ID: 4, Name: "Tawa Roti", Description: "Whole-wheat roti, made to order", Price: 20, Available: true, PrepMinutes: 5},
	}
	for i := range menu {
		if _, err := s.db.NewInsert().Model(&menu[i]).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	recipes := []entity.Recipe{
		{MenuItemID: 1, IngredientID: 1, Quantity: 200},
		{MenuItemID: 2, IngredientID: 2, Quantity: 150},
		{MenuItemID: 3, IngredientID: 3, Quantity: 180},
		{MenuItemID: 4, IngredientID: 4, Quantity: 60},
	}
	for i := range recipes {
		if _, err := s.db.NewInsert().Model(&recipes[i]).
			On("CONFLICT (menu_item_id, ingredient_id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded menu",
			zap.Int("menu_items", len(menu)),
			zap.Int("ingredients", len(ingredients)),
		)
	}
	return nil
}
