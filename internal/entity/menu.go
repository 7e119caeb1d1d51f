package entity

import "github.com/uptrace/bun"

// MenuItem is a dish on the kitchen's menu.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID          int64   `bun:",pk,autoincrement" json:"id"`
	Name        string  `bun:"name" json:"name"`
	Description string  `bun:"description" json:"description,omitempty"`
	Price       float64 `bun:"price" json:"price"`
	Available   bool    `bun:"available" json:"available"`
	PrepMinutes int     `bun:"prep_minutes" json:"prep_minutes"`
}

// Ingredient is a stocked raw material consumed by menu items.
type Ingredient struct {
	bun.BaseModel `bun:"table:ingredients,alias:ing"`

	ID    int64   `bun:",pk,autoincrement" json:"id"`
	Name  string  `bun:"name" json:"name"`
	Unit  string  `bun:"unit" json:"unit"`
	Stock float64 `bun:"stock" json:"stock"`
}

// Recipe links a menu item to one ingredient it consumes.
type Recipe struct {
	bun.BaseModel `bun:"table:menu_item_ingredients,alias:rec"`

	MenuItemID   int64   `bun:"menu_item_id" json:"menu_item_id"`
	IngredientID int64   `bun:"ingredient_id" json:"ingredient_id"`
	Quantity     float64 `bun:"quantity" json:"quantity"`
}

// IngredientUsage is the aggregate stock draw of an order, computed from the
// recipes of its items.
type IngredientUsage struct {
	IngredientID int64
	Quantity     float64
}
