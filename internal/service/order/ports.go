package order

import (
	"context"
	"time"

	"github.com/techbantu/gharse/internal/entity"
)

// Store is the order persistence boundary. All multi-row writes are
// all-or-nothing; the transaction is the sole concurrency-correctness
// mechanism. There are no version tokens: concurrent modifications serialize
// at the database and the later one wins the whole item set.
type Store interface {
	GetWithItems(ctx context.Context, id int64) (*entity.Order, error)
	CreateWithItems(ctx context.Context, order *entity.Order, usage []entity.IngredientUsage) error
	UpdateWithItems(ctx context.Context, order *entity.Order) error
	Update(ctx context.Context, order *entity.Order) error
	ListGraceExpired(ctx context.Context, before time.Time, limit int) ([]*entity.Order, error)
}

// Catalog resolves menu items and their ingredient draw.
type Catalog interface {
	MenuItemsByIDs(ctx context.Context, ids []int64) (map[int64]*entity.MenuItem, error)
	UsageFor(ctx context.Context, items []*entity.OrderItem) ([]entity.IngredientUsage, error)
}

// Broadcaster pushes events to connected kitchen-dashboard sessions. Calls
// must never block and carry no delivery guarantee.
type Broadcaster interface {
	BroadcastNewOrder(order *entity.Order)
	BroadcastOrderUpdate(orderID int64, status entity.OrderStatus, metadata map[string]any)
}
