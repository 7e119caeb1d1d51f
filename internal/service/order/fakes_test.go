package order

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/config"
	"github.com/techbantu/gharse/internal/entity"
	"github.com/techbantu/gharse/internal/messaging"
	repo "github.com/techbantu/gharse/internal/repository/order"
)

type fakeStore struct {
	mu          sync.Mutex
	orders      map[int64]*entity.Order
	nextID      int64
	failUpdate  error
	failCreate  error
	lastUsage   []entity.IngredientUsage
	updateCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: map[int64]*entity.Order{}, nextID: 1}
}

func cloneOrder(o *entity.Order) *entity.Order {
	cp := *o
	if o.GraceExpiresAt != nil {
		t := *o.GraceExpiresAt
		cp.GraceExpiresAt = &t
	}
	if o.EstimatedReadyAt != nil {
		t := *o.EstimatedReadyAt
		cp.EstimatedReadyAt = &t
	}
	cp.Items = make([]*entity.OrderItem, len(o.Items))
	for i, item := range o.Items {
		it := *item
		cp.Items[i] = &it
	}
	return &cp
}

func (f *fakeStore) put(o *entity.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = cloneOrder(o)
}

func (f *fakeStore) get(id int64) *entity.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

func (f *fakeStore) GetWithItems(_ context.Context, id int64) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeStore) CreateWithItems(_ context.Context, order *entity.Order, usage []entity.IngredientUsage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	order.ID = f.nextID
	f.nextID++
	for _, item := range order.Items {
		item.OrderID = order.ID
	}
	f.lastUsage = usage
	f.orders[order.ID] = cloneOrder(order)
	return nil
}

func (f *fakeStore) UpdateWithItems(_ context.Context, order *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.failUpdate != nil {
		return f.failUpdate
	}
	f.orders[order.ID] = cloneOrder(order)
	return nil
}

func (f *fakeStore) Update(_ context.Context, order *entity.Order) error {
	return f.UpdateWithItems(context.Background(), order)
}

func (f *fakeStore) ListGraceExpired(_ context.Context, before time.Time, limit int) ([]*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Order
	for _, o := range f.orders {
		if o.Status == entity.StatusPendingConfirmation && o.GraceExpiresAt != nil && !o.GraceExpiresAt.After(before) {
			out = append(out, cloneOrder(o))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeCatalog struct {
	items map[int64]*entity.MenuItem
	usage []entity.IngredientUsage
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		items: map[int64]*entity.MenuItem{
			10: {ID: 10, Name: "Paneer Tikka", Price: 100, Available: true, PrepMinutes: 20},
			11: {ID: 11, Name: "Dal Tadka", Price: 50, Available: true, PrepMinutes: 10},
			12: {ID: 12, Name: "Seasonal Special", Price: 180, Available: false, PrepMinutes: 30},
		},
		usage: []entity.IngredientUsage{{IngredientID: 1, Quantity: 2}},
	}
}

func (f *fakeCatalog) MenuItemsByIDs(_ context.Context, ids []int64) (map[int64]*entity.MenuItem, error) {
	out := make(map[int64]*entity.MenuItem, len(ids))
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (f *fakeCatalog) UsageFor(context.Context, []*entity.OrderItem) ([]entity.IngredientUsage, error) {
	return f.usage, nil
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	newOrders []*entity.Order
	updates   []int64
}

func (f *fakeBroadcaster) BroadcastNewOrder(order *entity.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newOrders = append(f.newOrders, order)
}

func (f *fakeBroadcaster) BroadcastOrderUpdate(orderID int64, _ entity.OrderStatus, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, orderID)
}

func (f *fakeBroadcaster) newOrderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.newOrders)
}

func (f *fakeBroadcaster) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type publishedEvent struct {
	Event string
	Key   string
	Value []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(_ context.Context, event string, key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Event: event, Key: string(key), Value: value})
	return nil
}

func (f *fakePublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakePublisher) Topic() string { return "orders.events" }

func (f *fakePublisher) eventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.events))
	for i, e := range f.events {
		names[i] = e.Event
	}
	return names
}

func testConfig() config.Config {
	return config.Config{
		Cache: config.Cache{DefaultTTL: time.Minute},
		Messaging: config.Messaging{
			Enabled: true,
			Kafka:   config.Kafka{Topic: "orders.events"},
		},
		Orders: config.Orders{
			InitialWindow:   3 * time.Minute,
			ExtensionWindow: 2 * time.Minute,
			MaxWindow:       5 * time.Minute,
			TaxRate:         0.05,
			DeliveryFee:     50,
			MinSubtotal:     100,
			Currency:        "INR",
			ReadyLead:       15 * time.Minute,
		},
		Notification: config.Notification{Channels: []string{"email", "sms"}},
	}
}

type testRig struct {
	svc     *Service
	store   *fakeStore
	catalog *fakeCatalog
	bcast   *fakeBroadcaster
	pub     *fakePublisher
	nowAt   time.Time
}

func newTestRig() *testRig {
	rig := &testRig{
		store:   newFakeStore(),
		catalog: newFakeCatalog(),
		bcast:   &fakeBroadcaster{},
		pub:     &fakePublisher{},
		nowAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	rig.svc = NewService(Params{
		Store:       rig.store,
		Catalog:     rig.catalog,
		Config:      testConfig(),
		Logger:      zap.NewNop(),
		Broadcaster: rig.bcast,
	})
	rig.svc.publisher = rig.pub
	rig.svc.now = func() time.Time { return rig.nowAt }
	return rig
}

func (r *testRig) advanceTo(t time.Time) { r.nowAt = t }

// seedOrder places a PENDING_CONFIRMATION order created at the rig's current
// time, with no grace timer yet.
func (r *testRig) seedOrder(id int64) *entity.Order {
	order := &entity.Order{
		ID:           id,
		Number:       "GS-20260830-seed01",
		CustomerID:   "cust-1",
		CustomerName: "Bantu",
		Status:       entity.StatusPendingConfirmation,
		CreatedAt:    r.nowAt,
		UpdatedAt:    r.nowAt,
		Items: []*entity.OrderItem{
			{OrderID: id, MenuItemID: 10, Name: "Paneer Tikka", Quantity: 1, UnitPrice: 100, Subtotal: 100},
		},
		Subtotal: 100, Tax: 5, DeliveryFee: 50, Total: 155,
	}
	r.store.put(order)
	return order
}
