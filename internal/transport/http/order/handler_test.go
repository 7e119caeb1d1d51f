package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techbantu/gharse/internal/config"
	"github.com/techbantu/gharse/internal/entity"
	repo "github.com/techbantu/gharse/internal/repository/order"
	service "github.com/techbantu/gharse/internal/service/order"
	"go.uber.org/zap"
)

type stubStore struct {
	orders map[int64]*entity.Order
	nextID int64
}

func (s *stubStore) GetWithItems(_ context.Context, id int64) (*entity.Order, error) {
	if o, ok := s.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubStore) CreateWithItems(_ context.Context, order *entity.Order, _ []entity.IngredientUsage) error {
	order.ID = s.nextID
	s.nextID++
	s.orders[order.ID] = order
	return nil
}

func (s *stubStore) UpdateWithItems(_ context.Context, order *entity.Order) error {
	s.orders[order.ID] = order
	return nil
}

func (s *stubStore) Update(ctx context.Context, order *entity.Order) error {
	return s.UpdateWithItems(ctx, order)
}

func (s *stubStore) ListGraceExpired(context.Context, time.Time, int) ([]*entity.Order, error) {
	return nil, nil
}

type stubCatalog struct{}

func (stubCatalog) MenuItemsByIDs(_ context.Context, ids []int64) (map[int64]*entity.MenuItem, error) {
	menu := map[int64]*entity.MenuItem{
		10: {ID: 10, Name: "Paneer Tikka", Price: 100, Available: true, PrepMinutes: 20},
		11: {ID: 11, Name: "Dal Tadka", Price: 50, Available: true, PrepMinutes: 10},
	}
	out := make(map[int64]*entity.MenuItem, len(ids))
	for _, id := range ids {
		if item, ok := menu[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (stubCatalog) UsageFor(context.Context, []*entity.OrderItem) ([]entity.IngredientUsage, error) {
	return nil, nil
}

func testHandlerConfig() config.Config {
	return config.Config{
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
	}
}

func newTestServer(t *testing.T) (*echo.Echo, *stubStore) {
	t.Helper()

	store := &stubStore{orders: map[int64]*entity.Order{}, nextID: 1}
	svc := service.NewService(service.Params{
		Store:   store,
		Catalog: stubCatalog{},
		Config:  testHandlerConfig(),
		Logger:  zap.NewNop(),
	})

	e := echo.New()
	Register(e, NewHandler(svc))
	return e, store
}

func seedPendingConfirmation(store *stubStore, id int64) {
	now := time.Now().UTC()
	store.orders[id] = &entity.Order{
		ID:           id,
		Number:       "GS-20260830-abc123",
		CustomerID:   "cust-1",
		CustomerName: "Bantu",
		Status:       entity.StatusPendingConfirmation,
		CreatedAt:    now,
		UpdatedAt:    now,
		Items: []*entity.OrderItem{
			{OrderID: id, MenuItemID: 10, Name: "Paneer Tikka", Quantity: 1, UnitPrice: 100, Subtotal: 100},
		},
		Subtotal: 100, Tax: 5, DeliveryFee: 50, Total: 155,
	}
}

func doJSON(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	body := `{
		"customer_name": "Bantu",
		"customer_phone": "+91-9000000000",
		"delivery_address": "12 MG Road",
		"items": [
			{"menu_item_id": 10, "quantity": 2},
			{"menu_item_id": 11, "quantity": 1}
		]
	}`
	rec := doJSON(e, http.MethodPost, "/orders", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID     int64   `json:"id"`
			Number string  `json:"number"`
			Status string  `json:"status"`
			Total  float64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "PENDING_CONFIRMATION", resp.Data.Status)
	assert.Equal(t, 312.5, resp.Data.Total)
	assert.True(t, strings.HasPrefix(resp.Data.Number, "GS-"))
}

func TestGetOrderEndpoint(t *testing.T) {
	e, store := newTestServer(t)
	seedPendingConfirmation(store, 1)

	rec := doJSON(e, http.MethodGet, "/orders/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GS-20260830-abc123")

	rec = doJSON(e, http.MethodGet, "/orders/99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, "/orders/nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModifyItemsEndpoint(t *testing.T) {
	e, store := newTestServer(t)
	seedPendingConfirmation(store, 1)

	body := `{"items": [{"menu_item_id": 10, "quantity": 2}, {"menu_item_id": 11, "quantity": 1}]}`
	rec := doJSON(e, http.MethodPut, "/orders/1/items", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Subtotal          float64 `json:"subtotal"`
			Total             float64 `json:"total"`
			ModificationCount int     `json:"modification_count"`
		} `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 250.0, resp.Data.Subtotal)
	assert.Equal(t, 312.5, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.ModificationCount)
	assert.Contains(t, resp.Meta, "remaining_ms")
	assert.Contains(t, resp.Meta, "message")
}

func TestModifyItemsOwnership(t *testing.T) {
	e, store := newTestServer(t)
	seedPendingConfirmation(store, 1)

	body := `{"items": [{"menu_item_id": 10, "quantity": 2}]}`
	rec := doJSON(e, http.MethodPut, "/orders/1/items", body, map[string]string{"X-Customer-ID": "intruder"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPut, "/orders/1/items", body, map[string]string{"X-Customer-ID": "cust-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestModifyItemsFinalize(t *testing.T) {
	e, store := newTestServer(t)
	seedPendingConfirmation(store, 1)

	body := `{"items": [{"menu_item_id": 10, "quantity": 1}], "finalize": true}`
	rec := doJSON(e, http.MethodPut, "/orders/1/items", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"PENDING"`)

	// Once dispatched, further edits conflict.
	rec = doJSON(e, http.MethodPut, "/orders/1/items", body, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestModifyItemsAllRemovalsSignalsCancel(t *testing.T) {
	e, store := newTestServer(t)
	seedPendingConfirmation(store, 1)

	body := `{"items": [{"menu_item_id": 10, "quantity": 0}]}`
	rec := doJSON(e, http.MethodPut, "/orders/1/items", body, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"cancel"`)
}

func TestModifiabilityEndpoint(t *testing.T) {
	e, store := newTestServer(t)
	seedPendingConfirmation(store, 1)

	rec := doJSON(e, http.MethodGet, "/orders/1/modifiability", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Status      string `json:"status"`
			Modifiable  bool   `json:"modifiable"`
			RemainingMS int64  `json:"remaining_ms"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PENDING_CONFIRMATION", resp.Data.Status)
	assert.True(t, resp.Data.Modifiable)
	assert.Positive(t, resp.Data.RemainingMS)
}
