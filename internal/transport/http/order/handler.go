package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/techbantu/gharse/internal/dto"
	"github.com/techbantu/gharse/internal/presentation/http/response"
	service "github.com/techbantu/gharse/internal/service/order"
	"github.com/techbantu/gharse/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/techbantu/gharse/transport/http/order")

// customerHeader identifies the caller for ownership checks; ownership is
// only enforced when the header is present.
const customerHeader = "X-Customer-ID"

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id/items", h.modifyItems)
	g.GET("/:id/modifiability", h.modifiability)
}

func orderID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid order id")
	}
	return id, nil
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var in service.CreateOrderInput
	if err := c.Bind(&in); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if cid := c.Request().Header.Get(customerHeader); cid != "" {
		in.CustomerID = cid
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	defer span.End()

	order, err := h.svc.Create(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.String("order.number", order.Number))

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

// modifyItems replaces the order's item set during the grace window. The item
// list is the full desired state; quantity zero removes a line. Finalize
// confirms the order immediately and sends it to the kitchen.
func (h *Handler) modifyItems(c echo.Context) error {
	b := response.New(c)

	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Items      []service.CandidateItem `json:"items"`
		Finalize   bool                    `json:"finalize"`
		CustomerID string                  `json:"customer_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if cid := c.Request().Header.Get(customerHeader); cid != "" {
		payload.CustomerID = cid
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.modifyItems", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.Bool("order.finalize", payload.Finalize),
	))
	defer span.End()

	result, err := h.svc.Modify(ctx, service.ModifyInput{
		OrderID:    id,
		CustomerID: payload.CustomerID,
		Items:      payload.Items,
		Finalize:   payload.Finalize,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.
		WithData(dto.NewOrderResponse(result.Order)).
		WithMeta("message", result.Message).
		WithMeta("remaining_ms", result.Remaining.Milliseconds()).
		Build()
}

func (h *Handler) modifiability(c echo.Context) error {
	b := response.New(c)

	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.modifiability", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	m, err := h.svc.Modifiability(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.ModifiabilityResponse{
		Status:            string(m.Status),
		Modifiable:        m.Modifiable,
		RemainingMS:       m.RemainingMS,
		ModificationCount: m.ModificationCount,
	}).Build()
}
