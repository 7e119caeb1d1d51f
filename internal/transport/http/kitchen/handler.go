// Package kitchen streams order events to kitchen dashboards over
// server-sent events.
package kitchen

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/broadcast"
)

// heartbeatInterval keeps idle SSE connections from being reaped by proxies.
const heartbeatInterval = 25 * time.Second

// Handler exposes the kitchen event stream.
type Handler struct {
	hub    *broadcast.Hub
	logger *zap.Logger
}

// NewHandler constructs a kitchen Handler.
func NewHandler(hub *broadcast.Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/kitchen/events", h.stream)
}

// stream subscribes the connection to the hub and forwards events until the
// client disconnects. Delivery is best effort; a reconnecting dashboard
// should refetch current state rather than rely on replay.
func (h *Handler) stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	h.logger.Debug("kitchen session connected", zap.Int("subscribers", h.hub.Subscribers()))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("kitchen session closed")

			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("marshal kitchen event", zap.Error(err))

				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
