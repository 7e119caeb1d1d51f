package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/config"
)

func TestWebhookSenderDelivers(t *testing.T) {
	var got StatusNote
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := newWebhookSender(config.Notification{WebhookURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())

	err := sender.SendStatusUpdate(context.Background(), StatusNote{
		OrderID:     42,
		OrderNumber: "GS-20260830-abc123",
		Customer:    "Bantu",
		Tag:         TagReceived,
		Message:     "your order has been received",
		Channels:    []string{"email", "sms"},
		At:          time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, TagReceived, got.Tag)
	assert.Equal(t, []string{"email", "sms"}, got.Channels)
}

func TestWebhookSenderGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := newWebhookSender(config.Notification{WebhookURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())

	err := sender.SendStatusUpdate(context.Background(), StatusNote{OrderID: 1, Tag: TagReceived})
	assert.ErrorContains(t, err, "502")
}

func TestNoopSender(t *testing.T) {
	sender := noopSender{logger: zap.NewNop()}
	assert.NoError(t, sender.SendStatusUpdate(context.Background(), StatusNote{OrderID: 1}))
}
