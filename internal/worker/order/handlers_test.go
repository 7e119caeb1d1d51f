package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/messaging"
	"github.com/techbantu/gharse/internal/notification"
	ordersvc "github.com/techbantu/gharse/internal/service/order"
)

type recordingSender struct {
	notes []notification.StatusNote
	fail  error
}

func (r *recordingSender) SendStatusUpdate(_ context.Context, note notification.StatusNote) error {
	if r.fail != nil {
		return r.fail
	}
	r.notes = append(r.notes, note)
	return nil
}

func finalizedMessage(t *testing.T) messaging.Message {
	t.Helper()
	payload, err := json.Marshal(ordersvc.OrderEvent{
		ID:            42,
		Number:        "GS-20260830-abc123",
		Status:        "PENDING",
		CustomerName:  "Bantu",
		CustomerPhone: "+91-9000000000",
		Total:         312.5,
		ItemCount:     2,
		Channels:      []string{"email", "sms"},
	})
	require.NoError(t, err)
	return messaging.Message{Event: ordersvc.EventOrderFinalized, Value: payload}
}

func TestFinalizedHandlerSendsReceivedNotification(t *testing.T) {
	sender := &recordingSender{}
	reg := NewOrderFinalizedHandler(zap.NewNop(), sender)
	assert.Equal(t, ordersvc.EventOrderFinalized, reg.Event)

	require.NoError(t, reg.Handler(context.Background(), finalizedMessage(t)))

	require.Len(t, sender.notes, 1)
	note := sender.notes[0]
	assert.Equal(t, int64(42), note.OrderID)
	assert.Equal(t, notification.TagReceived, note.Tag)
	assert.Equal(t, "Bantu", note.Customer)
	assert.Contains(t, note.Message, "GS-20260830-abc123")
	assert.Equal(t, []string{"email", "sms"}, note.Channels)
}

func TestFinalizedHandlerPropagatesSendFailureForRetry(t *testing.T) {
	sender := &recordingSender{fail: errors.New("gateway down")}
	reg := NewOrderFinalizedHandler(zap.NewNop(), sender)

	err := reg.Handler(context.Background(), finalizedMessage(t))
	assert.Error(t, err)
}

func TestHandlersRejectMalformedPayloads(t *testing.T) {
	bad := messaging.Message{Event: ordersvc.EventOrderFinalized, Value: []byte("{nope")}

	finalized := NewOrderFinalizedHandler(zap.NewNop(), &recordingSender{})
	assert.Error(t, finalized.Handler(context.Background(), bad))

	created := NewOrderCreatedHandler(zap.NewNop())
	assert.Equal(t, ordersvc.EventOrderCreated, created.Event)
	bad.Event = ordersvc.EventOrderCreated
	assert.Error(t, created.Handler(context.Background(), bad))
}
