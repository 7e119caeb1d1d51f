package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/techbantu/gharse/internal/entity"
)

func TestSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch, cancel := hub.Subscribe()
	defer cancel()
	require.Equal(t, 1, hub.Subscribers())

	hub.BroadcastNewOrder(&entity.Order{
		ID:     7,
		Number: "GS-20260830-abc123",
		Status: entity.StatusPending,
		Total:  312.5,
	})

	event := <-ch
	assert.Equal(t, EventNewOrder, event.Type)
	assert.Equal(t, int64(7), event.OrderID)
	assert.Equal(t, string(entity.StatusPending), event.Status)
	assert.Equal(t, "GS-20260830-abc123", event.Payload["number"])
}

func TestOrderUpdateEventIsNotActionable(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.BroadcastOrderUpdate(3, entity.StatusPendingConfirmation, map[string]any{"awaiting_confirmation": true})

	event := <-ch
	assert.Equal(t, EventOrderUpdate, event.Type)
	assert.Equal(t, string(entity.StatusPendingConfirmation), event.Status)
	assert.Equal(t, true, event.Payload["awaiting_confirmation"])
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ch, cancel := hub.Subscribe()
	defer cancel()

	// Fill the buffer and then some; publish must never block.
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.BroadcastOrderUpdate(int64(i), entity.StatusPendingConfirmation, nil)
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestCancelRemovesSubscriberAndClosesChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ch, cancel := hub.Subscribe()

	cancel()
	cancel() // second cancel is a no-op

	assert.Equal(t, 0, hub.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}

func TestBroadcastNilOrderIsIgnored(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.BroadcastNewOrder(nil)
	assert.Empty(t, ch)
}
