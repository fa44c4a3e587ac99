package realtime

import (
	"context"
	"testing"

	"github.com/indigoair/indigo/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(4)
	a := hub.Subscribe()
	b := hub.Subscribe()
	assert.Equal(t, 2, hub.Subscribers())

	require.NoError(t, hub.Publish(context.Background(), events.Event{Type: events.BookingCreated, FlightID: "F1"}))

	assert.Equal(t, events.BookingCreated, (<-a.Events()).Type)
	assert.Equal(t, "F1", (<-b.Events()).FlightID)
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe()

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Publish(context.Background(), events.Event{Type: events.SeatHoldExpired}))
	}

	assert.Len(t, sub.Events(), 1)
	assert.Equal(t, int64(2), sub.Dropped())
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(0)
	sub := hub.Subscribe()
	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Subscribers())
	_, open := <-sub.Events()
	assert.False(t, open)

	// Publishing after close must not panic on the closed channel.
	assert.NoError(t, hub.Publish(context.Background(), events.Event{Type: events.BookingCancelled}))
}
