// Package realtime fans domain events out to connected clients.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/indigoair/indigo/internal/events"
)

const DefaultBufferSize = 64

// Subscription receives events until Close is called. When its buffer is
// full new events are dropped for this subscriber only.
type Subscription struct {
	events  chan events.Event
	hub     *Hub
	dropped atomic.Int64
	once    sync.Once
}

func (s *Subscription) Events() <-chan events.Event { return s.events }

// Dropped reports how many events were discarded because the subscriber
// was not keeping up.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	bufferSize  int
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{subscribers: make(map[*Subscription]struct{}), bufferSize: bufferSize}
}

func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{events: make(chan events.Event, h.bufferSize), hub: h}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
	close(sub.events)
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish never blocks and never fails.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		select {
		case sub.events <- e:
		default:
			sub.dropped.Add(1)
		}
	}
	return nil
}

var _ events.Publisher = (*Hub)(nil)
