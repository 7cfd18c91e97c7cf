package session

import (
	"context"
	"sync"
)

// LoginEvent announces a fresh login to every other context sharing the bus.
type LoginEvent struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Bus is the same-origin broadcast medium the coordinator publishes login
// events on. Delivery is asynchronous and best-effort.
type Bus interface {
	Publish(evt LoginEvent)
	Subscribe(ctx context.Context) <-chan LoginEvent
}

// MemoryBus fan-outs login events to all active subscribers within the
// process. It stands in for a browser BroadcastChannel: per-subscriber
// buffered channels, slow subscribers drop events rather than block.
type MemoryBus struct {
	name string

	mu   sync.RWMutex
	subs map[int]chan LoginEvent
	next int
}

// NewMemoryBus creates an empty bus. The name only identifies the channel in
// logs and config; events do not cross bus instances.
func NewMemoryBus(name string) *MemoryBus {
	return &MemoryBus{
		name: name,
		subs: make(map[int]chan LoginEvent),
	}
}

// Name returns the configured channel name.
func (b *MemoryBus) Name() string { return b.name }

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (b *MemoryBus) Subscribe(ctx context.Context) <-chan LoginEvent {
	ch := make(chan LoginEvent, 16)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (b *MemoryBus) Publish(evt LoginEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
