package inproc

import (
	"errors"
	"sync"

	"agentcrew/internal/domain"
)

var ErrSubscriberQueueFull = errors.New("subscriber queue is full")

// Bus fans activity entries out to every registered subscriber. Publishing
// never blocks; a subscriber whose queue is full misses the entry.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan domain.Activity
	buffer int
}

func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[string]chan domain.Activity),
		buffer: buffer,
	}
}

func (b *Bus) Subscribe(subscriberID string) <-chan domain.Activity {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[subscriberID]; ok {
		return ch
	}
	ch := make(chan domain.Activity, b.buffer)
	b.subs[subscriberID] = ch
	return ch
}

func (b *Bus) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[subscriberID]
	if !ok {
		return
	}
	delete(b.subs, subscriberID)
	close(ch)
}

// Publish returns ErrSubscriberQueueFull when at least one subscriber
// dropped the entry. The others still receive it.
func (b *Bus) Publish(a domain.Activity) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var dropped bool
	for _, ch := range b.subs {
		select {
		case ch <- a:
		default:
			dropped = true
		}
	}
	if dropped {
		return ErrSubscriberQueueFull
	}
	return nil
}
