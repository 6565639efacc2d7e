package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// Broker fans registry events out to every live subscription. Publishing
// never waits on a slow reader: an event that does not fit a subscription's
// buffer is skipped for that subscription and reported to the drop handler.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	done   chan struct{}
	buffer int
	onDrop func(EventType)
	now    func() time.Time
}

var (
	_ Publisher[RegistryEvent]  = (*Broker[RegistryEvent])(nil)
	_ Subscriber[RegistryEvent] = (*Broker[RegistryEvent])(nil)
)

// BrokerOption configures a Broker.
type BrokerOption func(*brokerConfig)

type brokerConfig struct {
	buffer int
	onDrop func(EventType)
}

// WithBufferSize sets how many undelivered events each subscription holds.
func WithBufferSize(n int) BrokerOption {
	return func(c *brokerConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithDropHandler is called, under the broker's read lock, for every event
// skipped because a subscription was full.
func WithDropHandler(fn func(EventType)) BrokerOption {
	return func(c *brokerConfig) {
		c.onDrop = fn
	}
}

// NewBroker creates an open broker.
func NewBroker[T any](opts ...BrokerOption) *Broker[T] {
	cfg := brokerConfig{buffer: defaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		done:   make(chan struct{}),
		buffer: cfg.buffer,
		onDrop: cfg.onDrop,
		now:    time.Now,
	}
}

// Subscribe returns a channel of events published from now on. The channel
// is closed when ctx ends or the broker closes; after Close it is returned
// already closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := make(chan Event[T], b.buffer)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed() {
			return
		}
		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish stamps payload and offers it to every subscription.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed() {
		return
	}

	event := Event[T]{Type: eventType, Payload: payload, Timestamp: b.now()}
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			if b.onDrop != nil {
				b.onDrop(eventType)
			}
		}
	}
}

// Close closes every subscription. Later calls are no-ops.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed() {
		return
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// closed reports whether Close has run. Callers hold b.mu.
func (b *Broker[T]) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
