package events

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/etesdev/etes/pkg/log"
	"github.com/etesdev/etes/pkg/metrics"
)

// Capacity bounds the main event channel and each subscriber buffer.
const Capacity = 512

// Subscriber is a channel that receives events
type Subscriber chan Event

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan Event
	stopCh      chan struct{}
	logger      zerolog.Logger
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan Event, Capacity),
		stopCh:      make(chan struct{}),
		logger:      log.WithComponent("events"),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, Capacity)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel. It is safe
// to call more than once for the same subscriber.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish queues an event for distribution to all subscribers.
func (b *Broker) Publish(event Event) {
	select {
	case b.eventCh <- event:
		metrics.EventsPublished.Inc()
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.subscribers) == 0 {
		metrics.EventsDropped.Inc()
		b.logger.Warn().Str("event", Name(event)).Msg("Failed to send event")
		return
	}

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
			metrics.EventsDropped.Inc()
			b.logger.Warn().Str("event", Name(event)).Msg("Dropping event for slow subscriber")
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
