package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, sub Subscriber) Event {
	t.Helper()
	select {
	case event := <-sub:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestBrokerFanout(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	first := broker.Subscribe()
	second := broker.Subscribe()
	defer broker.Unsubscribe(first)
	defer broker.Unsubscribe(second)

	assert.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(MemoryState{Used: 1, Total: 2})

	assert.Equal(t, MemoryState{Used: 1, Total: 2}, recvEvent(t, first))
	assert.Equal(t, MemoryState{Used: 1, Total: 2}, recvEvent(t, second))
}

func TestBrokerPreservesOrder(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for i := 0; i < 100; i++ {
		broker.Publish(MemoryState{Used: uint64(i)})
	}

	for i := 0; i < 100; i++ {
		event := recvEvent(t, sub)
		state, ok := event.(MemoryState)
		require.True(t, ok)
		assert.Equal(t, uint64(i), state.Used)
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	slow := broker.Subscribe()
	fast := broker.Subscribe()
	defer broker.Unsubscribe(slow)
	defer broker.Unsubscribe(fast)

	// Fill the slow subscriber exactly to capacity, draining fast so it
	// never overflows. Draining fast also proves the broadcast loop has
	// processed everything published so far.
	for i := 0; i < Capacity; i++ {
		broker.Publish(MemoryState{Used: uint64(i)})
	}
	for i := 0; i < Capacity; i++ {
		recvEvent(t, fast)
	}
	require.Equal(t, Capacity, len(slow))

	// One more event overflows the slow buffer and is dropped for it.
	broker.Publish(MemoryState{Used: uint64(Capacity)})
	overflow := recvEvent(t, fast)
	assert.Equal(t, MemoryState{Used: uint64(Capacity)}, overflow)

	require.Equal(t, Capacity, len(slow))
	for i := 0; i < Capacity; i++ {
		state, ok := recvEvent(t, slow).(MemoryState)
		require.True(t, ok)
		assert.Equal(t, uint64(i), state.Used)
	}
	assert.Empty(t, slow)
}

func TestBrokerPublishWithoutSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	// Dropped with a warning, must not panic or wedge the loop.
	broker.Publish(MemoryState{Used: 1})

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Publish(MemoryState{Used: 2})
	assert.Equal(t, MemoryState{Used: 2}, recvEvent(t, sub))
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.Unsubscribe(sub)
	assert.Equal(t, 0, broker.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)

	// Unsubscribing twice is a no-op.
	broker.Unsubscribe(sub)
}

func TestBrokerPublishAfterStop(t *testing.T) {
	broker := NewBroker()
	broker.Start()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Stop()

	// Returns without blocking once the broker is stopped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < Capacity*2; i++ {
			broker.Publish(MemoryState{Used: uint64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked after stop")
	}
}
