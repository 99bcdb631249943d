package core

import (
	"sync"

	"github.com/rs/zerolog"
)

const defaultSubscriberBuffer = 64

// Bus fans events out to subscribers. Publish never blocks; a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan *Event
	next int
	log  *zerolog.Logger
}

// NewBus creates a bus with no subscribers.
func NewBus(logger *zerolog.Logger) *Bus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bus{subs: make(map[int]chan *Event), log: logger}
}

// Subscribe registers a subscriber. The returned cancel function removes it
// and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan *Event, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan *Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber that has room for it.
func (b *Bus) Publish(ev *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Drop if slow consumer.
			b.log.Debug().Int("subscriber", id).Str("event", ev.Kind.String()).Msg("subscriber full, event dropped")
		}
	}
}
