// Package bus is the local change-notification bus. Presentation layers
// subscribe per entity type and receive an event after every successful
// local commit and every pull merge.
package bus

import (
	"sync"
	"time"

	"studiosync/internal/domain/entity"
)

// Origin says which direction produced the change.
type Origin string

const (
	OriginLocal Origin = "local"
	OriginPull  Origin = "pull"
)

type Event struct {
	Type   entity.Type
	ID     string
	Origin Origin
	At     time.Time
}

type subscriber struct {
	typ entity.Type
	ch  chan Event
}

// Bus fans events out to subscribers. Delivery is non-blocking: a subscriber
// that stops reading drops events rather than stalling the writer path.
type Bus struct {
	mu   sync.Mutex
	subs map[int]*subscriber
	next int
}

func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe registers for events of one entity type. The returned function
// unsubscribes and closes the channel; dropping it leaks the listener, so
// callers defer it.
func (b *Bus) Subscribe(typ entity.Type) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	sub := &subscriber{typ: typ, ch: make(chan Event, 16)}
	b.subs[id] = sub

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, unsubscribe
}

func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.typ != ev.Type {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
