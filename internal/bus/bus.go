package bus

import (
	"strings"
	"sync"
)

// Bus is an in-process publish/subscribe bus carrying change notifications
// from the record store and sync engine to whoever renders them.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*Subscription
	next int
}

// Subscription is a live subscription. Events arrive on C; Cancel detaches
// the subscription from the bus.
type Subscription struct {
	C <-chan Event

	namespace string
	ch        chan Event
	cancel    func()
}

// Cancel detaches the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subs: make(map[int]*Subscription),
	}
}

// Publish delivers an event to every subscriber whose namespace is a
// prefix of event.Kind. Delivery is non-blocking: a subscriber that has
// fallen behind loses the event rather than stalling the publisher.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if strings.HasPrefix(evt.Kind, sub.namespace) {
			select {
			case sub.ch <- evt:
			default:
			}
		}
	}
}

// Subscribe registers interest in events whose Kind starts with namespace.
// bufSize controls how many undelivered events may queue before drops.
func (b *Bus) Subscribe(namespace string, bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, namespace: namespace, ch: ch}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	sub.cancel = func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
	return sub
}
