// Package broker provides the publish/subscribe registries that the narrative components use to notify each other.
package broker

import "sync"

type subscriber[TPayload any] struct {
	id      uint64
	handler func(TPayload)
}

// Topic delivers payloads synchronously to its subscribers in subscription order.
//
// The subscriber list is copied before delivery and the lock is released while handlers run, so a handler may
// subscribe, unsubscribe, or publish again on the same topic without deadlocking. The zero value is ready to use.
type Topic[TPayload any] struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers []subscriber[TPayload]
}

// Subscribe registers handler and returns the function that removes it again. Calling the returned function more
// than once is harmless.
func (t *Topic[TPayload]) Subscribe(handler func(TPayload)) (unsubscribe func()) {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.subscribers = append(t.subscribers, subscriber[TPayload]{id: id, handler: handler})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(id) })
	}
}

func (t *Topic[TPayload]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subscribers {
		if s.id == id {
			// Copy on removal so that in-flight deliveries keep their snapshot intact.
			next := make([]subscriber[TPayload], 0, len(t.subscribers)-1)
			next = append(next, t.subscribers[:i]...)
			next = append(next, t.subscribers[i+1:]...)
			t.subscribers = next
			return
		}
	}
}

// Publish calls every current subscriber with payload before returning.
func (t *Topic[TPayload]) Publish(payload TPayload) {
	t.mu.Lock()
	snapshot := t.subscribers
	t.mu.Unlock()

	for _, s := range snapshot {
		s.handler(payload)
	}
}

// Len reports the number of subscribers.
func (t *Topic[TPayload]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers)
}
