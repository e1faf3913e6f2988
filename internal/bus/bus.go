// Package bus is an in-process typed publish/subscribe dispatcher. Events are
// routed by exact runtime type: a listener subscribed for T is never invoked
// for any other type, supertypes included.
package bus

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Bus routes posted events to subscriptions registered for the event's exact
// type. Registration and dispatch are safe under concurrent use; each Post
// runs its listeners synchronously on the calling goroutine in registration
// order.
type Bus struct {
	mu   sync.RWMutex
	subs map[reflect.Type][]*Subscription
}

// Subscription is the explicit-lifetime handle for a registered listener.
// Owners unsubscribe on teardown; a forgotten handle keeps its listener
// alive.
type Subscription struct {
	bus    *Bus
	typ    reflect.Type
	fn     func(any)
	closed atomic.Bool
}

// Unsubscribe detaches the listener. Safe to call more than once and
// concurrently with Post; a dispatch already in flight may still deliver one
// last event.
func (s *Subscription) Unsubscribe() {
	if s.closed.Swap(true) {
		return
	}
	s.bus.remove(s)
}

func New() *Bus {
	return &Bus{subs: make(map[reflect.Type][]*Subscription)}
}

// Subscribe registers fn for events of exact type T and returns its handle.
func Subscribe[T any](b *Bus, fn func(T)) *Subscription {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	sub := &Subscription{
		bus: b,
		typ: typ,
		fn:  func(e any) { fn(e.(T)) },
	}
	b.mu.Lock()
	b.subs[typ] = append(b.subs[typ], sub)
	b.mu.Unlock()
	return sub
}

// Post dispatches event to every live subscription registered for its exact
// runtime type, in registration order, on the caller's goroutine. There is no
// queueing: Post returns after the last listener has run. A panicking
// listener is a program error and propagates to the caller unrecovered.
func (b *Bus) Post(event any) {
	typ := reflect.TypeOf(event)

	b.mu.RLock()
	bucket := b.subs[typ]
	live := make([]*Subscription, 0, len(bucket))
	stale := false
	for _, sub := range bucket {
		if sub.closed.Load() {
			stale = true
			continue
		}
		live = append(live, sub)
	}
	b.mu.RUnlock()

	if stale {
		b.prune(typ)
	}
	for _, sub := range live {
		sub.fn(event)
	}
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bucket := b.subs[sub.typ]
	for i, s := range bucket {
		if s == sub {
			b.subs[sub.typ] = append(bucket[:i:i], bucket[i+1:]...)
			return
		}
	}
}

// prune drops closed subscriptions left behind by an Unsubscribe that raced
// with a concurrent Post.
func (b *Bus) prune(typ reflect.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bucket := b.subs[typ]
	kept := bucket[:0]
	for _, s := range bucket {
		if !s.closed.Load() {
			kept = append(kept, s)
		}
	}
	b.subs[typ] = kept
}

// activeCount reports live subscriptions for a type; used by tests.
func (b *Bus) activeCount(typ reflect.Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, s := range b.subs[typ] {
		if !s.closed.Load() {
			n++
		}
	}
	return n
}
