// Package reactive provides the small set of observable primitives the
// installer screens are built from: a latest-value cell with change
// notification, a fire-and-forget event, and a few combinators.
//
// Callbacks always run synchronously on the goroutine that caused the
// change and never while an internal lock is held, so a callback may set
// other values (or the same one).
package reactive

import "sync"

// Value holds the latest value of T and notifies subscribers when it
// changes.
type Value[T comparable] struct {
	mu   sync.Mutex
	v    T
	subs subscribers[T]
}

func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{v: initial}
}

func (s *Value[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

// Set stores v and notifies subscribers. Setting the current value again is
// not a change and notifies nobody.
func (s *Value[T]) Set(v T) {
	s.mu.Lock()
	if s.v == v {
		s.mu.Unlock()
		return
	}
	s.v = v
	fns := s.subs.snapshot()
	s.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe calls fn with the current value right away and again after
// every change, until the returned subscription is closed.
func (s *Value[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	id := s.subs.add(fn)
	cur := s.v
	s.mu.Unlock()
	fn(cur)
	return newSubscription(func() {
		s.mu.Lock()
		s.subs.remove(id)
		s.mu.Unlock()
	})
}

// Event is a signal without a payload, such as "save everything now".
type Event struct {
	mu   sync.Mutex
	subs subscribers[struct{}]
}

func NewEvent() *Event { return &Event{} }

func (e *Event) Fire() {
	e.mu.Lock()
	fns := e.subs.snapshot()
	e.mu.Unlock()
	for _, fn := range fns {
		fn(struct{}{})
	}
}

func (e *Event) Subscribe(fn func()) *Subscription {
	e.mu.Lock()
	id := e.subs.add(func(struct{}) { fn() })
	e.mu.Unlock()
	return newSubscription(func() {
		e.mu.Lock()
		e.subs.remove(id)
		e.mu.Unlock()
	})
}

// subscribers keeps callbacks in subscription order.
type subscribers[T any] struct {
	next int
	ids  []int
	fns  map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) int {
	if s.fns == nil {
		s.fns = map[int]func(T){}
	}
	id := s.next
	s.next++
	s.ids = append(s.ids, id)
	s.fns[id] = fn
	return id
}

func (s *subscribers[T]) remove(id int) {
	if _, ok := s.fns[id]; !ok {
		return
	}
	delete(s.fns, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
}

func (s *subscribers[T]) snapshot() []func(T) {
	out := make([]func(T), 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.fns[id])
	}
	return out
}
