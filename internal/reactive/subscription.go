package reactive

import "sync"

// Subscription releases one registration. Close is idempotent.
type Subscription struct {
	once    sync.Once
	release func()
}

func newSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}

// Scope collects subscriptions owned by one component and releases all of
// them, newest first, when the component is torn down.
type Scope struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// Add registers sub with the scope. Adding to a closed scope closes sub
// immediately.
func (sc *Scope) Add(sub *Subscription) *Subscription {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		sub.Close()
		return sub
	}
	sc.subs = append(sc.subs, sub)
	sc.mu.Unlock()
	return sub
}

// OnClose registers an arbitrary release step.
func (sc *Scope) OnClose(fn func()) {
	sc.Add(newSubscription(fn))
}

func (sc *Scope) Close() {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		return
	}
	sc.closed = true
	subs := sc.subs
	sc.subs = nil
	sc.mu.Unlock()
	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].Close()
	}
}

func (sc *Scope) Closed() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.closed
}
