package reactive

// CombineLatest3 returns a value recomputed from the latest value of a, b
// and c whenever any of them changes. The returned subscription detaches
// the combinator from its inputs.
func CombineLatest3[A, B, C comparable, R comparable](a *Value[A], b *Value[B], c *Value[C], fn func(A, B, C) R) (*Value[R], *Subscription) {
	out := NewValue(fn(a.Get(), b.Get(), c.Get()))
	recompute := func() { out.Set(fn(a.Get(), b.Get(), c.Get())) }
	sa := a.Subscribe(func(A) { recompute() })
	sb := b.Subscribe(func(B) { recompute() })
	sc := c.Subscribe(func(C) { recompute() })
	return out, newSubscription(func() {
		sa.Close()
		sb.Close()
		sc.Close()
	})
}

// Map derives a value from src.
func Map[T, R comparable](src *Value[T], fn func(T) R) (*Value[R], *Subscription) {
	out := NewValue(fn(src.Get()))
	sub := src.Subscribe(func(v T) { out.Set(fn(v)) })
	return out, sub
}

// Pairwise calls fn with the previous and current value on every change
// after subscription. The emission delivered at subscription time only
// seeds prev.
func Pairwise[T comparable](src *Value[T], fn func(prev, cur T)) *Subscription {
	var (
		prev   T
		seeded bool
	)
	return src.Subscribe(func(v T) {
		if !seeded {
			prev, seeded = v, true
			return
		}
		p := prev
		prev = v
		fn(p, v)
	})
}

// SkipFirst subscribes fn to src without the emission delivered at
// subscription time.
func SkipFirst[T comparable](src *Value[T], fn func(T)) *Subscription {
	skipped := false
	return src.Subscribe(func(v T) {
		if !skipped {
			skipped = true
			return
		}
		fn(v)
	})
}
