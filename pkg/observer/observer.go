// Package observer provides callback lists.
package observer

// List is an ordered set of callbacks. It is not synchronized.
type List[T any] struct {
	subs []*sub[T]
}

type sub[T any] struct {
	fn func(T)
}

// Subscribe adds fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (l *List[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s := &sub[T]{fn: fn}
	l.subs = append(l.subs, s)
	return func() {
		for i, other := range l.subs {
			if other == s {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every subscriber with v in registration order. Subscribers
// added or removed during Notify take effect on the next call.
func (l *List[T]) Notify(v T) {
	for _, s := range l.subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (l *List[T]) Len() int {
	return len(l.subs)
}
