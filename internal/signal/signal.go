// Package signal provides a value holder that fans changes out to subscribers.
package signal

import (
	"sync"

	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// Value holds the latest T and notifies subscribers on every Set.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	version uint64
	subs    []*subscriber[T]
}

type subscriber[T any] struct {
	ch     chan T
	closed bool
}

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// Get returns the current value and how many times it has been set.
func (v *Value[T]) Get() (T, uint64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current, v.version
}

// Subscribe returns a channel that first receives the current value and then
// every later one. Call the returned function to unsubscribe and close the
// channel.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 16)
	sub := &subscriber[T]{ch: ch}

	v.mu.Lock()
	ch <- v.current
	v.subs = append(v.subs, sub)
	v.mu.Unlock()

	unsub := func() {
		v.mu.Lock()
		defer v.mu.Unlock()

		for i, s := range v.subs {
			if s == sub {
				v.subs = append(v.subs[:i], v.subs[i+1:]...)
				if !s.closed {
					s.closed = true
					close(s.ch)
				}
				break
			}
		}
	}
	return ch, unsub
}

// Set stores next and publishes it. A subscriber whose buffer is full loses
// its oldest pending value, so slow readers always catch up to the latest.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = next
	v.version++
	for _, sub := range v.subs {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- next:
			continue
		default:
		}
		select {
		case <-sub.ch:
			tuilog.Log.Debug("Dropping stale value for slow subscriber", "version", v.version)
		default:
		}
		select {
		case sub.ch <- next:
		default:
		}
	}
}
