// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package xsync provides extensions to the standard sync package.
package xsync

import (
	"sync"
)

// Queue delivers values to observers in the order they were pushed.
//
// No lock is held while an observer runs, so observers may call back into
// the type that owns the Queue. Push while holding the owner's lock to fix
// the order, then call Drain after releasing it.
type Queue[V any] struct {
	mu       sync.Mutex
	pending  []delivery[V]
	draining bool
}

// Push appends a value and the observers to deliver it to.
func (q *Queue[V]) Push(value V, observers []func(V)) {
	if len(observers) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, delivery[V]{value: value, observers: observers})
}

// Drain delivers pending values until none remain.
//
// If another goroutine is already draining, Drain returns immediately and
// that goroutine delivers the values pushed so far.
func (q *Queue[V]) Drain() {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	for {
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending[0] = delivery[V]{}
		q.pending = q.pending[1:]
		q.mu.Unlock()
		q.deliver(next)
		q.mu.Lock()
	}
}

// *** PRIVATE ***

type delivery[V any] struct {
	value     V
	observers []func(V)
}

// deliver releases the drain if an observer panics.
func (q *Queue[V]) deliver(next delivery[V]) {
	delivered := false
	defer func() {
		if !delivered {
			q.mu.Lock()
			q.draining = false
			q.mu.Unlock()
		}
	}()
	for _, observer := range next.observers {
		observer(next.value)
	}
	delivered = true
}
