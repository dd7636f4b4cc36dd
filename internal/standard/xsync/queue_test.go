// Copyright 2026 Peter Edge
//
// All rights reserved.

package xsync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	t.Parallel()
	queue := &Queue[int]{}
	var got []int
	observer := func(value int) { got = append(got, value) }
	queue.Push(1, []func(int){observer})
	queue.Push(2, []func(int){observer, observer})
	queue.Push(3, nil)
	queue.Drain()
	require.Equal(t, []int{1, 2, 2}, got)
	queue.Drain()
	require.Equal(t, []int{1, 2, 2}, got)
}

func TestQueuePushFromObserver(t *testing.T) {
	t.Parallel()
	queue := &Queue[int]{}
	var got []int
	var observer func(int)
	observer = func(value int) {
		got = append(got, value)
		if value < 3 {
			queue.Push(value+1, []func(int){observer})
			// The outer Drain delivers the pushed value after this observer returns.
			queue.Drain()
			require.Equal(t, value, got[len(got)-1])
		}
	}
	queue.Push(1, []func(int){observer})
	queue.Drain()
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestQueueConcurrent(t *testing.T) {
	t.Parallel()
	queue := &Queue[int]{}
	var mu sync.Mutex
	count := 0
	observer := func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	}
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			queue.Push(i, []func(int){observer})
			queue.Drain()
		})
	}
	wg.Wait()
	queue.Drain()
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 50, count)
}

func TestQueueObserverPanic(t *testing.T) {
	t.Parallel()
	queue := &Queue[int]{}
	queue.Push(1, []func(int){func(int) { panic("observer") }})
	require.Panics(t, queue.Drain)
	var got []int
	queue.Push(2, []func(int){func(value int) { got = append(got, value) }})
	queue.Drain()
	require.Equal(t, []int{2}, got)
}
