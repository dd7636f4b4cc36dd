// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fxdashfetch keeps view data in sync with view parameters.
//
// A Controller owns the data of one view. Every time the parameters change,
// it issues a request and moves through Idle, Loading, Success, and Failed.
// Only the most recent request may update the state: responses to
// superseded requests are discarded when they arrive.
package fxdashfetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bufdev/fxdash/internal/standard/xsync"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Wait when the controller is closed while loading.
var ErrClosed = errors.New("controller closed")

// Status is the status of a Controller.
type Status int

const (
	// StatusIdle means there is no request because a mandatory parameter is missing.
	StatusIdle Status = iota
	// StatusLoading means a request is in flight.
	StatusLoading
	// StatusSuccess means the last request succeeded.
	StatusSuccess
	// StatusFailed means the last request failed.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of a Controller.
type State[T any] struct {
	// Status is the current status.
	Status Status
	// Data is the data of the last successful request. Nil unless Status is StatusSuccess.
	Data *T
	// Err is a human-readable error message. Empty unless Status is StatusFailed.
	Err string
	// Key identifies the parameters of the current request. Empty when idle.
	Key string
}

// KeyFunc returns the key identifying the parameters, and false if a mandatory parameter is missing.
type KeyFunc[P any] func(params P) (string, bool)

// FetchFunc fetches the data for the parameters.
type FetchFunc[P any, T any] func(ctx context.Context, params P) (T, error)

// ControllerOption is an option for a new Controller.
type ControllerOption func(*controllerOptions)

// ControllerWithFallbackMessage sets the error message used when an error has no text.
//
// The default is "failed to get data".
func ControllerWithFallbackMessage(fallbackMessage string) ControllerOption {
	return func(controllerOptions *controllerOptions) {
		controllerOptions.fallbackMessage = fallbackMessage
	}
}

// ControllerWithSingleflightGroup shares in-flight requests with other controllers using the same group.
//
// Controllers sharing a group must use the same key space and data type.
func ControllerWithSingleflightGroup(group *singleflight.Group) ControllerOption {
	return func(controllerOptions *controllerOptions) {
		controllerOptions.group = group
	}
}

// Controller fetches data of type T for parameters of type P.
//
// All methods are safe for concurrent use. Observers are called in
// transition order without any lock held, so they may call any method.
type Controller[P any, T any] struct {
	logger          *slog.Logger
	keyFunc         KeyFunc[P]
	fetchFunc       FetchFunc[P, T]
	fallbackMessage string
	group           *singleflight.Group
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup

	// notifications is pushed to under mu so that observers see transitions in order.
	notifications xsync.Queue[State[T]]

	mu             sync.Mutex
	params         P
	generation     uint64
	state          State[T]
	changed        chan struct{}
	observers      map[int]func(State[T])
	nextObserverID int
	closed         bool
}

// NewController returns a new Controller in the idle state.
//
// The name is used for logging.
func NewController[P any, T any](
	logger *slog.Logger,
	name string,
	keyFunc KeyFunc[P],
	fetchFunc FetchFunc[P, T],
	options ...ControllerOption,
) *Controller[P, T] {
	controllerOptions := newControllerOptions()
	for _, option := range options {
		option(controllerOptions)
	}
	group := controllerOptions.group
	if group == nil {
		group = &singleflight.Group{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller[P, T]{
		logger:          logger.With("controller", name),
		keyFunc:         keyFunc,
		fetchFunc:       fetchFunc,
		fallbackMessage: controllerOptions.fallbackMessage,
		group:           group,
		ctx:             ctx,
		cancel:          cancel,
		changed:         make(chan struct{}),
		observers:       make(map[int]func(State[T])),
	}
}

// Set sets the parameters.
//
// If the key of the parameters differs from the current key, a new request
// is issued and any in-flight request is superseded. If a mandatory
// parameter is missing, the controller becomes idle and drops its data.
// Setting parameters with the current key does nothing.
func (c *Controller[P, T]) Set(params P) {
	key, ok := c.keyFunc(params)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.params = params
	if !ok {
		c.generation++
		if c.state.Status == StatusIdle {
			c.mu.Unlock()
			return
		}
		c.transitionAndUnlock(State[T]{Status: StatusIdle})
		return
	}
	if c.state.Status != StatusIdle && c.state.Key == key {
		c.mu.Unlock()
		return
	}
	c.issueAndUnlock(params, key)
}

// Refetch issues a new request for the current parameters, even if their key is unchanged.
//
// Does nothing if the controller is idle.
func (c *Controller[P, T]) Refetch() {
	c.mu.Lock()
	if c.closed || c.state.Status == StatusIdle {
		c.mu.Unlock()
		return
	}
	c.issueAndUnlock(c.params, c.state.Key)
}

// State returns a snapshot of the current state.
func (c *Controller[P, T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers an observer that is called on every state transition.
//
// Returns a function that unregisters the observer.
func (c *Controller[P, T]) Subscribe(observer func(State[T])) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObserverID
	c.nextObserverID++
	c.observers[id] = observer
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Wait blocks until the controller is not loading and returns the state.
//
// Returns ErrClosed if the controller is closed while loading.
func (c *Controller[P, T]) Wait(ctx context.Context) (State[T], error) {
	for {
		c.mu.Lock()
		state := c.state
		changed := c.changed
		closed := c.closed
		c.mu.Unlock()
		if state.Status != StatusLoading {
			return state, nil
		}
		if closed {
			return state, ErrClosed
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// Close cancels any in-flight request and waits for it to return.
//
// Results that arrive after Close are discarded.
func (c *Controller[P, T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// ErrorMessage returns a human-readable message for err.
//
// Returns fallbackMessage if err is nil or has no text.
func ErrorMessage(err error, fallbackMessage string) string {
	if err == nil {
		return fallbackMessage
	}
	if message := serviceMessage(err); message != "" {
		return message
	}
	if message := err.Error(); message != "" {
		return message
	}
	return fallbackMessage
}

// *** PRIVATE ***

type controllerOptions struct {
	fallbackMessage string
	group           *singleflight.Group
}

func newControllerOptions() *controllerOptions {
	return &controllerOptions{
		fallbackMessage: "failed to get data",
	}
}

// issueAndUnlock must be called with mu held.
func (c *Controller[P, T]) issueAndUnlock(params P, key string) {
	c.generation++
	generation := c.generation
	c.wg.Add(1)
	go c.fetch(generation, params, key)
	c.transitionAndUnlock(
		State[T]{
			Status: StatusLoading,
			Key:    key,
		},
	)
}

func (c *Controller[P, T]) fetch(generation uint64, params P, key string) {
	defer c.wg.Done()
	c.logger.Debug("fetching", "key", key)
	value, err, shared := c.group.Do(key, func() (any, error) {
		return c.fetchFunc(c.ctx, params)
	})
	if err != nil {
		c.logger.Warn("fetch failed", "key", key, "error", err)
	}
	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded response", "key", key)
		return
	}
	if err != nil {
		c.transitionAndUnlock(
			State[T]{
				Status: StatusFailed,
				Err:    ErrorMessage(err, c.fallbackMessage),
				Key:    key,
			},
		)
		return
	}
	data, ok := value.(T)
	if !ok {
		c.transitionAndUnlock(
			State[T]{
				Status: StatusFailed,
				Err:    c.fallbackMessage,
				Key:    key,
			},
		)
		return
	}
	c.logger.Debug("fetch succeeded", "key", key, "shared", shared)
	c.transitionAndUnlock(
		State[T]{
			Status: StatusSuccess,
			Data:   &data,
			Key:    key,
		},
	)
}

// transitionAndUnlock must be called with mu held.
//
// It sets the state, wakes waiters, and calls observers after releasing mu.
// If another goroutine is calling observers, that goroutine calls them instead.
func (c *Controller[P, T]) transitionAndUnlock(state State[T]) {
	c.state = state
	close(c.changed)
	c.changed = make(chan struct{})
	observers := make([]func(State[T]), 0, len(c.observers))
	for id := range c.nextObserverID {
		if observer, ok := c.observers[id]; ok {
			observers = append(observers, observer)
		}
	}
	c.notifications.Push(state, observers)
	c.mu.Unlock()
	c.notifications.Drain()
}
