// Copyright 2026 Peter Edge
//
// All rights reserved.

package fxdashview

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bufdev/fxdash/internal/fxdash/fxdashfetch"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashseries"
	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/bufdev/fxdash/internal/pkg/querystring"
	"github.com/bufdev/fxdash/internal/standard/xsync"
	"github.com/bufdev/fxdash/internal/standard/xtime"
)

// Store holds the Params of a mounted view and keeps them in the address.
//
// All methods are safe for concurrent use.
type Store struct {
	spec    Spec
	history *querystring.History
	now     func() time.Time

	// notifications is pushed to under mu so that listeners see changes in order.
	notifications xsync.Queue[Params]

	mu             sync.Mutex
	params         Params
	listeners      map[int]func(Params)
	nextListenerID int
}

// NewStore mounts the view: it reads the Params from the current address
// and writes their canonical form back.
func NewStore(spec Spec, history *querystring.History, now func() time.Time) *Store {
	params := ReadParams(spec, history.Values())
	history.Write(WritePatch(spec, params))
	return &Store{
		spec:      spec,
		history:   history,
		now:       now,
		params:    params,
		listeners: make(map[int]func(Params)),
	}
}

// Spec returns the Spec of the view.
func (s *Store) Spec() Spec {
	return s.spec
}

// Params returns a copy of the current Params.
func (s *Store) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// Request returns the time series request for the current Params.
func (s *Store) Request() frankfurter.TimeSeriesRequest {
	return EffectiveRequest(s.Params(), s.now())
}

// OnChange registers a listener that is called with the new Params after every change.
//
// Returns a function that unregisters the listener.
func (s *Store) OnChange(listener func(Params)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// SetBase sets the base currency.
func (s *Store) SetBase(base string) error {
	if base == "" {
		return &frankfurter.ValidationError{Field: "base", Message: "must not be empty"}
	}
	s.update(func(params *Params) bool {
		params.Base = base
		return true
	})
	return nil
}

// SetTargets sets the target currencies.
//
// For a single-target view only the first target is kept, and an empty
// list keeps the current target.
func (s *Store) SetTargets(targets []string) {
	targets = slices.DeleteFunc(slices.Clone(targets), func(target string) bool { return target == "" })
	s.update(func(params *Params) bool {
		if !s.spec.MultiTarget {
			if len(targets) == 0 {
				return false
			}
			targets = targets[:1]
		}
		params.Targets = targets
		return true
	})
}

// SetRange sets the date range.
//
// Returns a *frankfurter.ValidationError if the start is after the end or
// either date is after today.
func (s *Store) SetRange(dateRange DateRange) error {
	today := xtime.Today(s.now())
	if !dateRange.Start.IsZero() && dateRange.Start.After(today) {
		return &frankfurter.ValidationError{Field: "start_date", Message: fmt.Sprintf("%s is in the future", dateRange.Start)}
	}
	if !dateRange.End.IsZero() && dateRange.End.After(today) {
		return &frankfurter.ValidationError{Field: "end_date", Message: fmt.Sprintf("%s is in the future", dateRange.End)}
	}
	if !dateRange.Start.IsZero() && !dateRange.End.IsZero() && dateRange.Start.After(dateRange.End) {
		return &frankfurter.ValidationError{Field: "start_date", Message: fmt.Sprintf("%s is after end date %s", dateRange.Start, dateRange.End)}
	}
	s.update(func(params *Params) bool {
		params.Range = dateRange
		return true
	})
	return nil
}

// SetPeriod sets the period of the chart.
func (s *Store) SetPeriod(period fxdashseries.Period) error {
	if !s.spec.HasPeriod {
		return fmt.Errorf("view %q has no period", s.spec.Name)
	}
	if _, err := fxdashseries.ParsePeriod(string(period)); err != nil {
		return &frankfurter.ValidationError{Field: "period", Message: err.Error()}
	}
	s.update(func(params *Params) bool {
		params.Period = period
		return true
	})
	return nil
}

// SetPageSize sets the page size of a table.
func (s *Store) SetPageSize(pageSize int) error {
	if !s.spec.HasPageSize {
		return fmt.Errorf("view %q has no page size", s.spec.Name)
	}
	if !slices.Contains(AllowedPageSizes, pageSize) {
		return &frankfurter.ValidationError{Field: "page_size", Message: fmt.Sprintf("must be one of %v", AllowedPageSizes)}
	}
	s.update(func(params *Params) bool {
		params.PageSize = pageSize
		return true
	})
	return nil
}

// Swap exchanges the base currency with the only target currency.
//
// Returns false and leaves the Params untouched if there is not exactly one target.
func (s *Store) Swap() bool {
	swapped := false
	s.update(func(params *Params) bool {
		base, targets, ok := Swap(params.Base, params.Targets)
		if !ok {
			return false
		}
		params.Base = base
		params.Targets = targets
		swapped = true
		return true
	})
	return swapped
}

// Close unmounts the view. The address keeps the view's keys.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.listeners)
}

// Bind keeps the controller's request in sync with the Store.
//
// Sets the current request immediately and again after every change.
// Returns a function that stops the binding.
func Bind(store *Store, controller *fxdashfetch.TimeSeriesController) func() {
	unsubscribe := store.OnChange(func(params Params) {
		controller.Set(EffectiveRequest(params, store.now()))
	})
	controller.Set(store.Request())
	return unsubscribe
}

// *** PRIVATE ***

// update applies f to a copy of the Params. If f returns true and the
// Params changed, the address is written and listeners are called.
func (s *Store) update(f func(*Params) bool) {
	s.mu.Lock()
	params := s.params.Clone()
	if !f(&params) || params.Equal(s.params) {
		s.mu.Unlock()
		return
	}
	s.params = params
	s.history.Write(WritePatch(s.spec, params))
	listeners := make([]func(Params), 0, len(s.listeners))
	for id := range s.nextListenerID {
		if listener, ok := s.listeners[id]; ok {
			listeners = append(listeners, func(params Params) { listener(params.Clone()) })
		}
	}
	s.notifications.Push(params.Clone(), listeners)
	s.mu.Unlock()
	s.notifications.Drain()
}
