// Copyright 2026 Peter Edge
//
// All rights reserved.

package fxdashfetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"
)

func TestLastRequestWins(t *testing.T) {
	t.Parallel()
	fetcher := newGatedFetcher("p1", "p2")
	controller := NewController(discardLogger(), "test", stringKey, fetcher.fetch)
	recorder := &statusRecorder{}
	controller.Subscribe(recorder.record)

	controller.Set("p1")
	controller.Set("p2")
	fetcher.release("p2", "two", nil)
	state, err := controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, state.Status)
	require.Equal(t, "two", *state.Data)

	// The response to p1 arrives after p2 and must be discarded.
	fetcher.release("p1", "one", nil)
	controller.Close()
	state = controller.State()
	require.Equal(t, StatusSuccess, state.Status)
	require.Equal(t, "two", *state.Data)
	require.Equal(t, "p2", state.Key)
	require.Equal(t, []Status{StatusLoading, StatusLoading, StatusSuccess}, recorder.statuses())
}

func TestIdleWithoutMandatoryParameter(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	controller := NewController(
		discardLogger(),
		"test",
		stringKey,
		func(context.Context, string) (string, error) {
			calls.Add(1)
			return "value", nil
		},
	)
	defer controller.Close()
	controller.Set("")
	state, err := controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusIdle, state.Status)
	require.Nil(t, state.Data)

	controller.Set("a")
	state, err = controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, state.Status)

	// Clearing the mandatory parameter drops the data.
	controller.Set("")
	state = controller.State()
	require.Equal(t, StatusIdle, state.Status)
	require.Nil(t, state.Data)
	require.Empty(t, state.Key)
	require.Equal(t, int32(1), calls.Load())
}

func TestFailureDropsData(t *testing.T) {
	t.Parallel()
	controller := NewController(
		discardLogger(),
		"test",
		stringKey,
		func(_ context.Context, params string) (string, error) {
			if params == "bad" {
				return "", errors.New("boom")
			}
			return params, nil
		},
	)
	defer controller.Close()
	controller.Set("good")
	state, err := controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "good", *state.Data)

	controller.Set("bad")
	state, err = controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, state.Status)
	require.Nil(t, state.Data)
	require.Equal(t, "boom", state.Err)
}

func TestSetSameKeyIsNoop(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	controller := NewController(
		discardLogger(),
		"test",
		stringKey,
		func(_ context.Context, params string) (string, error) {
			calls.Add(1)
			return params, nil
		},
	)
	defer controller.Close()
	controller.Set("a")
	_, err := controller.Wait(context.Background())
	require.NoError(t, err)
	controller.Set("a")
	_, err = controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	controller.Refetch()
	state, err := controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, state.Status)
	require.Equal(t, int32(2), calls.Load())
}

func TestRefetchAfterFailure(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	controller := NewController(
		discardLogger(),
		"test",
		stringKey,
		func(_ context.Context, params string) (string, error) {
			if calls.Add(1) == 1 {
				return "", errors.New("temporary")
			}
			return params, nil
		},
	)
	defer controller.Close()
	controller.Set("a")
	state, err := controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, state.Status)

	controller.Refetch()
	state, err = controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, state.Status)
	require.Equal(t, "a", *state.Data)
	require.Empty(t, state.Err)
}

func TestSharedInFlightRequest(t *testing.T) {
	t.Parallel()
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		gate := make(chan struct{})
		fetch := func(_ context.Context, params string) (string, error) {
			calls.Add(1)
			<-gate
			return params, nil
		}
		group := &singleflight.Group{}
		first := NewController(discardLogger(), "first", stringKey, fetch, ControllerWithSingleflightGroup(group))
		second := NewController(discardLogger(), "second", stringKey, fetch, ControllerWithSingleflightGroup(group))
		first.Set("k")
		synctest.Wait()
		second.Set("k")
		synctest.Wait()
		close(gate)
		synctest.Wait()
		require.Equal(t, int32(1), calls.Load())
		require.Equal(t, StatusSuccess, first.State().Status)
		require.Equal(t, StatusSuccess, second.State().Status)
		first.Close()
		second.Close()
	})
}

func TestWaitClosed(t *testing.T) {
	t.Parallel()
	fetcher := newGatedFetcher("a")
	controller := NewController(discardLogger(), "test", stringKey, fetcher.fetch)
	controller.Set("a")
	// Close cancels the fetch context, which unblocks the gated fetch.
	controller.Close()
	state, err := controller.Wait(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.Equal(t, StatusLoading, state.Status)
	// Set after Close does nothing.
	controller.Set("b")
	require.Equal(t, "a", controller.State().Key)
}

func TestTimeSeriesController(t *testing.T) {
	t.Parallel()
	client := &fakeClient{
		getTimeSeries: func(request frankfurter.TimeSeriesRequest) (*frankfurter.TimeSeries, error) {
			if request.Base == "XXX" {
				return nil, &frankfurter.ServiceError{Path: "/timeseries", StatusCode: 404, Message: "not found"}
			}
			return &frankfurter.TimeSeries{
				Base: request.Base,
				Rates: map[string]map[string]decimal.Decimal{
					"2024-01-01": {"EUR": decimal.RequireFromString("0.9")},
				},
			}, nil
		},
	}
	controller := NewTimeSeriesController(discardLogger(), "chart", client)
	defer controller.Close()

	controller.Set(frankfurter.TimeSeriesRequest{Base: "USD", Symbols: []string{"EUR"}})
	require.Equal(t, StatusIdle, controller.State().Status)
	require.Equal(t, int32(0), client.timeSeriesCalls.Load())

	controller.Set(frankfurter.TimeSeriesRequest{Base: "USD", Symbols: []string{"EUR"}, StartDate: "2024-01-01"})
	state, err := controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, state.Status)
	require.Equal(t, "USD|EUR|2024-01-01|", state.Key)
	require.Equal(t, "USD", state.Data.Base)

	controller.Set(frankfurter.TimeSeriesRequest{Base: "XXX", StartDate: "2024-01-01"})
	state, err = controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, state.Status)
	require.Equal(t, "not found", state.Err)
}

func TestCurrenciesController(t *testing.T) {
	t.Parallel()
	client := &fakeClient{
		getCurrencies: func() (frankfurter.CurrencyCatalog, error) {
			return frankfurter.CurrencyCatalog{"USD": "United States Dollar", "EUR": "Euro"}, nil
		},
	}
	controller := NewCurrenciesController(discardLogger(), client)
	defer controller.Close()
	require.Nil(t, controller.CurrencyList())
	controller.Load()
	_, err := controller.Wait(context.Background())
	require.NoError(t, err)
	controller.Load()
	_, err = controller.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(
		t,
		[]frankfurter.Currency{
			{Code: "EUR", Name: "Euro"},
			{Code: "USD", Name: "United States Dollar"},
		},
		controller.CurrencyList(),
	)
	require.Equal(t, int32(1), client.currenciesCalls.Load())
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()
	require.Equal(t, TimeSeriesFallbackMessage, ErrorMessage(nil, TimeSeriesFallbackMessage))
	require.Equal(t, CurrenciesFallbackMessage, ErrorMessage(errors.New(""), CurrenciesFallbackMessage))
	require.Equal(t, "boom", ErrorMessage(errors.New("boom"), TimeSeriesFallbackMessage))
	require.Equal(
		t,
		"rate service returned 500 Internal Server Error for /currencies",
		ErrorMessage(&frankfurter.ServiceError{Path: "/currencies", StatusCode: 500}, CurrenciesFallbackMessage),
	)
}

func TestObserverReadsStateDuringSet(t *testing.T) {
	t.Parallel()
	controller := NewController(
		discardLogger(),
		"test",
		stringKey,
		func(_ context.Context, params string) (string, error) {
			return params, nil
		},
	)
	defer controller.Close()
	unsubscribe := controller.Subscribe(func(State[string]) {
		_ = controller.State()
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 200 {
			controller.Set(fmt.Sprintf("k%d", i))
		}
		unsubscribe()
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Set blocked while an observer read the state")
	}
}

func TestObserverCanSet(t *testing.T) {
	t.Parallel()
	controller := NewController(
		discardLogger(),
		"test",
		stringKey,
		func(_ context.Context, params string) (string, error) {
			return params, nil
		},
	)
	defer controller.Close()
	controller.Subscribe(func(state State[string]) {
		if state.Status == StatusSuccess && state.Key == "first" {
			controller.Set("second")
		}
	})
	controller.Set("first")
	require.Eventually(
		t,
		func() bool {
			state := controller.State()
			return state.Status == StatusSuccess && state.Key == "second"
		},
		5*time.Second,
		time.Millisecond,
	)
}

func TestStatusString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "idle", StatusIdle.String())
	require.Equal(t, "loading", StatusLoading.String())
	require.Equal(t, "success", StatusSuccess.String())
	require.Equal(t, "failed", StatusFailed.String())
}

type result struct {
	value string
	err   error
}

type gatedFetcher struct {
	gates map[string]chan result
}

func newGatedFetcher(keys ...string) *gatedFetcher {
	gates := make(map[string]chan result, len(keys))
	for _, key := range keys {
		gates[key] = make(chan result, 1)
	}
	return &gatedFetcher{gates: gates}
}

func (g *gatedFetcher) fetch(ctx context.Context, params string) (string, error) {
	select {
	case r := <-g.gates[params]:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedFetcher) release(key string, value string, err error) {
	g.gates[key] <- result{value: value, err: err}
}

type statusRecorder struct {
	mu    sync.Mutex
	value []Status
}

func (s *statusRecorder) record(state State[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = append(s.value, state.Status)
}

func (s *statusRecorder) statuses() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Status(nil), s.value...)
}

type fakeClient struct {
	getTimeSeries   func(frankfurter.TimeSeriesRequest) (*frankfurter.TimeSeries, error)
	getCurrencies   func() (frankfurter.CurrencyCatalog, error)
	timeSeriesCalls atomic.Int32
	currenciesCalls atomic.Int32
}

func (f *fakeClient) GetTimeSeries(_ context.Context, request frankfurter.TimeSeriesRequest) (*frankfurter.TimeSeries, error) {
	f.timeSeriesCalls.Add(1)
	return f.getTimeSeries(request)
}

func (f *fakeClient) GetCurrencies(context.Context) (frankfurter.CurrencyCatalog, error) {
	f.currenciesCalls.Add(1)
	return f.getCurrencies()
}

func (f *fakeClient) ClearCurrencyCache() {}

func stringKey(params string) (string, bool) {
	return params, params != ""
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
