// Copyright 2026 Peter Edge
//
// All rights reserved.

package fxdashcmd

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/bufdev/fxdash/internal/fxdash/fxdashfetch"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashview"
	"github.com/bufdev/fxdash/internal/pkg/querystring"
	"github.com/stretchr/testify/require"
)

func TestWaitWithRetry(t *testing.T) {
	t.Parallel()
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		controller := newController(
			func(context.Context, string) (string, error) {
				if calls.Add(1) == 1 {
					return "", errors.New("unavailable")
				}
				return "value", nil
			},
		)
		defer controller.Close()
		controller.Set("k")
		state, err := WaitWithRetry(context.Background(), discardLogger(), controller, 1)
		require.NoError(t, err)
		require.Equal(t, fxdashfetch.StatusSuccess, state.Status)
		require.Equal(t, "value", *state.Data)
		require.Equal(t, int32(2), calls.Load())
	})
}

func TestWaitWithRetryExhausted(t *testing.T) {
	t.Parallel()
	synctest.Test(t, func(t *testing.T) {
		controller := newController(
			func(context.Context, string) (string, error) {
				return "", errors.New("unavailable")
			},
		)
		defer controller.Close()
		controller.Set("k")
		state, err := WaitWithRetry(context.Background(), discardLogger(), controller, 2)
		require.ErrorContains(t, err, "failed after 3 attempts")
		require.ErrorContains(t, err, "unavailable")
		require.Equal(t, fxdashfetch.StatusFailed, state.Status)
	})
}

func TestWaitWithRetryIdle(t *testing.T) {
	t.Parallel()
	controller := newController(
		func(context.Context, string) (string, error) {
			return "value", nil
		},
	)
	defer controller.Close()
	controller.Set("")
	_, err := WaitWithRetry(context.Background(), discardLogger(), controller, 3)
	require.ErrorContains(t, err, "nothing to fetch")
}

func TestViewFlagsApply(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	history, err := querystring.NewHistory("")
	require.NoError(t, err)
	store := fxdashview.NewStore(fxdashview.TrendSpec(fxdashview.NewDefaults()), history, func() time.Time { return now })
	defer store.Close()

	viewFlags := &ViewFlags{
		Base:    "GBP",
		Targets: []string{"JPY"},
		Start:   "2024-01-01",
		Swap:    true,
	}
	require.NoError(t, viewFlags.Apply(store))
	params := store.Params()
	require.Equal(t, "JPY", params.Base)
	require.Equal(t, []string{"GBP"}, params.Targets)
	require.Equal(t, "2024-01-01", params.Range.Start.String())
	require.True(t, params.Range.End.IsZero())

	viewFlags = &ViewFlags{Start: "2024-13-01"}
	require.ErrorContains(t, viewFlags.Apply(store), "invalid --start")

	viewFlags = &ViewFlags{End: "2099-01-01"}
	require.Error(t, viewFlags.Apply(store))

	pageFlags := &PageFlags{PageSize: 50}
	require.NoError(t, pageFlags.Apply(store))
	require.Equal(t, 50, store.Params().PageSize)
	pageFlags = &PageFlags{PageSize: 7}
	require.Error(t, pageFlags.Apply(store))
}

func TestShowView(t *testing.T) {
	t.Parallel()
	history, err := querystring.NewHistory("?view=chart&table=table1")
	require.NoError(t, err)
	ShowView(history, fxdashview.ViewTrend)
	shell := fxdashview.ReadShell(history.Values())
	require.Equal(t, fxdashview.PageTable, shell.Page)
	require.Equal(t, fxdashview.TableTrend, shell.Table)
}

func newController(fetch fxdashfetch.FetchFunc[string, string]) *fxdashfetch.Controller[string, string] {
	return fxdashfetch.NewController(
		discardLogger(),
		"test",
		func(params string) (string, bool) { return params, params != "" },
		fetch,
	)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
