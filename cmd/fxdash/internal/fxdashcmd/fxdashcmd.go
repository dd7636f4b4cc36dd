// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fxdashcmd provides shared wiring for fxdash commands that mount
// views (reading config, constructing the rate client, applying flags,
// fetching with retries).
package fxdashcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashconfig"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashfetch"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashview"
	"github.com/bufdev/fxdash/internal/pkg/backoff"
	"github.com/bufdev/fxdash/internal/pkg/cliio"
	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/bufdev/fxdash/internal/pkg/querystring"
	"github.com/bufdev/fxdash/internal/pkg/ttlcache"
	"github.com/bufdev/fxdash/internal/standard/xtime"
	"github.com/spf13/pflag"
)

const (
	// AddressFlagName is the flag name for the page address.
	AddressFlagName = "address"
	// FormatFlagName is the flag name for the output format.
	FormatFlagName = "format"
	// RetryFlagName is the flag name for the number of retries after a failed fetch.
	RetryFlagName = "retry"
	// BaseFlagName is the flag name for the base currency.
	BaseFlagName = "base"
	// TargetFlagName is the flag name for the target currencies.
	TargetFlagName = "target"
	// StartFlagName is the flag name for the start date.
	StartFlagName = "start"
	// EndFlagName is the flag name for the end date.
	EndFlagName = "end"
	// SwapFlagName is the flag name for swapping the base and target currencies.
	SwapFlagName = "swap"
	// PageSizeFlagName is the flag name for the table page size.
	PageSizeFlagName = "page-size"
	// PageFlagName is the flag name for the table page.
	PageFlagName = "page"
)

// Env is the environment shared by the views of one command invocation.
type Env struct {
	// Logger is the logger.
	Logger *slog.Logger
	// Config is the configuration.
	Config *fxdashconfig.Config
	// Client is the rate service client.
	Client frankfurter.Client
	// History holds the page address.
	History *querystring.History
	// Now returns the current time.
	Now func() time.Time
}

// NewEnv constructs an Env from the appext container by reading the config
// file and creating the rate client. The address may be a URL or a bare query string.
func NewEnv(container appext.Container, address string) (*Env, error) {
	history, err := querystring.NewHistory(address)
	if err != nil {
		return nil, appcmd.NewInvalidArgumentErrorf("invalid --%s: %v", AddressFlagName, err)
	}
	config, err := fxdashconfig.ReadConfig(container.ConfigDirPath(), container.Env)
	if err != nil {
		return nil, err
	}
	logger := container.Logger()
	client := frankfurter.NewClient(
		logger,
		frankfurter.ClientWithBaseURL(config.APIBaseURL),
		frankfurter.ClientWithTimeout(config.APITimeout),
		frankfurter.ClientWithPathStyle(config.APIPathStyle),
		frankfurter.ClientWithCurrencyCache(ttlcache.New[frankfurter.CurrencyCatalog](config.CurrenciesTTL)),
	)
	return &Env{
		Logger:  logger,
		Config:  config,
		Client:  client,
		History: history,
		Now:     time.Now,
	}, nil
}

// OutputFlags are the flags shared by all commands that write output.
type OutputFlags struct {
	// Address is the page address to read view state from.
	Address string
	// Format is the output format (table, csv, json).
	Format string
	// Retry is the number of times to retry a failed fetch.
	Retry int
}

// NewOutputFlags returns new OutputFlags.
func NewOutputFlags() *OutputFlags {
	return &OutputFlags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *OutputFlags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Address, AddressFlagName, "", "The page address (a URL or query string) holding the view state")
	flagSet.StringVar(&f.Format, FormatFlagName, "table", "Output format (table, csv, json)")
	flagSet.IntVar(&f.Retry, RetryFlagName, 0, "The number of times to retry a failed fetch")
}

// ParseFormat parses the format flag.
func (f *OutputFlags) ParseFormat() (cliio.Format, error) {
	format, err := cliio.ParseFormat(f.Format)
	if err != nil {
		return "", appcmd.NewInvalidArgumentError(err.Error())
	}
	return format, nil
}

// ViewFlags are the flags that change the state of a view.
type ViewFlags struct {
	// Base is the base currency.
	Base string
	// Targets are the target currencies.
	Targets []string
	// Start is the start date.
	Start string
	// End is the end date.
	End string
	// Swap swaps the base currency with the only target currency.
	Swap bool
}

// NewViewFlags returns new ViewFlags.
func NewViewFlags() *ViewFlags {
	return &ViewFlags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *ViewFlags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Base, BaseFlagName, "", "Set the base currency")
	flagSet.StringSliceVar(&f.Targets, TargetFlagName, nil, "Set the target currencies")
	flagSet.StringVar(&f.Start, StartFlagName, "", "Set the start date (YYYY-MM-DD)")
	flagSet.StringVar(&f.End, EndFlagName, "", "Set the end date (YYYY-MM-DD)")
	flagSet.BoolVar(&f.Swap, SwapFlagName, false, "Swap the base currency with the only target currency")
}

// Apply applies the flags to the store, in the order base, targets, range, swap.
func (f *ViewFlags) Apply(store *fxdashview.Store) error {
	if f.Base != "" {
		if err := store.SetBase(f.Base); err != nil {
			return appcmd.NewInvalidArgumentError(err.Error())
		}
	}
	if len(f.Targets) > 0 {
		store.SetTargets(f.Targets)
	}
	if f.Start != "" || f.End != "" {
		dateRange := store.Params().Range
		if f.Start != "" {
			start, err := xtime.ParseDate(f.Start)
			if err != nil {
				return appcmd.NewInvalidArgumentErrorf("invalid --%s: %v", StartFlagName, err)
			}
			dateRange.Start = start
		}
		if f.End != "" {
			end, err := xtime.ParseDate(f.End)
			if err != nil {
				return appcmd.NewInvalidArgumentErrorf("invalid --%s: %v", EndFlagName, err)
			}
			dateRange.End = end
		}
		if err := store.SetRange(dateRange); err != nil {
			return appcmd.NewInvalidArgumentError(err.Error())
		}
	}
	if f.Swap && !store.Swap() {
		return appcmd.NewInvalidArgumentErrorf("--%s requires exactly one target currency", SwapFlagName)
	}
	return nil
}

// PageFlags are the flags of the table views.
type PageFlags struct {
	// PageSize is the page size. Zero keeps the page size of the address.
	PageSize int
	// Page is the 1-based page to show.
	Page int
}

// NewPageFlags returns new PageFlags.
func NewPageFlags() *PageFlags {
	return &PageFlags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *PageFlags) Bind(flagSet *pflag.FlagSet) {
	flagSet.IntVar(&f.PageSize, PageSizeFlagName, 0, "Set the page size (10, 20, 50, 100)")
	flagSet.IntVar(&f.Page, PageFlagName, 1, "The page to show")
}

// Apply applies the page size to the store.
func (f *PageFlags) Apply(store *fxdashview.Store) error {
	if f.PageSize == 0 {
		return nil
	}
	if err := store.SetPageSize(f.PageSize); err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	return nil
}

// MountedView is a mounted view with fetched data.
type MountedView struct {
	// Store holds the view parameters.
	Store *fxdashview.Store
	// TimeSeries is the fetched series.
	TimeSeries *frankfurter.TimeSeries
}

// ViewError is returned by MountView when the series of a view cannot be fetched.
type ViewError struct {
	// View is the name of the view.
	View string
	// Err is the fetch error.
	Err error
}

// Error implements error.
func (e *ViewError) Error() string {
	return e.View + ": " + e.Err.Error()
}

// Unwrap returns the fetch error.
func (e *ViewError) Unwrap() error {
	return e.Err
}

// MountView mounts the view from the address, applies the changes, and
// fetches its series, retrying failed fetches up to retry times.
//
// Fetch failures are returned as *ViewError. The options are passed to the
// view's controller.
func MountView(
	ctx context.Context,
	env *Env,
	spec fxdashview.Spec,
	retry int,
	apply func(*fxdashview.Store) error,
	options ...fxdashfetch.ControllerOption,
) (*MountedView, error) {
	store := fxdashview.NewStore(spec, env.History, env.Now)
	defer store.Close()
	if err := apply(store); err != nil {
		return nil, err
	}
	controller := fxdashfetch.NewTimeSeriesController(env.Logger, spec.Name, env.Client, options...)
	defer controller.Close()
	unbind := fxdashview.Bind(store, controller)
	defer unbind()
	state, err := WaitWithRetry(ctx, env.Logger, controller, retry)
	if err != nil {
		return nil, &ViewError{View: spec.Name, Err: err}
	}
	return &MountedView{
		Store:      store,
		TimeSeries: state.Data,
	}, nil
}

// WaitWithRetry waits for the controller to settle, calling Refetch after
// each failure up to retry times.
//
// Returns an error if the controller is idle or the last attempt failed.
func WaitWithRetry[P any, T any](
	ctx context.Context,
	logger *slog.Logger,
	controller *fxdashfetch.Controller[P, T],
	retry int,
) (fxdashfetch.State[T], error) {
	return backoff.Retry(
		ctx,
		backoff.NewPolicy(retry),
		func(ctx context.Context, attempt int) (fxdashfetch.State[T], bool, error) {
			if attempt > 0 {
				logger.Info("retrying fetch", "attempt", attempt)
				controller.Refetch()
			}
			state, err := controller.Wait(ctx)
			if err != nil {
				return state, false, err
			}
			switch state.Status {
			case fxdashfetch.StatusFailed:
				return state, true, errors.New(state.Err)
			case fxdashfetch.StatusIdle:
				return state, false, errors.New("nothing to fetch")
			default:
				return state, false, nil
			}
		},
	)
}

// WriteAddress writes the address the views wrote back to stderr.
func WriteAddress(container appext.Container, history *querystring.History) error {
	_, err := fmt.Fprintf(container.Stderr(), "address: %s\n", history.String())
	return err
}

// ShowView records in the address that the view with the given name is shown.
func ShowView(history *querystring.History, viewName string) {
	fxdashview.WriteShell(history, fxdashview.ReadShell(history.Values()).Show(viewName))
}
