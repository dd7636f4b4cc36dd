// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package dashboard implements the "dashboard" command.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/fxdashcmd"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashfetch"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashseries"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashview"
	"github.com/bufdev/fxdash/internal/pkg/cliio"
	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// NewCommand returns a new dashboard command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Display the chart, date table, and trend table of an address together",
		Args:  appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	Output *fxdashcmd.OutputFlags
}

func newFlags() *flags {
	return &flags{
		Output: fxdashcmd.NewOutputFlags(),
	}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	f.Output.Bind(flagSet)
}

// dashboard is the JSON output of the command.
//
// A view that failed to load has no section and an entry in Errors instead.
type dashboard struct {
	Active string                                 `json:"active"`
	Chart  *fxdashseries.ChartData                `json:"chart,omitempty"`
	Date   *fxdashcmd.Page[fxdashseries.DateRow]  `json:"date,omitempty"`
	Trend  *fxdashcmd.Page[fxdashseries.TrendRow] `json:"trend,omitempty"`
	Errors map[string]string                      `json:"errors,omitempty"`

	dateTargets []string
	trendBase   string
	trendTarget string
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	format, err := flags.Output.ParseFormat()
	if err != nil {
		return err
	}
	env, err := fxdashcmd.NewEnv(container, flags.Output.Address)
	if err != nil {
		return err
	}
	output, err := buildDashboard(ctx, env, flags.Output.Retry)
	if err != nil {
		return err
	}
	if err := writeDashboard(container.Stdout(), format, output); err != nil {
		return err
	}
	if err := fxdashcmd.WriteAddress(container, env.History); err != nil {
		return err
	}
	if len(output.Errors) == len(viewNames) {
		return errors.New("all views failed to load")
	}
	return nil
}

var viewNames = []string{
	fxdashview.ViewChart,
	fxdashview.ViewDate,
	fxdashview.ViewTrend,
}

// buildDashboard mounts the three views concurrently on the shared address.
//
// A view that fails does not affect the others. Returns an error only if
// the context is done.
func buildDashboard(ctx context.Context, env *fxdashcmd.Env, retry int) (dashboard, error) {
	defaults := env.Config.Defaults
	specs := []fxdashview.Spec{
		fxdashview.ChartSpec(defaults),
		fxdashview.DateSpec(defaults),
		fxdashview.TrendSpec(defaults),
	}
	// The currency catalog is loaded alongside the views and only used to flag unknown codes.
	currenciesController := fxdashfetch.NewCurrenciesController(env.Logger, env.Client)
	defer currenciesController.Close()
	currenciesController.Load()
	// Views with the same request share one in-flight call.
	group := &singleflight.Group{}
	mountedViews := make([]*fxdashcmd.MountedView, len(specs))
	mountErrs := make([]error, len(specs))
	var eg errgroup.Group
	for i, spec := range specs {
		eg.Go(func() error {
			mountedViews[i], mountErrs[i] = fxdashcmd.MountView(
				ctx,
				env,
				spec,
				retry,
				noChanges,
				fxdashfetch.ControllerWithSingleflightGroup(group),
			)
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return dashboard{}, err
	}
	output := dashboard{
		Active: fxdashview.ReadShell(env.History.Values()).ActiveSpec(defaults).Name,
	}
	for i, spec := range specs {
		if err := mountErrs[i]; err != nil {
			env.Logger.Warn("view failed to load", "view", spec.Name, "error", err)
			if output.Errors == nil {
				output.Errors = make(map[string]string)
			}
			output.Errors[spec.Name] = viewErrorMessage(err)
			continue
		}
		output.add(spec.Name, mountedViews[i])
	}
	if _, err := fxdashcmd.WaitWithRetry(ctx, env.Logger, currenciesController.Controller, retry); err != nil {
		env.Logger.Warn("could not load currencies", "error", err)
	} else {
		warnUnknownCurrencies(env, currenciesController.CurrencyList(), mountedViews)
	}
	return output, nil
}

func noChanges(*fxdashview.Store) error {
	return nil
}

// add derives the section of the view from its fetched series.
func (d *dashboard) add(viewName string, mountedView *fxdashcmd.MountedView) {
	params := mountedView.Store.Params()
	switch viewName {
	case fxdashview.ViewChart:
		chartData := fxdashseries.Chart(mountedView.TimeSeries, params.Base, params.Targets, params.Period)
		d.Chart = &chartData
	case fxdashview.ViewDate:
		page := fxdashcmd.NewPage(
			fxdashseries.DateTable(mountedView.TimeSeries, params.Base, params.Targets),
			params.PageSize,
			1,
		)
		d.Date = &page
		d.dateTargets = params.Targets
	case fxdashview.ViewTrend:
		var trendRows []fxdashseries.TrendRow
		if len(params.Targets) > 0 {
			d.trendTarget = params.Targets[0]
			trendRows = fxdashseries.Trend(mountedView.TimeSeries, d.trendTarget)
		}
		page := fxdashcmd.NewPage(trendRows, params.PageSize, 1)
		d.Trend = &page
		d.trendBase = params.Base
	}
}

func writeDashboard(writer io.Writer, format cliio.Format, output dashboard) error {
	if format == cliio.FormatJSON {
		return cliio.WriteJSON(writer, output)
	}
	for i, viewName := range viewNames {
		if i > 0 {
			if _, err := fmt.Fprintln(writer); err != nil {
				return err
			}
		}
		marker := ""
		if viewName == output.Active {
			marker = " *"
		}
		if message, ok := output.Errors[viewName]; ok {
			if _, err := fmt.Fprintf(writer, "# %s%s (error: %s)\n", viewName, marker, message); err != nil {
				return err
			}
			continue
		}
		table, ok := output.table(viewName)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(writer, "# %s%s\n", viewName, marker); err != nil {
			return err
		}
		if err := cliio.Write(writer, format, table, nil); err != nil {
			return err
		}
	}
	return nil
}

// table returns the table of the view, or false if the view has no section.
func (d dashboard) table(viewName string) (cliio.Table, bool) {
	switch {
	case viewName == fxdashview.ViewChart && d.Chart != nil:
		return fxdashcmd.ChartTable(*d.Chart), true
	case viewName == fxdashview.ViewDate && d.Date != nil:
		return fxdashcmd.DateTable(*d.Date, d.dateTargets), true
	case viewName == fxdashview.ViewTrend && d.Trend != nil:
		return fxdashcmd.TrendTable(*d.Trend, d.trendBase, d.trendTarget), true
	default:
		return cliio.Table{}, false
	}
}

// viewErrorMessage returns the message of the fetch error without the view name.
func viewErrorMessage(err error) string {
	var viewError *fxdashcmd.ViewError
	if errors.As(err, &viewError) {
		return viewError.Err.Error()
	}
	return err.Error()
}

// warnUnknownCurrencies logs a warning for every view currency missing from the catalog.
func warnUnknownCurrencies(env *fxdashcmd.Env, currencies []frankfurter.Currency, mountedViews []*fxdashcmd.MountedView) {
	known := make(map[string]struct{}, len(currencies))
	for _, currency := range currencies {
		known[currency.Code] = struct{}{}
	}
	for _, mountedView := range mountedViews {
		if mountedView == nil {
			continue
		}
		params := mountedView.Store.Params()
		for _, code := range append([]string{params.Base}, params.Targets...) {
			if _, ok := known[code]; !ok {
				env.Logger.Warn("unknown currency", "view", mountedView.Store.Spec().Name, "currency", code)
			}
		}
	}
}
