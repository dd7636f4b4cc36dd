// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package chart implements the "chart" command.
package chart

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/fxdashcmd"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashseries"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashview"
	"github.com/bufdev/fxdash/internal/pkg/cliio"
	"github.com/spf13/pflag"
)

// periodFlagName is the flag name for the chart period.
const periodFlagName = "period"

// NewCommand returns a new chart command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Display exchange rates over time, bucketed by day, week, or month",
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
	View   *fxdashcmd.ViewFlags
	// Period is the chart period (day, week, month).
	Period string
}

func newFlags() *flags {
	return &flags{
		Output: fxdashcmd.NewOutputFlags(),
		View:   fxdashcmd.NewViewFlags(),
	}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	f.Output.Bind(flagSet)
	f.View.Bind(flagSet)
	flagSet.StringVar(&f.Period, periodFlagName, "", "Set the chart period (day, week, month)")
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
	spec := fxdashview.ChartSpec(env.Config.Defaults)
	fxdashcmd.ShowView(env.History, spec.Name)
	mountedView, err := fxdashcmd.MountView(
		ctx,
		env,
		spec,
		flags.Output.Retry,
		func(store *fxdashview.Store) error {
			if err := flags.View.Apply(store); err != nil {
				return err
			}
			if flags.Period == "" {
				return nil
			}
			period, err := fxdashseries.ParsePeriod(flags.Period)
			if err != nil {
				return appcmd.NewInvalidArgumentErrorf("invalid --%s: %v", periodFlagName, err)
			}
			return store.SetPeriod(period)
		},
	)
	if err != nil {
		return err
	}
	params := mountedView.Store.Params()
	chartData := fxdashseries.Chart(mountedView.TimeSeries, params.Base, params.Targets, params.Period)
	if err := cliio.Write(container.Stdout(), format, fxdashcmd.ChartTable(chartData), chartData); err != nil {
		return err
	}
	return fxdashcmd.WriteAddress(container, env.History)
}
