// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tabledate implements the "table date" command.
package tabledate

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

// NewCommand returns a new table date command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Display one row per date with the rate of every target currency",
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
	Page   *fxdashcmd.PageFlags
}

func newFlags() *flags {
	return &flags{
		Output: fxdashcmd.NewOutputFlags(),
		View:   fxdashcmd.NewViewFlags(),
		Page:   fxdashcmd.NewPageFlags(),
	}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	f.Output.Bind(flagSet)
	f.View.Bind(flagSet)
	f.Page.Bind(flagSet)
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
	spec := fxdashview.DateSpec(env.Config.Defaults)
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
			return flags.Page.Apply(store)
		},
	)
	if err != nil {
		return err
	}
	params := mountedView.Store.Params()
	page := fxdashcmd.NewPage(
		fxdashseries.DateTable(mountedView.TimeSeries, params.Base, params.Targets),
		params.PageSize,
		flags.Page.Page,
	)
	if err := cliio.Write(container.Stdout(), format, fxdashcmd.DateTable(page, params.Targets), page); err != nil {
		return err
	}
	return fxdashcmd.WriteAddress(container, env.History)
}
