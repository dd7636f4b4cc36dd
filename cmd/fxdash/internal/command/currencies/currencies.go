// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package currencies implements the "currencies" command.
package currencies

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/fxdashcmd"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashfetch"
	"github.com/bufdev/fxdash/internal/pkg/cliio"
	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/spf13/pflag"
)

// NewCommand returns a new currencies command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "List the currencies the rate service supports",
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

func run(ctx context.Context, container appext.Container, flags *flags) error {
	format, err := flags.Output.ParseFormat()
	if err != nil {
		return err
	}
	env, err := fxdashcmd.NewEnv(container, flags.Output.Address)
	if err != nil {
		return err
	}
	controller := fxdashfetch.NewCurrenciesController(env.Logger, env.Client)
	defer controller.Close()
	controller.Load()
	if _, err := fxdashcmd.WaitWithRetry(ctx, env.Logger, controller.Controller, flags.Output.Retry); err != nil {
		return err
	}
	currencies := controller.CurrencyList()
	return cliio.Write(container.Stdout(), format, currencyTable(currencies), currencies)
}

func currencyTable(currencies []frankfurter.Currency) cliio.Table {
	rows := make([][]string, 0, len(currencies))
	for _, currency := range currencies {
		rows = append(rows, []string{currency.Code, currency.Name})
	}
	return cliio.Table{
		Headers: []string{"Code", "Name"},
		Rows:    rows,
	}
}
