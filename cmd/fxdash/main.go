// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/command/chart"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/command/config"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/command/currencies"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/command/dashboard"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/command/table"
)

func main() {
	appcmd.Main(context.Background(), newRootCommand("fxdash"))
}

// newRootCommand creates the root fxdash command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:                 name,
		Short:               "Explore historical exchange rates as charts and tables",
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			chart.NewCommand("chart", builder),
			config.NewCommand("config", builder),
			currencies.NewCommand("currencies", builder),
			dashboard.NewCommand("dashboard", builder),
			table.NewCommand("table", builder),
		},
	}
}
