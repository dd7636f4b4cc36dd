// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package table implements the "table" command group.
package table

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/command/table/tabledate"
	"github.com/bufdev/fxdash/cmd/fxdash/internal/command/table/tabletrend"
)

// NewCommand returns a new table command group with date and trend sub-commands.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Display exchange rates as paginated tables",
		SubCommands: []*appcmd.Command{
			tabledate.NewCommand("date", builder),
			tabletrend.NewCommand("trend", builder),
		},
	}
}
