// Copyright 2026 Peter Edge
//
// All rights reserved.

package fxdashview

import (
	"github.com/bufdev/fxdash/internal/pkg/querystring"
)

const (
	// ViewKey is the address key of the active page.
	ViewKey = "view"
	// TableKey is the address key of the active table.
	TableKey = "table"

	// PageChart is the chart page.
	PageChart = "chart"
	// PageTable is the table page.
	PageTable = "table"

	// TableDate is the date table.
	TableDate = "table1"
	// TableTrend is the trend table.
	TableTrend = "table2"
)

// Shell is the state of the page shell: which page and which table are active.
type Shell struct {
	// Page is PageChart or PageTable.
	Page string
	// Table is TableDate or TableTrend.
	Table string
}

// ReadShell reads the Shell from the values, defaulting to the chart page and the date table.
func ReadShell(values querystring.Values) Shell {
	shell := Shell{
		Page:  values.String(ViewKey, PageChart),
		Table: values.String(TableKey, TableDate),
	}
	if shell.Page != PageChart && shell.Page != PageTable {
		shell.Page = PageChart
	}
	if shell.Table != TableDate && shell.Table != TableTrend {
		shell.Table = TableDate
	}
	return shell
}

// WriteShell writes the Shell to the history, returning whether the address changed.
func WriteShell(history *querystring.History, shell Shell) bool {
	return history.Write(
		map[string]string{
			ViewKey:  shell.Page,
			TableKey: shell.Table,
		},
	)
}

// Show returns a copy of the Shell that shows the view with the given name.
//
// Unknown names return the Shell unchanged.
func (s Shell) Show(viewName string) Shell {
	switch viewName {
	case ViewChart:
		s.Page = PageChart
	case ViewDate:
		s.Page = PageTable
		s.Table = TableDate
	case ViewTrend:
		s.Page = PageTable
		s.Table = TableTrend
	}
	return s
}

// ActiveSpec returns the Spec of the view the Shell shows.
func (s Shell) ActiveSpec(defaults Defaults) Spec {
	if s.Page == PageChart {
		return ChartSpec(defaults)
	}
	if s.Table == TableTrend {
		return TrendSpec(defaults)
	}
	return DateSpec(defaults)
}
