// Copyright 2026 Peter Edge
//
// All rights reserved.

package fxdashcmd

import (
	"fmt"
	"strconv"

	"github.com/bufdev/fxdash/internal/fxdash/fxdashseries"
	"github.com/bufdev/fxdash/internal/pkg/cliio"
)

// missingValue is shown for gaps in the chart table.
const missingValue = "-"

// Page is a page of table rows.
type Page[T any] struct {
	// Rows are the rows of the page.
	Rows []T `json:"rows"`
	// Page is the 1-based page number.
	Page int `json:"page"`
	// PageSize is the page size.
	PageSize int `json:"pageSize"`
	// PageCount is the number of pages.
	PageCount int `json:"pageCount"`
	// Total is the number of rows across all pages.
	Total int `json:"total"`
}

// NewPage returns the given page of the rows.
func NewPage[T any](rows []T, pageSize int, page int) Page[T] {
	return Page[T]{
		Rows:      fxdashseries.Paginate(rows, pageSize, page),
		Page:      max(page, 1),
		PageSize:  pageSize,
		PageCount: fxdashseries.PageCount(len(rows), pageSize),
		Total:     len(rows),
	}
}

// Footer returns the table footer describing the page.
func (p Page[T]) Footer() string {
	return fmt.Sprintf("Page %d of %d (%d rows)", p.Page, p.PageCount, p.Total)
}

// ChartTable returns the chart data as a table with one row per label.
func ChartTable(chartData fxdashseries.ChartData) cliio.Table {
	headers := make([]string, 0, len(chartData.Datasets)+1)
	headers = append(headers, "Date")
	for _, dataset := range chartData.Datasets {
		headers = append(headers, dataset.Label)
	}
	rows := make([][]string, 0, len(chartData.Labels))
	for i, label := range chartData.Labels {
		row := make([]string, 0, len(headers))
		row = append(row, label)
		for _, dataset := range chartData.Datasets {
			if value := dataset.Data[i]; value != nil {
				row = append(row, formatRate(*value))
			} else {
				row = append(row, missingValue)
			}
		}
		rows = append(rows, row)
	}
	return cliio.Table{
		Headers: headers,
		Rows:    rows,
	}
}

// DateTable returns a page of date rows as a table.
func DateTable(page Page[fxdashseries.DateRow], targets []string) cliio.Table {
	headers := make([]string, 0, len(targets)+2)
	headers = append(headers, "Date", "Base")
	headers = append(headers, targets...)
	rows := make([][]string, 0, len(page.Rows))
	for _, dateRow := range page.Rows {
		row := make([]string, 0, len(headers))
		row = append(row, dateRow.Date, dateRow.BaseCurrency)
		for _, target := range targets {
			row = append(row, formatRate(dateRow.Rates[target]))
		}
		rows = append(rows, row)
	}
	return cliio.Table{
		Headers: headers,
		Rows:    rows,
		Footer:  page.Footer(),
	}
}

// TrendTable returns a page of trend rows as a table.
func TrendTable(page Page[fxdashseries.TrendRow], base string, target string) cliio.Table {
	rows := make([][]string, 0, len(page.Rows))
	for _, trendRow := range page.Rows {
		rows = append(
			rows,
			[]string{
				trendRow.Date,
				strconv.Itoa(trendRow.BaseCurrencyValue),
				formatRate(trendRow.TargetCurrencyRate),
				fmt.Sprintf("%+.4f", trendRow.Change),
				fmt.Sprintf("%+.2f%%", trendRow.ChangePercent),
			},
		)
	}
	return cliio.Table{
		Headers: []string{"Date", base, target, "Change", "Change %"},
		Rows:    rows,
		Footer:  page.Footer(),
	}
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 4, 64)
}
