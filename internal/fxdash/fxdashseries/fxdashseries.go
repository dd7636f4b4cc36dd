// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fxdashseries derives view rows from a time series.
//
// All functions are pure: the same series and parameters always produce
// the same rows. Rates missing from the series stay missing in chart
// points; only the date table fills them with zero, and only for display.
package fxdashseries

import (
	"fmt"
	"strings"
	"time"

	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/bufdev/fxdash/internal/standard/xtime"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	// ratePlaces is the number of decimal places for rates and changes.
	ratePlaces = 4
	// percentPlaces is the number of decimal places for change percentages.
	percentPlaces = 2
)

// hundred is used to convert a ratio to a percentage.
var hundred = decimal.NewFromInt(100)

// Period is the bucketing granularity of the chart.
type Period string

const (
	// PeriodDay keeps every date.
	PeriodDay Period = "day"
	// PeriodWeek keeps one date per week.
	PeriodWeek Period = "week"
	// PeriodMonth keeps one date per month.
	PeriodMonth Period = "month"
)

// AllPeriods returns all periods in display order.
func AllPeriods() []Period {
	return []Period{PeriodDay, PeriodWeek, PeriodMonth}
}

// ParsePeriod parses a period, returning an error for unknown values.
func ParsePeriod(s string) (Period, error) {
	switch period := Period(strings.ToLower(s)); period {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return period, nil
	default:
		return "", fmt.Errorf("unknown period %q, must be one of: day, week, month", s)
	}
}

// Value is a rate that may be missing.
type Value struct {
	// Rate is the rate. Only meaningful if Valid is true.
	Rate decimal.Decimal
	// Valid is false if the series has no rate for the date and currency.
	Valid bool
}

// Point is a single date of a bucketed series.
type Point struct {
	// Date is the date of the point.
	Date xtime.Date
	// Values maps each requested target currency to its value on Date.
	Values map[string]Value
}

// Bucket down-samples the series to the period, returning one point per kept date in ascending order.
func Bucket(series *frankfurter.TimeSeries, targets []string, period Period) []Point {
	if series == nil {
		return nil
	}
	dates := BucketDates(series.Dates(), period)
	points := make([]Point, 0, len(dates))
	for _, date := range dates {
		values := make(map[string]Value, len(targets))
		for _, target := range targets {
			rate, ok := series.Rate(date, target)
			values[target] = Value{Rate: rate, Valid: ok}
		}
		points = append(points, Point{Date: date, Values: values})
	}
	return points
}

// BucketDates selects the dates kept for the period from ascending dates.
//
// Day keeps every date. Week keeps Mondays, or if there are none, the first
// date of each ISO week. Month keeps the first day of each month, or if
// there are none, the first date of each month.
func BucketDates(dates []xtime.Date, period Period) []xtime.Date {
	switch period {
	case PeriodWeek:
		return selectDates(
			dates,
			func(date xtime.Date) bool { return date.Weekday() == time.Monday },
			func(date xtime.Date) [2]int {
				year, week := date.ISOWeek()
				return [2]int{year, week}
			},
		)
	case PeriodMonth:
		return selectDates(
			dates,
			func(date xtime.Date) bool { return date.Day == 1 },
			func(date xtime.Date) [2]int { return [2]int{date.Year, int(date.Month)} },
		)
	default:
		return dates
	}
}

// ChartData is the input of a line chart.
type ChartData struct {
	// Labels are the x-axis labels, one per kept date.
	Labels []string `json:"labels"`
	// Datasets are the lines, one per target currency.
	Datasets []Dataset `json:"datasets"`
}

// Dataset is a single line of a chart.
type Dataset struct {
	// Label is the currency pair, e.g. "USD/EUR".
	Label string `json:"label"`
	// Data has one value per label. Nil marks a gap.
	Data []*float64 `json:"data"`
}

// Chart buckets the series and shapes it for a line chart.
func Chart(series *frankfurter.TimeSeries, base string, targets []string, period Period) ChartData {
	points := Bucket(series, targets, period)
	chartData := ChartData{
		Labels:   make([]string, 0, len(points)),
		Datasets: make([]Dataset, 0, len(targets)),
	}
	for _, point := range points {
		chartData.Labels = append(chartData.Labels, ChartLabel(point.Date, period))
	}
	for _, target := range targets {
		dataset := Dataset{
			Label: base + "/" + target,
			Data:  make([]*float64, 0, len(points)),
		}
		for _, point := range points {
			value := point.Values[target]
			if !value.Valid {
				dataset.Data = append(dataset.Data, nil)
				continue
			}
			f := value.Rate.InexactFloat64()
			dataset.Data = append(dataset.Data, &f)
		}
		chartData.Datasets = append(chartData.Datasets, dataset)
	}
	return chartData
}

// ChartLabel formats a date as an x-axis label for the period.
func ChartLabel(date xtime.Date, period Period) string {
	switch period {
	case PeriodWeek:
		return date.Format("Jan 02") + " (Week)"
	case PeriodMonth:
		return date.Format("Jan 2006")
	default:
		return date.Format("Jan 02")
	}
}

// TrendRow is a row of the trend table.
type TrendRow struct {
	// Date is the date in YYYY-MM-DD format.
	Date string `json:"date"`
	// BaseCurrencyValue is always 1.
	BaseCurrencyValue int `json:"baseCurrencyValue"`
	// TargetCurrencyRate is the rate rounded to 4 places.
	TargetCurrencyRate float64 `json:"targetCurrencyRate"`
	// Change is the difference from the previous observed rate, rounded to 4 places.
	Change float64 `json:"change"`
	// ChangePercent is Change relative to the previous observed rate, in percent rounded to 2 places.
	ChangePercent float64 `json:"changePercent"`
}

// Trend computes day-over-day changes of the target currency, newest first.
//
// Dates without a rate for the target are skipped, and the change of the
// next observed date is computed against the last observed rate. The
// first observed date has no reference and a change of zero.
func Trend(series *frankfurter.TimeSeries, target string) []TrendRow {
	if series == nil {
		return nil
	}
	var rows []TrendRow
	var previousRate decimal.Decimal
	havePrevious := false
	for _, date := range series.Dates() {
		rate, ok := series.Rate(date, target)
		if !ok {
			continue
		}
		change := decimal.Zero
		changePercent := decimal.Zero
		if havePrevious {
			change = rate.Sub(previousRate)
			if !previousRate.IsZero() {
				changePercent = change.Div(previousRate).Mul(hundred)
			}
		}
		rows = append(rows, TrendRow{
			Date:               date.String(),
			BaseCurrencyValue:  1,
			TargetCurrencyRate: rate.Round(ratePlaces).InexactFloat64(),
			Change:             change.Round(ratePlaces).InexactFloat64(),
			ChangePercent:      changePercent.Round(percentPlaces).InexactFloat64(),
		})
		previousRate = rate
		havePrevious = true
	}
	reverse(rows)
	return rows
}

// DateRow is a row of the date table.
type DateRow struct {
	// Date is the date in YYYY-MM-DD format.
	Date string
	// BaseCurrency is the base currency code.
	BaseCurrency string
	// Rates maps each target currency to its rate. Missing rates are 0.
	Rates map[string]float64
}

// DateTable lists the rates of each target per date, newest first.
func DateTable(series *frankfurter.TimeSeries, base string, targets []string) []DateRow {
	if series == nil {
		return nil
	}
	dates := series.Dates()
	rows := make([]DateRow, 0, len(dates))
	for _, date := range dates {
		rates := make(map[string]float64, len(targets))
		for _, target := range targets {
			// Zero is a display default for missing rates.
			rate, _ := series.Rate(date, target)
			rates[target] = rate.InexactFloat64()
		}
		rows = append(rows, DateRow{
			Date:         date.String(),
			BaseCurrency: base,
			Rates:        rates,
		})
	}
	reverse(rows)
	return rows
}

// MarshalJSON flattens the row into {"date", "baseCurrency", CODE: rate...}.
func (r DateRow) MarshalJSON() ([]byte, error) {
	object := make(map[string]any, len(r.Rates)+2)
	for code, rate := range r.Rates {
		object[code] = rate
	}
	object["date"] = r.Date
	object["baseCurrency"] = r.BaseCurrency
	return json.Marshal(object)
}

// Paginate returns the rows of a 1-based page.
//
// Pages before the first clamp to the first page, and pages after the last
// return no rows.
func Paginate[T any](rows []T, pageSize int, page int) []T {
	if pageSize <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return nil
	}
	end := min(start+pageSize, len(rows))
	return rows[start:end]
}

// PageCount returns the number of pages needed for n rows.
func PageCount(n int, pageSize int) int {
	if pageSize <= 0 || n == 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// *** PRIVATE ***

// selectDates keeps the dates matching keep, falling back to the first date of each group if none match.
func selectDates(dates []xtime.Date, keep func(xtime.Date) bool, group func(xtime.Date) [2]int) []xtime.Date {
	var selected []xtime.Date
	for _, date := range dates {
		if keep(date) {
			selected = append(selected, date)
		}
	}
	if len(selected) > 0 {
		return selected
	}
	seen := make(map[[2]int]struct{})
	for _, date := range dates {
		key := group(date)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		selected = append(selected, date)
	}
	return selected
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
