// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fxdashview holds the parameters of the dashboard views.
//
// Each view (chart, date table, trend table) keeps its parameters in the
// shared address under its own key prefix, so the views never interfere
// with each other. A Store reads its parameters from the address once on
// mount, writes the canonical form back, and writes again on every change.
package fxdashview

import (
	"slices"
	"time"

	"github.com/bufdev/fxdash/internal/fxdash/fxdashseries"
	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/bufdev/fxdash/internal/pkg/querystring"
	"github.com/bufdev/fxdash/internal/standard/xtime"
)

const (
	// DefaultBase is the default base currency.
	DefaultBase = "USD"
	// DefaultTarget is the default target currency.
	DefaultTarget = "EUR"
	// DefaultPageSize is the default page size of the tables.
	DefaultPageSize = 20
	// DefaultRangeDays is the number of days before today of the default start date.
	DefaultRangeDays = 30

	// ViewChart is the name of the chart view.
	ViewChart = "chart"
	// ViewDate is the name of the date table view.
	ViewDate = "date"
	// ViewTrend is the name of the trend table view.
	ViewTrend = "trend"
)

// AllowedPageSizes are the page sizes the tables accept.
var AllowedPageSizes = []int{10, 20, 50, 100}

// Defaults are the parameter values used when the address has none.
type Defaults struct {
	// Base is the default base currency.
	Base string
	// Targets are the default target currencies.
	Targets []string
	// Period is the default period of the chart.
	Period fxdashseries.Period
	// PageSize is the default page size of the tables.
	PageSize int
}

// NewDefaults returns the built-in Defaults.
func NewDefaults() Defaults {
	return Defaults{
		Base:     DefaultBase,
		Targets:  []string{DefaultTarget},
		Period:   fxdashseries.PeriodDay,
		PageSize: DefaultPageSize,
	}
}

// Spec describes a view.
type Spec struct {
	// Name is the name of the view.
	Name string
	// Prefix is the prefix of the view's address keys.
	Prefix string
	// Defaults are the view's defaults.
	Defaults Defaults
	// MultiTarget is true if the view accepts more than one target currency.
	MultiTarget bool
	// HasPeriod is true if the view has a period.
	HasPeriod bool
	// HasPageSize is true if the view has a page size.
	HasPageSize bool
}

// ChartSpec returns the Spec of the chart view.
func ChartSpec(defaults Defaults) Spec {
	return Spec{
		Name:        ViewChart,
		Prefix:      ViewChart,
		Defaults:    defaults,
		MultiTarget: true,
		HasPeriod:   true,
	}
}

// DateSpec returns the Spec of the date table view.
func DateSpec(defaults Defaults) Spec {
	return Spec{
		Name:        ViewDate,
		Prefix:      ViewDate,
		Defaults:    defaults,
		MultiTarget: true,
		HasPageSize: true,
	}
}

// TrendSpec returns the Spec of the trend table view.
//
// The trend view has exactly one target, the first of the default targets.
func TrendSpec(defaults Defaults) Spec {
	if len(defaults.Targets) > 1 {
		defaults.Targets = defaults.Targets[:1]
	}
	return Spec{
		Name:        ViewTrend,
		Prefix:      ViewTrend,
		Defaults:    defaults,
		HasPageSize: true,
	}
}

// Key returns the address key of a parameter of the view.
func (s Spec) Key(name string) string {
	return s.Prefix + "_" + name
}

// DateRange is a range of dates. Either end may be zero, meaning absent.
type DateRange struct {
	Start xtime.Date
	End   xtime.Date
}

// Params are the parameters of a view.
type Params struct {
	// Base is the base currency.
	Base string
	// Targets are the target currencies. The trend view has exactly one.
	Targets []string
	// Range is the date range.
	Range DateRange
	// Period is the period of the chart. Empty for the tables.
	Period fxdashseries.Period
	// PageSize is the page size of the tables. Zero for the chart.
	PageSize int
}

// Clone returns a deep copy of the Params.
func (p Params) Clone() Params {
	p.Targets = slices.Clone(p.Targets)
	return p
}

// Equal reports whether two Params are equal.
func (p Params) Equal(other Params) bool {
	return p.Base == other.Base &&
		slices.Equal(p.Targets, other.Targets) &&
		p.Range == other.Range &&
		p.Period == other.Period &&
		p.PageSize == other.PageSize
}

// ReadParams reads the Params of the view from the values.
//
// Never fails: absent or malformed values yield the view's defaults.
func ReadParams(spec Spec, values querystring.Values) Params {
	defaults := spec.Defaults
	params := Params{
		Base:    values.String(spec.Key("base"), defaults.Base),
		Targets: slices.Clone(values.Strings(spec.Key("target"), defaults.Targets)),
		Range: DateRange{
			Start: values.Date(spec.Key("start"), xtime.Date{}),
			End:   values.Date(spec.Key("end"), xtime.Date{}),
		},
	}
	if !spec.MultiTarget && len(params.Targets) > 1 {
		params.Targets = params.Targets[:1]
	}
	if !params.Range.Start.IsZero() && !params.Range.End.IsZero() && params.Range.Start.After(params.Range.End) {
		params.Range = DateRange{}
	}
	if spec.HasPeriod {
		period, err := fxdashseries.ParsePeriod(values.String(spec.Key("period"), string(defaults.Period)))
		if err != nil {
			period = defaults.Period
		}
		params.Period = period
	}
	if spec.HasPageSize {
		params.PageSize = values.Int(spec.Key("pageSize"), defaults.PageSize)
		if !slices.Contains(AllowedPageSizes, params.PageSize) {
			params.PageSize = defaults.PageSize
		}
	}
	return params
}

// WritePatch returns the address patch that stores the Params of the view.
func WritePatch(spec Spec, params Params) map[string]string {
	patch := map[string]string{
		spec.Key("base"):   params.Base,
		spec.Key("target"): querystring.FormatStrings(params.Targets),
		spec.Key("start"):  querystring.FormatDate(params.Range.Start),
		spec.Key("end"):    querystring.FormatDate(params.Range.End),
	}
	if spec.HasPeriod {
		patch[spec.Key("period")] = string(params.Period)
	}
	if spec.HasPageSize {
		patch[spec.Key("pageSize")] = querystring.FormatInt(params.PageSize)
	}
	return patch
}

// Swap exchanges the base currency with the only target currency.
//
// Returns false if there is not exactly one target.
func Swap(base string, targets []string) (string, []string, bool) {
	if len(targets) != 1 {
		return base, targets, false
	}
	return targets[0], []string{base}, true
}

// CanSwap reports whether Swap is permitted for the Params.
func CanSwap(params Params) bool {
	return len(params.Targets) == 1
}

// EffectiveRange fills in absent ends of the range.
//
// An absent end becomes today, but never earlier than the start. An absent
// start becomes 30 days before the end.
func EffectiveRange(dateRange DateRange, now time.Time) DateRange {
	if dateRange.End.IsZero() {
		dateRange.End = xtime.Today(now)
		if !dateRange.Start.IsZero() && dateRange.End.Before(dateRange.Start) {
			dateRange.End = dateRange.Start
		}
	}
	if dateRange.Start.IsZero() {
		dateRange.Start = dateRange.End.AddDays(-DefaultRangeDays)
	}
	return dateRange
}

// EffectiveRequest returns the time series request for the Params.
func EffectiveRequest(params Params, now time.Time) frankfurter.TimeSeriesRequest {
	dateRange := EffectiveRange(params.Range, now)
	return frankfurter.TimeSeriesRequest{
		Base:      params.Base,
		Symbols:   slices.Clone(params.Targets),
		StartDate: dateRange.Start.String(),
		EndDate:   dateRange.End.String(),
	}
}
