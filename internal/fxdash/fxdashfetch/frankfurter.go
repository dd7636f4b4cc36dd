// Copyright 2026 Peter Edge
//
// All rights reserved.

package fxdashfetch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
)

const (
	// TimeSeriesFallbackMessage is the error message of a failed time series request without error text.
	TimeSeriesFallbackMessage = "failed to get time series data"
	// CurrenciesFallbackMessage is the error message of a failed currency list request without error text.
	CurrenciesFallbackMessage = "failed to get currency list"

	currenciesKey = "currencies"
)

// TimeSeriesController fetches time series.
type TimeSeriesController = Controller[frankfurter.TimeSeriesRequest, frankfurter.TimeSeries]

// NewTimeSeriesController returns a new Controller that fetches time series from the client.
//
// The controller is idle while the request has no start date.
func NewTimeSeriesController(
	logger *slog.Logger,
	name string,
	client frankfurter.Client,
	options ...ControllerOption,
) *TimeSeriesController {
	return NewController[frankfurter.TimeSeriesRequest, frankfurter.TimeSeries](
		logger,
		name,
		timeSeriesKey,
		func(ctx context.Context, request frankfurter.TimeSeriesRequest) (frankfurter.TimeSeries, error) {
			timeSeries, err := client.GetTimeSeries(ctx, request)
			if err != nil {
				return frankfurter.TimeSeries{}, err
			}
			return *timeSeries, nil
		},
		append(
			[]ControllerOption{ControllerWithFallbackMessage(TimeSeriesFallbackMessage)},
			options...,
		)...,
	)
}

// CurrenciesController fetches the currency catalog.
type CurrenciesController struct {
	*Controller[struct{}, frankfurter.CurrencyCatalog]
}

// NewCurrenciesController returns a new CurrenciesController that fetches the catalog from the client.
//
// Call Load to issue the request.
func NewCurrenciesController(logger *slog.Logger, client frankfurter.Client) *CurrenciesController {
	return &CurrenciesController{
		Controller: NewController[struct{}, frankfurter.CurrencyCatalog](
			logger,
			currenciesKey,
			func(struct{}) (string, bool) { return currenciesKey, true },
			func(ctx context.Context, _ struct{}) (frankfurter.CurrencyCatalog, error) {
				return client.GetCurrencies(ctx)
			},
			ControllerWithFallbackMessage(CurrenciesFallbackMessage),
		),
	}
}

// Load issues the catalog request if it has not been issued yet.
func (c *CurrenciesController) Load() {
	c.Set(struct{}{})
}

// CurrencyList returns the currencies sorted by code, or nil if the catalog is not loaded.
func (c *CurrenciesController) CurrencyList() []frankfurter.Currency {
	state := c.State()
	if state.Data == nil {
		return nil
	}
	return state.Data.Currencies()
}

// *** PRIVATE ***

func timeSeriesKey(request frankfurter.TimeSeriesRequest) (string, bool) {
	if request.StartDate == "" {
		return "", false
	}
	return request.Key(), true
}

// serviceMessage returns the message of a service error payload, if any.
func serviceMessage(err error) string {
	var serviceError *frankfurter.ServiceError
	if errors.As(err, &serviceError) {
		return serviceError.Message
	}
	return ""
}
