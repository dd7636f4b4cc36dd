// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package frankfurter provides a client for a Frankfurter-compatible exchange rate service.
//
// The service exposes two read-only JSON endpoints: a time series of daily
// rates for a base currency, and the catalog of supported currencies. The
// public service at https://api.frankfurter.dev is free and does not require
// an API key. Deployments behind a same-origin proxy serve the time series
// at {base}/timeseries instead of the native {base}/{start}..{end} path,
// see PathStyle.
//
// The currency catalog is cached for 24 hours. Nothing is retried at this
// layer; retrying is a caller decision.
package frankfurter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"slices"
	"strings"
	"time"

	"github.com/bufdev/fxdash/internal/pkg/ttlcache"
	"github.com/bufdev/fxdash/internal/standard/xtime"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the public frankfurter.dev API base URL.
	DefaultBaseURL = "https://api.frankfurter.dev/v1"
	// DefaultTimeout is the request timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultCurrencyCacheTTL is how long the currency catalog is cached.
	DefaultCurrencyCacheTTL = 24 * time.Hour
)

// PathStyle selects how the time series endpoint is addressed.
type PathStyle int

const (
	// PathStyleTimeseries requests {base}/timeseries?start_date=...&end_date=...
	PathStyleTimeseries PathStyle = iota
	// PathStyleRange requests {base}/{start}..{end}, the native frankfurter.dev form.
	PathStyleRange
)

// ParsePathStyle parses "timeseries" or "range" into a PathStyle.
func ParsePathStyle(s string) (PathStyle, error) {
	switch strings.ToLower(s) {
	case "", "timeseries":
		return PathStyleTimeseries, nil
	case "range":
		return PathStyleRange, nil
	default:
		return 0, fmt.Errorf("unknown path style %q, must be one of: timeseries, range", s)
	}
}

// String implements fmt.Stringer.
func (p PathStyle) String() string {
	switch p {
	case PathStyleRange:
		return "range"
	default:
		return "timeseries"
	}
}

// TimeSeriesRequest is a request for a time series of daily rates.
type TimeSeriesRequest struct {
	// Base is the base currency code. The service default applies if empty.
	Base string
	// Symbols restricts the target currencies. All currencies are returned if empty.
	Symbols []string
	// StartDate is the first date in YYYY-MM-DD format. Required.
	StartDate string
	// EndDate is the last date in YYYY-MM-DD format. The latest date applies if empty.
	EndDate string
}

// Key returns a composite key identifying the request parameters.
func (r TimeSeriesRequest) Key() string {
	return strings.Join([]string{r.Base, strings.Join(r.Symbols, ","), r.StartDate, r.EndDate}, "|")
}

// TimeSeries is a date-indexed series of rates for a base currency.
type TimeSeries struct {
	// Base is the base currency code.
	Base string
	// StartDate is the first date covered by the response.
	StartDate string
	// EndDate is the last date covered by the response.
	EndDate string
	// Rates maps YYYY-MM-DD dates to currency codes to rates.
	//
	// A rate expresses 1 unit of Base in units of the target currency.
	// A currency with no data on a date is absent from that date's map.
	Rates map[string]map[string]decimal.Decimal
}

// Dates returns the dates of the series in ascending order.
func (t *TimeSeries) Dates() []xtime.Date {
	dates := make([]xtime.Date, 0, len(t.Rates))
	for dateString := range t.Rates {
		// Keys are validated when the response is decoded.
		date, err := xtime.ParseDate(dateString)
		if err != nil {
			continue
		}
		dates = append(dates, date)
	}
	slices.SortFunc(dates, xtime.Date.Compare)
	return dates
}

// Rate returns the rate for a currency on a date, and false if the rate is missing.
func (t *TimeSeries) Rate(date xtime.Date, currencyCode string) (decimal.Decimal, bool) {
	rate, ok := t.Rates[date.String()][currencyCode]
	return rate, ok
}

// CurrencyCatalog maps currency codes to human-readable names.
type CurrencyCatalog map[string]string

// Currency is a single catalog entry.
type Currency struct {
	// Code is the 3-letter currency code.
	Code string `json:"code"`
	// Name is the human-readable currency name.
	Name string `json:"name"`
}

// Currencies returns the catalog entries sorted by code.
func (c CurrencyCatalog) Currencies() []Currency {
	currencies := make([]Currency, 0, len(c))
	for _, code := range slices.Sorted(maps.Keys(c)) {
		currencies = append(currencies, Currency{Code: code, Name: c[code]})
	}
	return currencies
}

// Name returns the name of the currency, or the code itself if the code is not in the catalog.
func (c CurrencyCatalog) Name(code string) string {
	if name, ok := c[code]; ok && name != "" {
		return name
	}
	return code
}

// Client is the interface for reading from the rate service.
type Client interface {
	// GetTimeSeries fetches daily rates for a date range.
	//
	// Returns a *ValidationError if request.StartDate is empty, a *NetworkError
	// on transport failure, a *DecodeError if the response body is malformed,
	// and a *ServiceError if the service responds with an error.
	GetTimeSeries(ctx context.Context, request TimeSeriesRequest) (*TimeSeries, error)
	// GetCurrencies returns the currency catalog.
	//
	// A cached catalog is returned without a network call until it expires.
	// A failed request leaves the cache untouched.
	GetCurrencies(ctx context.Context) (CurrencyCatalog, error)
	// ClearCurrencyCache invalidates the cached currency catalog.
	ClearCurrencyCache()
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*client)

// ClientWithBaseURL sets the service base URL.
//
// The default is DefaultBaseURL.
func ClientWithBaseURL(baseURL string) ClientOption {
	return func(c *client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// ClientWithHTTPClient sets the HTTP client to use for requests.
func ClientWithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// ClientWithTimeout sets the request timeout.
//
// The default is DefaultTimeout.
func ClientWithTimeout(timeout time.Duration) ClientOption {
	return func(c *client) {
		c.timeout = timeout
	}
}

// ClientWithPathStyle sets how the time series endpoint is addressed.
//
// The default is PathStyleTimeseries.
func ClientWithPathStyle(pathStyle PathStyle) ClientOption {
	return func(c *client) {
		c.pathStyle = pathStyle
	}
}

// ClientWithCurrencyCache sets the cache for the currency catalog.
//
// The default is a new cache with DefaultCurrencyCacheTTL. Clients sharing
// a cache share the catalog.
func ClientWithCurrencyCache(currencyCache *ttlcache.Cache[CurrencyCatalog]) ClientOption {
	return func(c *client) {
		c.currencyCache = currencyCache
	}
}

// NewClient creates a new rate service client. The logger is required.
func NewClient(logger *slog.Logger, options ...ClientOption) Client {
	c := &client{
		logger:  logger,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, option := range options {
		option(c)
	}
	if c.currencyCache == nil {
		c.currencyCache = ttlcache.New[CurrencyCatalog](DefaultCurrencyCacheTTL)
	}
	var restyClient *resty.Client
	if c.httpClient != nil {
		// resty configures the client it wraps, so wrap a copy.
		httpClient := *c.httpClient
		restyClient = resty.NewWithClient(&httpClient)
	} else {
		restyClient = resty.New()
	}
	// Send ambient session cookies with every request. cookiejar.New only fails with a bad public suffix list.
	if restyClient.GetClient().Jar == nil {
		if jar, err := cookiejar.New(nil); err == nil {
			restyClient.SetCookieJar(jar)
		}
	}
	restyClient.
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json")
	c.restyClient = restyClient
	return c
}

type client struct {
	logger        *slog.Logger
	baseURL       string
	timeout       time.Duration
	pathStyle     PathStyle
	httpClient    *http.Client
	currencyCache *ttlcache.Cache[CurrencyCatalog]
	restyClient   *resty.Client
}

func (c *client) GetTimeSeries(ctx context.Context, request TimeSeriesRequest) (*TimeSeries, error) {
	if request.StartDate == "" {
		return nil, &ValidationError{Field: "start_date", Message: "start date is required"}
	}
	// Build the query parameters, omitting optional ones that are unset.
	queryParams := make(map[string]string)
	if request.Base != "" {
		queryParams["base"] = request.Base
	}
	if len(request.Symbols) > 0 {
		queryParams["symbols"] = strings.Join(request.Symbols, ",")
	}
	var path string
	switch c.pathStyle {
	case PathStyleRange:
		path = "/" + request.StartDate + ".." + request.EndDate
	default:
		path = "/timeseries"
		queryParams["start_date"] = request.StartDate
		if request.EndDate != "" {
			queryParams["end_date"] = request.EndDate
		}
	}
	body, err := c.get(ctx, path, queryParams)
	if err != nil {
		return nil, err
	}
	var response timeSeriesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, c.decodeError(path, err)
	}
	timeSeries, err := response.toTimeSeries(request)
	if err != nil {
		return nil, c.decodeError(path, err)
	}
	c.logger.Debug("time series fetched", "base", timeSeries.Base, "dates", len(timeSeries.Rates))
	return timeSeries, nil
}

func (c *client) GetCurrencies(ctx context.Context) (CurrencyCatalog, error) {
	if catalog, ok := c.currencyCache.Get(); ok {
		return maps.Clone(catalog), nil
	}
	const path = "/currencies"
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var catalog CurrencyCatalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, c.decodeError(path, err)
	}
	if catalog == nil {
		return nil, c.decodeError(path, errors.New("empty currency catalog"))
	}
	c.currencyCache.Set(catalog)
	c.logger.Debug("currency catalog cached", "currencies", len(catalog), "expires_at", c.currencyCache.ExpiresAt())
	return maps.Clone(catalog), nil
}

func (c *client) ClearCurrencyCache() {
	c.currencyCache.Clear()
}

// *** PRIVATE ***

// timeSeriesResponse is the JSON response for the time series endpoint.
type timeSeriesResponse struct {
	Base      string                                 `json:"base"`
	StartDate string                                 `json:"start_date"`
	EndDate   string                                 `json:"end_date"`
	Rates     map[string]map[string]*decimal.Decimal `json:"rates"`
}

// toTimeSeries normalizes the response, filling metadata the service omitted from the request.
func (r *timeSeriesResponse) toTimeSeries(request TimeSeriesRequest) (*TimeSeries, error) {
	rates := make(map[string]map[string]decimal.Decimal, len(r.Rates))
	for dateString, dateRates := range r.Rates {
		if _, err := xtime.ParseDate(dateString); err != nil {
			return nil, fmt.Errorf("invalid date key %q: %w", dateString, err)
		}
		// A null rate is missing, not zero.
		normalized := make(map[string]decimal.Decimal, len(dateRates))
		for currencyCode, rate := range dateRates {
			if rate != nil {
				normalized[currencyCode] = *rate
			}
		}
		rates[dateString] = normalized
	}
	timeSeries := &TimeSeries{
		Base:      r.Base,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Rates:     rates,
	}
	if timeSeries.Base == "" {
		timeSeries.Base = request.Base
	}
	if timeSeries.StartDate == "" {
		timeSeries.StartDate = request.StartDate
	}
	if timeSeries.EndDate == "" {
		timeSeries.EndDate = request.EndDate
	}
	return timeSeries, nil
}

// serviceErrorResponse is the error payload returned by the service.
type serviceErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// get issues a GET request and returns the body of a successful response.
func (c *client) get(ctx context.Context, path string, queryParams map[string]string) ([]byte, error) {
	c.logger.Debug("rate service request", "path", path, "params", queryParams)
	response, err := c.restyClient.R().
		SetContext(ctx).
		SetQueryParams(queryParams).
		Get(path)
	if err != nil {
		c.logger.Warn("rate service request failed", "path", path, "error", err)
		return nil, &NetworkError{Path: path, Err: err}
	}
	body := response.Body()
	if response.StatusCode() < http.StatusOK || response.StatusCode() >= http.StatusMultipleChoices {
		serviceError := &ServiceError{
			Path:       path,
			StatusCode: response.StatusCode(),
			Message:    serviceErrorMessage(body),
		}
		c.logger.Warn("rate service returned an error", "path", path, "status", serviceError.StatusCode, "message", serviceError.Message)
		return nil, serviceError
	}
	return body, nil
}

func (c *client) decodeError(path string, err error) error {
	c.logger.Warn("rate service response could not be decoded", "path", path, "error", err)
	return &DecodeError{Path: path, Err: err}
}

// serviceErrorMessage extracts the message from an error payload, falling back to the raw body.
func serviceErrorMessage(body []byte) string {
	var payload serviceErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
