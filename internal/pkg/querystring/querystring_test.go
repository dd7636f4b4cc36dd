// Copyright 2026 Peter Edge
//
// All rights reserved.

package querystring

import (
	"testing"

	"github.com/bufdev/fxdash/internal/standard/xtime"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		address      string
		wantPath     string
		wantQuery    string
		wantFragment string
	}{
		{"", "/", "", ""},
		{"chart_base=USD", "", "chart_base=USD", ""},
		{"?chart_base=USD", "", "chart_base=USD", ""},
		{"/dashboard?chart_base=USD#top", "/dashboard", "chart_base=USD", "top"},
		{"https://fx.example.com/app?date_pageSize=50", "/app", "date_pageSize=50", ""},
	} {
		u, err := ParseAddress(test.address)
		require.NoError(t, err, test.address)
		require.Equal(t, test.wantPath, u.Path, test.address)
		require.Equal(t, test.wantQuery, u.RawQuery, test.address)
		require.Equal(t, test.wantFragment, u.Fragment, test.address)
	}
	_, err := ParseAddress("a=%zz")
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	history, err := NewHistory("/")
	require.NoError(t, err)
	date := xtime.Date{Year: 2024, Month: 2, Day: 29}
	require.True(t, history.Write(map[string]string{
		"chart_base":     "USD",
		"chart_target":   FormatStrings([]string{"EUR", "GBP", "JPY"}),
		"chart_start":    FormatDate(date),
		"trend_pageSize": FormatInt(50),
	}))
	values := history.Values()
	require.Equal(t, "USD", values.String("chart_base", "CAD"))
	require.Equal(t, []string{"EUR", "GBP", "JPY"}, values.Strings("chart_target", nil))
	require.Equal(t, date, values.Date("chart_start", xtime.Date{}))
	require.Equal(t, 50, values.Int("trend_pageSize", 20))
}

func TestEmptyListRemovesKey(t *testing.T) {
	t.Parallel()
	history, err := NewHistory("?date_target=EUR,GBP&date_base=USD")
	require.NoError(t, err)
	require.True(t, history.Write(map[string]string{
		"date_target": FormatStrings(nil),
	}))
	values := history.Values()
	require.False(t, values.Has("date_target"))
	require.Equal(t, "?date_base=USD", history.String())
}

func TestWriteOnlyWhenChanged(t *testing.T) {
	t.Parallel()
	history, err := NewHistory("/app?chart_base=USD#section")
	require.NoError(t, err)
	require.False(t, history.Write(map[string]string{"chart_base": "USD"}))
	require.False(t, history.Write(map[string]string{"chart_end": ""}))
	require.Equal(t, 0, history.ReplaceCount())
	// Several keys in one call replace the address once.
	require.True(t, history.Write(map[string]string{
		"chart_base":   "GBP",
		"chart_target": "EUR",
		"chart_period": "week",
	}))
	require.Equal(t, 1, history.ReplaceCount())
	require.Equal(t, "/app?chart_base=GBP&chart_period=week&chart_target=EUR#section", history.String())
}

func TestWriteRemovingLastKey(t *testing.T) {
	t.Parallel()
	history, err := NewHistory("/app?chart_base=USD")
	require.NoError(t, err)
	require.True(t, history.Write(map[string]string{"chart_base": ""}))
	require.Equal(t, "/app", history.String())
}

func TestReadersFallBack(t *testing.T) {
	t.Parallel()
	history, err := NewHistory("?s=&l=,,&d=2024-13-01&d2=2024-01-02x&i=12abc&i2=")
	require.NoError(t, err)
	values := history.Values()
	defaultDate := xtime.Date{Year: 2020, Month: 1, Day: 1}
	require.Equal(t, "def", values.String("s", "def"))
	require.Equal(t, "def", values.String("missing", "def"))
	require.Equal(t, []string{"EUR"}, values.Strings("l", []string{"EUR"}))
	require.Equal(t, []string{"EUR"}, values.Strings("missing", []string{"EUR"}))
	require.Equal(t, defaultDate, values.Date("d", defaultDate))
	require.Equal(t, defaultDate, values.Date("d2", defaultDate))
	require.Equal(t, defaultDate, values.Date("missing", defaultDate))
	require.Equal(t, 20, values.Int("i", 20))
	require.Equal(t, 20, values.Int("i2", 20))
	require.Equal(t, 20, values.Int("missing", 20))
}

func TestStringsDropsEmptyElements(t *testing.T) {
	t.Parallel()
	history, err := NewHistory("?l=EUR,,GBP,")
	require.NoError(t, err)
	require.Equal(t, []string{"EUR", "GBP"}, history.Values().Strings("l", nil))
}

func TestFormatDateZero(t *testing.T) {
	t.Parallel()
	require.Equal(t, "", FormatDate(xtime.Date{}))
	require.Equal(t, "2024-01-05", FormatDate(xtime.Date{Year: 2024, Month: 1, Day: 5}))
}
