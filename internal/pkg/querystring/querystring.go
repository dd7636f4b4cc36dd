// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package querystring stores typed state in the query string of an address.
//
// An address is a URL with a path, a query string, and a fragment. History
// holds the current address and only ever replaces it, so writing state
// never creates a new navigation entry. Readers never fail: a missing or
// malformed value yields the caller's default.
package querystring

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/bufdev/fxdash/internal/standard/xtime"
)

// listSeparator joins list values in a single query parameter.
const listSeparator = ","

// History holds the current address.
//
// All methods are safe for concurrent use. Write compares and replaces
// under a single lock so that two writes in the same instant cannot lose
// each other's keys.
type History struct {
	mu           sync.Mutex
	current      *url.URL
	replaceCount int
}

// NewHistory returns a new History starting at the given address.
//
// The address may be a full URL ("https://host/path?a=b#c"), a path with a
// query ("/path?a=b"), or a bare query string ("?a=b" or "a=b").
func NewHistory(address string) (*History, error) {
	u, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return &History{
		current: u,
	}, nil
}

// ParseAddress parses an address as accepted by NewHistory.
func ParseAddress(address string) (*url.URL, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return &url.URL{Path: "/"}, nil
	}
	if !strings.Contains(address, "?") && !strings.Contains(address, "://") && !strings.HasPrefix(address, "/") && !strings.HasPrefix(address, "#") {
		// A bare query string.
		address = "?" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, err
	}
	// Reject undecodable query strings up front so that readers never see them.
	if _, err := url.ParseQuery(u.RawQuery); err != nil {
		return nil, err
	}
	return u, nil
}

// String returns the current address.
func (h *History) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.String()
}

// Values returns a snapshot of the current query values.
func (h *History) Values() Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return newValues(h.current.RawQuery)
}

// ReplaceCount returns the number of times the address has been replaced.
func (h *History) ReplaceCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replaceCount
}

// Write applies a patch of key/value pairs to the query string.
//
// An empty value removes the key, any other value sets it. The address is
// replaced at most once, and only if at least one key actually changed.
// The path and fragment are preserved. Returns true if the address changed.
func (h *History) Write(patch map[string]string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	values, _ := url.ParseQuery(h.current.RawQuery)
	if values == nil {
		values = make(url.Values)
	}
	changed := false
	for key, value := range patch {
		if value == "" {
			if values.Has(key) {
				values.Del(key)
				changed = true
			}
			continue
		}
		if current, ok := values[key]; !ok || len(current) != 1 || current[0] != value {
			values.Set(key, value)
			changed = true
		}
	}
	if !changed {
		return false
	}
	next := *h.current
	next.RawQuery = values.Encode()
	// ForceQuery would keep a dangling "?" once every key is removed.
	next.ForceQuery = false
	h.current = &next
	h.replaceCount++
	return true
}

// Values is a read-only snapshot of query values.
type Values struct {
	values url.Values
}

// String returns the value of key, or defaultValue if it is absent or empty.
func (v Values) String(key string, defaultValue string) string {
	if value := v.values.Get(key); value != "" {
		return value
	}
	return defaultValue
}

// Strings returns the comma-separated list stored at key with empty elements dropped.
//
// Returns defaultValue if the key is absent or the list is empty.
func (v Values) Strings(key string, defaultValue []string) []string {
	value := v.values.Get(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, element := range strings.Split(value, listSeparator) {
		if element != "" {
			result = append(result, element)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// Date returns the YYYY-MM-DD date stored at key, or defaultValue if it is absent or invalid.
func (v Values) Date(key string, defaultValue xtime.Date) xtime.Date {
	value := v.values.Get(key)
	if value == "" {
		return defaultValue
	}
	date, err := xtime.ParseDate(value)
	if err != nil {
		return defaultValue
	}
	return date
}

// Int returns the base-10 integer stored at key, or defaultValue if it is absent or invalid.
func (v Values) Int(key string, defaultValue int) int {
	value := v.values.Get(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	return v.values.Has(key)
}

// FormatStrings formats a list for Write. An empty list formats to "" so that Write removes the key.
func FormatStrings(values []string) string {
	return strings.Join(values, listSeparator)
}

// FormatDate formats a date for Write. The zero date formats to "" so that Write removes the key.
func FormatDate(date xtime.Date) string {
	if date.IsZero() || !date.IsValid() {
		return ""
	}
	return date.String()
}

// FormatInt formats an integer for Write.
func FormatInt(i int) string {
	return strconv.Itoa(i)
}

// *** PRIVATE ***

func newValues(rawQuery string) Values {
	// Errors are rejected by ParseAddress, and Write only produces encoded values.
	values, _ := url.ParseQuery(rawQuery)
	return Values{
		values: values,
	}
}
