// Copyright 2026 Peter Edge
//
// All rights reserved.

package frankfurter

import (
	"fmt"
	"net/http"
)

// NetworkError is returned when a request fails in transport, including timeouts.
type NetworkError struct {
	// Path is the requested endpoint path.
	Path string
	// Err is the underlying transport error.
	Err error
}

// Error implements error.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error requesting %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body is not well-formed.
type DecodeError struct {
	// Path is the requested endpoint path.
	Path string
	// Err is the underlying decoding error.
	Err error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode response from %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decoding error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServiceError is returned when the service responds with an error status.
type ServiceError struct {
	// Path is the requested endpoint path.
	Path string
	// StatusCode is the HTTP status code.
	StatusCode int
	// Message is the message from the service's error payload, if any.
	Message string
}

// Error implements error.
func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rate service returned %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.Path)
	}
	return fmt.Sprintf("rate service returned %d for %s: %s", e.StatusCode, e.Path, e.Message)
}

// ValidationError is returned for locally detected bad input.
type ValidationError struct {
	// Field is the name of the invalid field.
	Field string
	// Message describes the problem.
	Message string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
