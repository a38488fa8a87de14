package client

import (
	"errors"
	"fmt"
)

// ErrDecode is returned when a response body is not a valid tRPC envelope.
var ErrDecode = errors.New("decode response")

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures (no status received).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents malformed response bodies.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError describes a failed procedure call.
type APIError struct {
	Procedure  string
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s error (status %d): %s: %v",
			e.Procedure, e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s error (status %d): %s",
		e.Procedure, e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsStatusError reports whether err carries a non-success HTTP status, as
// opposed to a transport or decoding failure.
func IsStatusError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode != 0 && apiErr.Class != ErrorClassNetwork && apiErr.Class != ErrorClassDecode
}

// classifyStatus maps a non-2xx status code to its error class.
func classifyStatus(statusCode int) ErrorClass {
	if statusCode >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}
