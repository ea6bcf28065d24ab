package models

import (
	"context"
	"errors"
	"fmt"
)

const (
	MsgFillAllFields    = "Please fill in all fields"
	MsgFetchFirst       = "Please fetch stock data first"
	MsgInvalidChartData = "Invalid chart data received"
	MsgInvalidResponse  = "Invalid response from server"
	MsgFetchFailed      = "Failed to fetch stock data"
	MsgAnalysisFailed   = "Failed to load analysis"
)

// ValidationError is raised for missing or unknown user input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StateError is raised when an operation is invoked out of order.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

// HTTPError carries a non-2xx status from the backend.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string { return fmt.Sprintf("HTTP error! status: %d", e.Status) }

// APIError is a logical failure reported by the backend in a 2xx body.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

// DataError means a 2xx body that could not be used.
type DataError struct {
	Message string
	Err     error
}

func (e *DataError) Error() string { return e.Message }

func (e *DataError) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure that never produced a status.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// Kind labels err for logs and metrics.
func Kind(err error) string {
	var (
		ve *ValidationError
		se *StateError
		he *HTTPError
		ae *APIError
		de *DataError
		ne *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &se):
		return "state"
	case errors.As(err, &he):
		return "http"
	case errors.As(err, &ae):
		return "api"
	case errors.As(err, &de):
		return "data"
	case errors.As(err, &ne):
		return "network"
	default:
		return "unknown"
	}
}

// UserMessage is the text shown for err, or fallback when err has none.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
