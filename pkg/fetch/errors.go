package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors produced by the dispatcher.
var (
	// ErrTimeout is the cause recorded when a request exceeds the
	// per-request timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrCancelled is the cause recorded when the batch context is
	// cancelled while a dispatch waits for a gate slot or backoff.
	ErrCancelled = errors.New("dispatch cancelled")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// RequestError carries classification context for a hard failure cause.
type RequestError struct {
	Identifier Identifier
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s error for %q: %s: %v", e.Class, e.Identifier, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch %s error for %q: %s", e.Class, e.Identifier, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// classifyOutcome maps an outcome to an error class for retry decisions
// and metrics. Success maps to the empty class.
func classifyOutcome(o Outcome) ErrorClass {
	switch o.Class {
	case ClassSoftFailure:
		if o.StatusCode >= http.StatusInternalServerError {
			return ErrorClassServer
		}
		return ErrorClassClient
	case ClassHardFailure:
		return ErrorClassNetwork
	default:
		return ""
	}
}

// shouldRetry determines if a failed outcome is worth retrying.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassClient:
		// 4xx responses are deterministic, retrying wastes the slot
		return false
	case ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
