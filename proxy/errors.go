package proxy

import (
	"fmt"
)

// ErrorKind classifies a failed call to the Cellium endpoint.
type ErrorKind string

const (
	// KindConnectionUnavailable indicates the liveness check or the
	// underlying HTTP transport failed.
	KindConnectionUnavailable ErrorKind = "connectionUnavailable"
	// KindHTTPStatus indicates a non-2xx HTTP response.
	KindHTTPStatus ErrorKind = "httpStatus"
	// KindProtocolError indicates the remote returned an RPC-level error
	// object.
	KindProtocolError ErrorKind = "protocolError"
	// KindMalformedResponse indicates the response body did not parse as a
	// JSON-RPC envelope.
	KindMalformedResponse ErrorKind = "malformedResponse"
)

// CallError describes a failed call to the Cellium endpoint.
type CallError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *CallError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// NewConnectionUnavailable creates a connection unavailable error.
func NewConnectionUnavailable(err error) *CallError {
	return &CallError{Kind: KindConnectionUnavailable, Message: fmt.Sprintf("Cellium API unavailable: %v", err), Err: err}
}

// NewHTTPStatusError creates an error for a non-2xx HTTP response.
func NewHTTPStatusError(statusCode int) *CallError {
	return &CallError{Kind: KindHTTPStatus, StatusCode: statusCode, Message: fmt.Sprintf("Cellium API returned status %d", statusCode)}
}

// NewProtocolError creates an error for an RPC-level error object carried in
// an otherwise successful HTTP response.
func NewProtocolError(code int, message string) *CallError {
	return &CallError{Kind: KindProtocolError, StatusCode: code, Message: "Remote server error: " + message}
}

// NewMalformedResponseError creates an error for a response body that failed
// to parse as the expected JSON-RPC envelope.
func NewMalformedResponseError(err error) *CallError {
	return &CallError{Kind: KindMalformedResponse, Message: fmt.Sprintf("malformed Cellium API response: %v", err), Err: err}
}
