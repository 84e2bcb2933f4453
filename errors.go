package neo4jmcp

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure reported through the response envelope.
type ErrorKind string

// Error kinds, from connection lifecycle through query execution.
const (
	// KindNotConnected is reported when a session is requested before
	// Connect or after Disconnect.
	KindNotConnected ErrorKind = "not_connected"

	// KindConnectionFailure is reported when establishing the endpoint
	// handle fails for a reason that is neither an auth rejection nor an
	// unreachable endpoint.
	KindConnectionFailure ErrorKind = "connection_failure"

	// KindAuthenticationFailure is reported when the endpoint rejects the
	// configured credentials.
	KindAuthenticationFailure ErrorKind = "authentication_failure"

	// KindServiceUnavailable is reported when the endpoint is unreachable.
	KindServiceUnavailable ErrorKind = "service_unavailable"

	// KindInvalidIdentifier is reported when a structural token (label,
	// relationship type, property key) fails the identifier grammar.
	KindInvalidIdentifier ErrorKind = "invalid_identifier"

	// KindEmptyOperation is reported when a request is missing all of its
	// discriminating fields, or carries a value outside the supported
	// scalar/array shapes.
	KindEmptyOperation ErrorKind = "empty_operation"

	// KindQueryExecutionFailure is reported for query-language errors such
	// as syntax errors and constraint violations.
	KindQueryExecutionFailure ErrorKind = "query_execution_failure"

	// KindSessionFailure is reported when the connection drops or the call
	// is cancelled mid-execution.
	KindSessionFailure ErrorKind = "session_failure"

	// KindUnknown is the catch-all for unclassified driver failures.
	KindUnknown ErrorKind = "unknown"
)

// Error is the single failure shape that crosses the layer's public
// boundary. It is created at the point of failure and never mutated.
type Error struct {
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`

	cause error
}

// NewError creates an Error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, Details: map[string]any{}}
}

// WrapError creates an Error that preserves the underlying failure in
// Details and through Unwrap.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	details := map[string]any{}
	if cause != nil {
		details["cause"] = cause.Error()
	}

	return &Error{Kind: kind, Message: message, Details: details, cause: cause}
}

// WithDetail sets an extra detail entry. The receiver is returned for
// chaining at construction sites only.
func (e *Error) WithDetail(key string, value any) *Error {
	e.Details[key] = value

	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// AsError coerces any error into an *Error, wrapping unclassified errors
// as KindUnknown. A nil error returns nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return WrapError(KindUnknown, "unclassified failure", err)
}

// KindOf reports the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) ErrorKind {
	if e := AsError(err); e != nil {
		return e.Kind
	}

	return KindUnknown
}
