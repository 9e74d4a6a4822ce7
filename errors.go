package kirara

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrNoBaseURL is returned when a request has no explicit base URL and
	// the owning client has no default base URL either.
	ErrNoBaseURL = errors.New("kirara: no base URL available")

	// ErrCompletedRequestURL is returned when URL computation is attempted
	// on a completed request, which holds a value instead of call data.
	ErrCompletedRequestURL = errors.New("kirara: completed requests do not have a request URL")

	// ErrUnsupportedOperation is returned by a serializer that cannot
	// represent the given value type.
	ErrUnsupportedOperation = errors.New("kirara: unsupported serializer operation")

	// ErrInvalidArgument is returned by a serializer when the deserialization
	// target or payload is incompatible with what the serializer produces.
	ErrInvalidArgument = errors.New("kirara: invalid argument")

	// ErrUnsupportedContentType is returned when a response's Content-Type
	// is not in the serializer's accepted set.
	ErrUnsupportedContentType = errors.New("kirara: unsupported content type")
)

// ErrorType classifies a ClientError.
type ErrorType string

const (
	// ErrorTypeConfig marks configuration failures detected before any I/O,
	// such as a missing base URL or an unsupported serializer operation.
	ErrorTypeConfig ErrorType = "config"

	// ErrorTypeTransport marks connection and I/O failures.
	ErrorTypeTransport ErrorType = "transport"

	// ErrorTypeDecode marks failures while decompressing or deserializing
	// a response payload.
	ErrorTypeDecode ErrorType = "decode"

	// ErrorTypeHook marks a lifecycle hook that panicked during a send.
	ErrorTypeHook ErrorType = "hook"
)

// ClientError is the typed error carried by failed futures. It records the
// failure class and, where known, the request that produced it.
//
// Use errors.As to inspect it and errors.Is to match the wrapped cause:
//
//	_, err := req.Send(ctx).Wait(ctx)
//	var cerr *kirara.ClientError
//	if errors.As(err, &cerr) && cerr.Type == kirara.ErrorTypeDecode {
//	    log.Printf("bad payload from %s", cerr.URL)
//	}
type ClientError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Method     string
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("kirara: %s: %s", e.Type, e.Message)
	if e.Method != "" && e.URL != "" {
		msg = fmt.Sprintf("%s (%s %s)", msg, e.Method, e.URL)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches two ClientErrors by type, so
// errors.Is(err, &ClientError{Type: ErrorTypeDecode}) works.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if other, ok := target.(*ClientError); ok {
		return e.Type == other.Type
	}
	return false
}

func newConfigError(message string, cause error) *ClientError {
	return &ClientError{Type: ErrorTypeConfig, Message: message, Cause: cause}
}

func newTransportError(method, url string, cause error) *ClientError {
	return &ClientError{
		Type:    ErrorTypeTransport,
		Message: "request failed",
		Cause:   cause,
		Method:  method,
		URL:     url,
	}
}

func newDecodeError(method, url string, statusCode int, cause error) *ClientError {
	return &ClientError{
		Type:       ErrorTypeDecode,
		Message:    "response decoding failed",
		Cause:      cause,
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
	}
}

func newHookError(method string, recovered any) *ClientError {
	return &ClientError{
		Type:    ErrorTypeHook,
		Message: "lifecycle hook panicked",
		Cause:   fmt.Errorf("%v", recovered),
		Method:  method,
	}
}
