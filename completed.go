package kirara

import "context"

// CompletedRequest is a Request variant pre-bound to a fixed value. Sending
// it resolves immediately without any network attempt, which makes it the
// building block for caller-side response caching:
//
//	if cached, ok := cache.Get(id); ok {
//	    return kirara.NewCompletedRequest(client, cached)
//	}
//	return kirara.NewRequest[User](client, http.MethodGet, "/users/{id}").
//	    WithPathParameter(kirara.PathParamOf("id", id))
//
// A completed request carries no URL-construction data, so URL always
// fails. Lifecycle hooks are not invoked since no exchange takes place.
type CompletedRequest[T any] struct {
	client *Client
	value  T
}

var _ Sender[string] = (*CompletedRequest[string])(nil)

// NewCompletedRequest creates a request pre-bound to value.
func NewCompletedRequest[T any](c *Client, value T) *CompletedRequest[T] {
	return &CompletedRequest[T]{client: c, value: value}
}

// Method returns "" since no call is described.
func (r *CompletedRequest[T]) Method() string { return "" }

// Endpoint returns "" since no call is described.
func (r *CompletedRequest[T]) Endpoint() string { return "" }

// Headers returns nil since no call is described.
func (r *CompletedRequest[T]) Headers() []RequestHeader { return nil }

// URL always fails with a configuration error; a completed request holds a
// value instead of the data needed to build a URL.
func (r *CompletedRequest[T]) URL() (string, error) {
	return "", newConfigError("completed request has no URL", ErrCompletedRequestURL)
}

// Send returns an already-resolved future carrying the bound value.
func (r *CompletedRequest[T]) Send(context.Context) *Future[T] {
	return CompletedFuture(r.value)
}
