package kirara

import (
	"context"
	"net/url"
	"strings"
)

// RequestHeader is an immutable header key/value pair. Headers are held in
// a list, so several entries may share a key (multi-valued headers).
type RequestHeader struct {
	Key   string
	Value string
}

// HeaderOf creates a RequestHeader.
func HeaderOf(key, value string) RequestHeader {
	return RequestHeader{Key: key, Value: value}
}

// BearerAuth creates an Authorization header carrying a Bearer token.
func BearerAuth(token string) RequestHeader {
	return RequestHeader{Key: "Authorization", Value: "Bearer " + token}
}

// APIKeyAuth creates an API key header.
func APIKeyAuth(headerName, apiKey string) RequestHeader {
	return RequestHeader{Key: headerName, Value: apiKey}
}

// RequestHeadersToMap folds a header list into a map, joining values that
// share a key with ", " in list order.
func RequestHeadersToMap(headers []RequestHeader) map[string]string {
	folded := make(map[string]string, len(headers))
	for _, h := range headers {
		if existing, ok := folded[h.Key]; ok {
			folded[h.Key] = existing + ", " + h.Value
		} else {
			folded[h.Key] = h.Value
		}
	}
	return folded
}

// RequestQuery is an immutable query key/value pair. Queries are held in a
// set, so identical (key, value) pairs collapse into one and the rendered
// query-string order is non-deterministic. Both are accepted limitations of
// the query model, not defects.
type RequestQuery struct {
	Key   string
	Value string
}

// QueryOf creates a RequestQuery.
func QueryOf(key, value string) RequestQuery {
	return RequestQuery{Key: key, Value: value}
}

// PathParameter is an immutable path substitution pair. Parameters are
// keyed by Key: adding a second parameter with the same key replaces the
// first.
type PathParameter struct {
	Key   string
	Value string
}

// PathParamOf creates a PathParameter.
func PathParamOf(key, value string) PathParameter {
	return PathParameter{Key: key, Value: value}
}

// RequestView is the untyped view of a request handed to lifecycle hooks,
// metrics and logging.
type RequestView interface {
	// Method returns the HTTP method.
	Method() string
	// Endpoint returns the endpoint template before substitution.
	Endpoint() string
	// URL computes the final request URL.
	URL() (string, error)
	// Headers returns the header list as it will go on the wire, including
	// the stamped request ID header when the client is configured with one.
	Headers() []RequestHeader
}

// Sender is the common surface of Request and CompletedRequest. Callers
// that cache responses can hand out either behind this interface.
type Sender[T any] interface {
	RequestView
	Send(ctx context.Context) *Future[T]
}

// Request is a mutable, single-use builder describing one API call. It is
// created through NewRequest, mutated via chained With* setters, consumed
// exactly once by Send and then discarded.
//
// A Request is owned exclusively by its creator: it carries no internal
// synchronization and must not be mutated concurrently with Send.
//
//	users, err := kirara.NewRequest[[]User](client, http.MethodGet, "/teams/{team}/users").
//	    WithPathParameter(kirara.PathParamOf("team", "42")).
//	    WithRequestQuery(kirara.QueryOf("active", "true")).
//	    Send(ctx).
//	    Wait(ctx)
type Request[T any] struct {
	client     *Client
	method     string
	endpoint   string
	baseURL    string
	headers    []RequestHeader
	pathParams map[string]string
	queries    map[RequestQuery]struct{}
	body       any
	serializer Serializer
}

var _ Sender[string] = (*Request[string])(nil)

// Method returns the HTTP method.
func (r *Request[T]) Method() string { return r.method }

// Endpoint returns the endpoint template before substitution.
func (r *Request[T]) Endpoint() string { return r.endpoint }

// Body returns the request body value, or nil when none is set.
func (r *Request[T]) Body() any { return r.body }

// Headers returns the header list in insertion order.
func (r *Request[T]) Headers() []RequestHeader { return r.headers }

// WithBaseURL sets an explicit base URL for this request, overriding the
// client default. Passing "" clears the explicit base so URL computation
// falls back to the client's default base URL.
func (r *Request[T]) WithBaseURL(baseURL string) *Request[T] {
	r.baseURL = baseURL
	return r
}

// WithSerializerOverride makes this request use the given serializer for
// body and response conversion instead of the client default.
func (r *Request[T]) WithSerializerOverride(s Serializer) *Request[T] {
	r.serializer = s
	return r
}

// WithExplicitHeaders replaces all headers, discarding any previously set,
// including the client's defaults copied in at construction.
func (r *Request[T]) WithExplicitHeaders(headers []RequestHeader) *Request[T] {
	r.headers = headers
	return r
}

// WithHeader appends a header.
func (r *Request[T]) WithHeader(header RequestHeader) *Request[T] {
	r.headers = append(r.headers, header)
	return r
}

// WithHeaders appends headers.
func (r *Request[T]) WithHeaders(headers ...RequestHeader) *Request[T] {
	r.headers = append(r.headers, headers...)
	return r
}

// WithPathParameter adds a path parameter. A parameter with an already
// present key replaces the previous value.
func (r *Request[T]) WithPathParameter(param PathParameter) *Request[T] {
	if r.pathParams == nil {
		r.pathParams = make(map[string]string)
	}
	r.pathParams[param.Key] = param.Value
	return r
}

// WithPathParameters adds path parameters.
func (r *Request[T]) WithPathParameters(params ...PathParameter) *Request[T] {
	for _, p := range params {
		r.WithPathParameter(p)
	}
	return r
}

// WithRequestQuery adds a query parameter. Identical (key, value) pairs
// collapse into one.
func (r *Request[T]) WithRequestQuery(query RequestQuery) *Request[T] {
	if r.queries == nil {
		r.queries = make(map[RequestQuery]struct{})
	}
	r.queries[query] = struct{}{}
	return r
}

// WithRequestQueries adds query parameters.
func (r *Request[T]) WithRequestQueries(queries ...RequestQuery) *Request[T] {
	for _, q := range queries {
		r.WithRequestQuery(q)
	}
	return r
}

// WithBody sets the request body. A []byte body is sent as-is, a string
// body is sent as its UTF-8 bytes and anything else goes through the
// active serializer.
func (r *Request[T]) WithBody(body any) *Request[T] {
	r.body = body
	return r
}

// URL computes the final absolute request URL. It has no side effects and
// is a pure function of the request state, so repeated calls with unchanged
// state return the same URL (modulo query parameter order, which follows
// set semantics).
//
// The endpoint template has every {key} placeholder replaced with the raw
// value of the matching path parameter. When two parameter keys overlap
// textually the substitution outcome is undefined. Query keys and values
// are percent-encoded independently (space as %20) and appended as
// ?key=value pairs joined by &.
//
// An explicit base URL is concatenated literally with the constructed
// endpoint. When the request has no explicit base the client's default base
// URL is used instead, and the entire constructed endpoint is
// percent-encoded as one unit before concatenation. The asymmetry between
// the two paths is long-standing documented behavior. No slash
// normalization happens on either path.
func (r *Request[T]) URL() (string, error) {
	endpoint := r.endpoint

	for key, value := range r.pathParams {
		endpoint = strings.ReplaceAll(endpoint, "{"+key+"}", value)
	}

	if len(r.queries) > 0 {
		var sb strings.Builder
		sb.WriteByte('?')
		first := true
		for query := range r.queries {
			if !first {
				sb.WriteByte('&')
			}
			first = false
			sb.WriteString(queryEscape(query.Key))
			sb.WriteByte('=')
			sb.WriteString(queryEscape(query.Value))
		}
		endpoint += sb.String()
	}

	if r.baseURL != "" {
		return r.baseURL + endpoint, nil
	}
	if r.client != nil && r.client.baseURL != "" {
		return r.client.baseURL + queryEscape(endpoint), nil
	}
	return "", newConfigError("no base URL set on request or client", ErrNoBaseURL)
}

// Send submits the request to the client's transport and returns a pending
// future. Configuration errors such as a missing base URL resolve the
// future immediately, before any I/O. The context governs the underlying
// HTTP exchange; there is no other cancellation primitive.
func (r *Request[T]) Send(ctx context.Context) *Future[T] {
	return sendRequest(ctx, r)
}

// activeSerializer resolves the serializer for this request, preferring
// the per-request override over the client default.
func (r *Request[T]) activeSerializer() Serializer {
	if r.serializer != nil {
		return r.serializer
	}
	return r.client.serializer
}

// queryEscape percent-encodes a query component, using %20 for space
// instead of the historical + convention.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
