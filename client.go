package kirara

import (
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/iwakura-enterprises/kirara"

// Hooks are fire-and-forget lifecycle notifications invoked around every
// exchange. OnRequest fires immediately before transmission; afterwards
// exactly one of OnResponse (with the deserialized value) or OnException
// (with the failure) fires. Nil fields are skipped.
//
// Hooks run on the worker goroutine and must not panic; a panicking hook
// fails the whole send with an ErrorTypeHook error.
type Hooks struct {
	OnRequest   func(req RequestView)
	OnResponse  func(req RequestView, value any)
	OnException func(req RequestView, err error)
}

// SupportsClientResponse is the opt-in capability for response types that
// want a back-reference to the client that produced them, for follow-up
// lookups. The reference is a convenience, never an ownership relationship.
// Embed ClientResponse to implement it.
type SupportsClientResponse interface {
	SetClient(c *Client)
}

// ClientResponse is an embeddable SupportsClientResponse implementation.
//
//	type User struct {
//	    kirara.ClientResponse
//	    Name string `json:"name"`
//	}
//
// After deserialization user.Client() returns the client that fetched it.
type ClientResponse struct {
	client *Client
}

// SetClient implements SupportsClientResponse.
func (r *ClientResponse) SetClient(c *Client) { r.client = c }

// Client returns the client that produced this response, or nil before the
// response went through a client.
func (r *ClientResponse) Client() *Client { return r.client }

// Client is the facade owning one Transport and one default Serializer. An
// API wrapper embeds or holds a Client, configures a base URL and default
// headers once, and creates requests through NewRequest:
//
//	type SpaceAPI struct {
//	    *kirara.Client
//	}
//
//	func NewSpaceAPI(token string) *SpaceAPI {
//	    return &SpaceAPI{Client: kirara.New(
//	        kirara.WithBaseURL("https://api.spacetraders.io/v2"),
//	        kirara.WithDefaultHeaders(kirara.BearerAuth(token)),
//	    )}
//	}
//
//	func (a *SpaceAPI) GetShip(symbol string) *kirara.Request[Ship] {
//	    return kirara.NewRequest[Ship](a.Client, http.MethodGet, "/my/ships/{symbol}").
//	        WithPathParameter(kirara.PathParamOf("symbol", symbol))
//	}
//
// A Client is constructed once, lives for the application's duration and is
// safe for concurrent use. Close releases the transport's resources; no
// requests may be issued afterwards.
type Client struct {
	transport       Transport
	serializer      Serializer
	baseURL         string
	defaultHeaders  []RequestHeader
	hooks           Hooks
	logger          zerolog.Logger
	debug           bool
	requestIDHeader string
	metrics         *MetricsCollector
	tracer          trace.Tracer

	closeOnce sync.Once
	closeErr  error
}

// New creates a Client. Without options it talks JSON over a tuned net/http
// transport and has no base URL, so every request must carry its own.
func New(opts ...Option) *Client {
	o := newClientOptions(opts...)

	c := &Client{
		transport:       o.transport,
		serializer:      o.serializer,
		baseURL:         o.baseURL,
		defaultHeaders:  o.defaultHeaders,
		hooks:           o.hooks,
		logger:          o.logger,
		debug:           o.debug,
		requestIDHeader: o.requestIDHeader,
		metrics:         o.metrics,
	}
	if o.tracerProvider != nil {
		c.tracer = o.tracerProvider.Tracer(scope)
	}
	return c
}

// BaseURL returns the client's default base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Serializer returns the client's default serializer.
func (c *Client) Serializer() Serializer { return c.serializer }

// Transport returns the client's transport.
func (c *Client) Transport() Transport { return c.transport }

// DefaultHeaders returns the headers copied into every request created
// through NewRequest. The returned slice is the client's own; treat it as
// read-only once requests are being issued.
func (c *Client) DefaultHeaders() []RequestHeader { return c.defaultHeaders }

// Close releases the transport's resources, such as pooled connections.
// Close is idempotent. Issuing requests after Close is a contract
// violation with unspecified behavior.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.transport.Close()
	})
	return c.closeErr
}

// NewRequest creates a request bound to the client, carrying the client's
// base URL and a copy of its default headers. The copy keeps later header
// mutations on the request from leaking into the client and vice versa.
//
// This is a top-level function rather than a method because Go methods
// cannot introduce type parameters.
func NewRequest[T any](c *Client, method, endpoint string) *Request[T] {
	var headers []RequestHeader
	if len(c.defaultHeaders) > 0 {
		headers = make([]RequestHeader, len(c.defaultHeaders))
		copy(headers, c.defaultHeaders)
	}
	return &Request[T]{
		client:   c,
		method:   method,
		endpoint: endpoint,
		baseURL:  c.baseURL,
		headers:  headers,
	}
}
