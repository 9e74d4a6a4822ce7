package kirara

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// WireRequest is the fully resolved request handed to a Transport: final
// URL, folded headers and raw body bytes. All templating, serialization and
// header merging already happened by the time a transport sees it.
type WireRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// WireResponse is the raw response a Transport hands back. The body is the
// exact byte sequence received; decompression and deserialization happen in
// the client pipeline.
type WireResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs the actual network exchange for a request. It is the
// pluggable backend of a Client: HTTPTransport drives net/http, and
// MockTransport serves tests. Implementations must be safe for concurrent
// use; a Client issues exchanges from many goroutines.
type Transport interface {
	// Exchange sends one request and reads the full response. The context
	// bounds the exchange.
	Exchange(ctx context.Context, req *WireRequest) (*WireResponse, error)

	// Close releases transport resources such as pooled connections.
	// Close is idempotent. No exchanges may be started after Close.
	Close() error
}

// HTTPTransport is the net/http backed Transport. Construct it with
// NewHTTPTransport for tuned pooling defaults, or wrap an existing
// *http.Client with NewHTTPTransportWithClient when the application already
// manages one.
type HTTPTransport struct {
	client    *http.Client
	closeOnce sync.Once
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates an HTTPTransport from the given configuration.
// Use DefaultConfig() as a starting point:
//
//	cfg := kirara.DefaultConfig()
//	cfg.Timeout = 5 * time.Second
//	transport := kirara.NewHTTPTransport(cfg)
func NewHTTPTransport(cfg Config) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Transport: cfg.buildTransport(),
			Timeout:   cfg.Timeout,
		},
	}
}

// NewHTTPTransportWithClient wraps an existing http.Client. The caller
// keeps ownership of the client's transport settings; note that automatic
// response decompression should be disabled on it so the content sniffing
// layer sees the raw bytes.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

// HTTP returns the underlying *http.Client for advanced use cases.
func (t *HTTPTransport) HTTP() *http.Client {
	return t.client
}

// Exchange implements Transport.
func (t *HTTPTransport) Exchange(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &WireResponse{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// Close closes idle connections held by the underlying client.
func (t *HTTPTransport) Close() error {
	t.closeOnce.Do(func() {
		t.client.CloseIdleConnections()
	})
	return nil
}
