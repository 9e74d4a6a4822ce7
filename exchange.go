package kirara

import (
	"context"
	"net/http"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// sendRequest runs the shared exchange pipeline for a request: URL
// resolution, body conversion, the transport exchange, decompression,
// deserialization and the lifecycle hooks around it all.
//
// The URL is computed before dispatch so configuration failures resolve
// the future synchronously, before any I/O and without firing hooks. All
// later failures fire OnException and fail the future.
func sendRequest[T any](ctx context.Context, r *Request[T]) *Future[T] {
	url, err := r.URL()
	if err != nil {
		return FailedFuture[T](err)
	}

	c := r.client
	future := newFuture[T]()

	go func() {
		defer func() {
			// Hooks run on this goroutine; a panicking hook fails the
			// send instead of crashing the process.
			if recovered := recover(); recovered != nil {
				var zero T
				future.complete(zero, newHookError(r.method, recovered))
			}
		}()
		value, err := performExchange(ctx, c, r, url)
		future.complete(value, err)
	}()

	return future
}

func performExchange[T any](ctx context.Context, c *Client, r *Request[T], url string) (T, error) {
	var zero T

	body, err := convertBodyToBytes(c, r)
	if err != nil {
		cerr := &ClientError{
			Type:    ErrorTypeConfig,
			Message: "body conversion failed",
			Cause:   err,
			Method:  r.method,
			URL:     url,
		}
		c.recordError(ErrorTypeConfig, r.method, r.endpoint)
		c.notifyException(r, cerr)
		return zero, cerr
	}

	requestID := ""
	if c.requestIDHeader != "" {
		requestID = uuid.NewString()
		// Stamped onto the request itself, before OnRequest fires, so hooks
		// observe the ID that actually went on the wire.
		stamped := make([]RequestHeader, len(r.headers), len(r.headers)+1)
		copy(stamped, r.headers)
		r.headers = append(stamped, HeaderOf(c.requestIDHeader, requestID))
	}

	wireReq := &WireRequest{
		Method: r.method,
		URL:    url,
		Header: foldHeaders(r.headers),
		Body:   body,
	}

	if c.metrics != nil {
		c.metrics.requestStarted(r.method, r.endpoint)
		defer c.metrics.requestFinished(r.method, r.endpoint)
	}
	var span spanRecorder
	if c.tracer != nil {
		ctx, span = startClientSpan(ctx, c.tracer, r.method, url)
		defer span.End()
	}
	if c.debug {
		logRequest(c.logger, r.method, url, len(body), requestID)
	}

	start := time.Now()
	c.notifyRequest(r)

	wireResp, err := c.transport.Exchange(ctx, wireReq)
	duration := time.Since(start)

	if err != nil {
		terr := newTransportError(r.method, url, err)
		span.RecordError(err)
		c.recordError(ErrorTypeTransport, r.method, r.endpoint)
		c.recordRequest(r.method, r.endpoint, 0, duration)
		if c.debug {
			logFailure(c.logger, r.method, url, duration, err)
		}
		c.notifyException(r, terr)
		return zero, terr
	}

	span.RecordStatus(wireResp.StatusCode)
	c.recordRequest(r.method, r.endpoint, wireResp.StatusCode, duration)
	if c.debug {
		logResponse(c.logger, r.method, url, wireResp.StatusCode, duration, len(wireResp.Body))
	}

	value, err := convertBytesToResponse(c, r, wireResp)
	if err != nil {
		derr := newDecodeError(r.method, url, wireResp.StatusCode, err)
		span.RecordError(err)
		c.recordError(ErrorTypeDecode, r.method, r.endpoint)
		c.notifyException(r, derr)
		return zero, derr
	}

	c.notifyResponse(r, value)
	attachClient(c, &value)
	return value, nil
}

// convertBodyToBytes resolves the request body to raw bytes: byte slices
// pass through, strings become their UTF-8 bytes, everything else goes
// through the active serializer.
func convertBodyToBytes[T any](c *Client, r *Request[T]) ([]byte, error) {
	switch body := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return body, nil
	case string:
		return []byte(body), nil
	default:
		return r.activeSerializer().Serialize(body)
	}
}

// convertBytesToResponse decompresses the raw response body if needed and
// deserializes it through the active serializer.
func convertBytesToResponse[T any](c *Client, r *Request[T], resp *WireResponse) (T, error) {
	var zero T

	data, err := decompressIfNeeded(resp.Body, resp.Header, c.logger)
	if err != nil {
		return zero, err
	}

	target := new(T)
	if err := r.activeSerializer().Deserialize(target, resp.StatusCode, resp.Header, data); err != nil {
		return zero, err
	}
	return *target, nil
}

// attachClient sets the client back-reference on response values that
// declare the SupportsClientResponse capability.
func attachClient[T any](c *Client, value *T) {
	if holder, ok := any(value).(SupportsClientResponse); ok {
		holder.SetClient(c)
		return
	}
	deref := any(*value)
	if holder, ok := deref.(SupportsClientResponse); ok {
		// A pointer-typed T left nil by an empty body still satisfies the
		// interface; calling SetClient on it would dereference nil.
		if rv := reflect.ValueOf(deref); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return
		}
		holder.SetClient(c)
	}
}

// foldHeaders converts the header list into an http.Header, joining values
// that share a key with ", " in list order.
func foldHeaders(headers []RequestHeader) http.Header {
	folded := make(http.Header, len(headers))
	for key, value := range RequestHeadersToMap(headers) {
		folded.Set(key, value)
	}
	return folded
}

func (c *Client) notifyRequest(req RequestView) {
	if c.hooks.OnRequest != nil {
		c.hooks.OnRequest(req)
	}
}

func (c *Client) notifyResponse(req RequestView, value any) {
	if c.hooks.OnResponse != nil {
		c.hooks.OnResponse(req, value)
	}
}

func (c *Client) notifyException(req RequestView, err error) {
	if c.hooks.OnException != nil {
		c.hooks.OnException(req, err)
	}
}

func (c *Client) recordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if c.metrics != nil {
		c.metrics.observeRequest(method, endpoint, statusCode, duration)
	}
}

func (c *Client) recordError(errType ErrorType, method, endpoint string) {
	if c.metrics != nil {
		c.metrics.observeError(string(errType), method, endpoint)
	}
}
