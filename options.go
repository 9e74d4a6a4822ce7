package kirara

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the HTTP transport tuning parameters used by
// NewHTTPTransport. Use DefaultConfig() to get an initialized configuration
// and modify specific fields as needed.
type Config struct {
	// Timeout bounds the entire request lifecycle including connection
	// establishment and reading the response body. Zero means no timeout.
	//
	// Default: 15s
	Timeout time.Duration

	// MaxIdleConns caps idle keep-alive connections across all hosts.
	//
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle connections kept per host. Raise it
	// when the client mostly talks to a single API.
	//
	// Default: 20
	MaxIdleConnsPerHost int

	// MaxConnsPerHost limits total (idle plus active) connections per
	// host. Zero means unlimited.
	//
	// Default: 100
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection stays pooled.
	//
	// Default: 90s
	IdleConnTimeout time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ExpectContinueTimeout is the wait for a "100 Continue" response when
	// the "Expect: 100-continue" header is sent.
	//
	// Default: 1s
	ExpectContinueTimeout time.Duration

	// DialTimeout bounds TCP connection establishment.
	//
	// Default: 5s
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval.
	//
	// Default: 30s
	KeepAlive time.Duration

	// DisableCompression stops the transport from advertising
	// Accept-Encoding: gzip and transparently inflating responses. It is
	// on by default so the response pipeline sees the raw bytes and the
	// content sniffing decompression stays in one place.
	//
	// Default: true
	DisableCompression bool

	// ForceHTTP2 forces HTTP/2 over HTTPS connections.
	//
	// Default: false
	ForceHTTP2 bool
}

// DefaultConfig returns a balanced configuration suitable for typical API
// client usage.
func DefaultConfig() Config {
	return Config{
		Timeout:               15 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialTimeout:           5 * time.Second,
		KeepAlive:             30 * time.Second,
		DisableCompression:    true,
		ForceHTTP2:            false,
	}
}

// buildTransport creates an http.Transport from the configuration.
func (cfg Config) buildTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
		DisableCompression:    cfg.DisableCompression,
		ForceAttemptHTTP2:     cfg.ForceHTTP2,
	}
}

// clientOptions collects everything configurable on a Client.
type clientOptions struct {
	transport       Transport
	serializer      Serializer
	baseURL         string
	defaultHeaders  []RequestHeader
	hooks           Hooks
	logger          zerolog.Logger
	loggerSet       bool
	debug           bool
	requestIDHeader string
	metrics         *MetricsCollector
	tracerProvider  trace.TracerProvider
	httpConfig      Config
}

// Option configures a Client.
type Option func(*clientOptions)

// WithTransport sets the Transport. Defaults to NewHTTPTransport with the
// client's Config when unset. The client takes ownership and closes the
// transport on Close.
func WithTransport(t Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithSerializer sets the default serializer used for request bodies and
// responses. Defaults to NewJSONSerializer().
func WithSerializer(s Serializer) Option {
	return func(o *clientOptions) {
		o.serializer = s
	}
}

// WithBaseURL sets the default base URL prepended to request endpoints.
//
//	client := kirara.New(kirara.WithBaseURL("https://api.example.com"))
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithDefaultHeaders sets headers copied into every request created through
// the client's factories, for example a shared User-Agent or credentials:
//
//	client := kirara.New(
//	    kirara.WithBaseURL("https://api.example.com"),
//	    kirara.WithDefaultHeaders(kirara.BearerAuth(token)),
//	)
func WithDefaultHeaders(headers ...RequestHeader) Option {
	return func(o *clientOptions) {
		o.defaultHeaders = append(o.defaultHeaders, headers...)
	}
}

// WithHooks sets the lifecycle hooks invoked around every exchange.
func WithHooks(hooks Hooks) Option {
	return func(o *clientOptions) {
		o.hooks = hooks
	}
}

// WithLogger sets the zerolog logger used for debug output and transport
// warnings. Defaults to a timestamped logger on stderr.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
		o.loggerSet = true
	}
}

// WithDebug enables request/response debug logging.
func WithDebug() Option {
	return func(o *clientOptions) {
		o.debug = true
	}
}

// WithRequestIDHeader makes the client stamp a fresh UUID into the named
// header on every send, for request correlation across services:
//
//	client := kirara.New(kirara.WithRequestIDHeader("X-Request-Id"))
func WithRequestIDHeader(headerName string) Option {
	return func(o *clientOptions) {
		o.requestIDHeader = headerName
	}
}

// WithMetrics attaches a Prometheus metrics collector recording request
// counts, durations and in-flight gauges.
func WithMetrics(metrics *MetricsCollector) Option {
	return func(o *clientOptions) {
		o.metrics = metrics
	}
}

// WithTracerProvider enables OpenTelemetry tracing of exchanges using the
// given provider. Pass otel.GetTracerProvider() to use the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *clientOptions) {
		o.tracerProvider = tp
	}
}

// WithConfig sets the HTTP transport tuning used when the client builds its
// own HTTPTransport. Ignored when WithTransport is given.
func WithConfig(cfg Config) Option {
	return func(o *clientOptions) {
		o.httpConfig = cfg
	}
}

func newClientOptions(opts ...Option) *clientOptions {
	o := &clientOptions{
		httpConfig: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.transport == nil {
		o.transport = NewHTTPTransport(o.httpConfig)
	}
	if o.serializer == nil {
		o.serializer = NewJSONSerializer()
	}
	if !o.loggerSet {
		o.logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return o
}
