// Package kirara is a thin fluent builder for outbound REST API calls.
//
// A Client owns a pluggable Transport and a default Serializer. Requests
// are assembled with chained setters, dispatched asynchronously and
// deserialized into typed values:
//
//	client := kirara.New(
//	    kirara.WithBaseURL("https://api.example.com"),
//	    kirara.WithDefaultHeaders(kirara.HeaderOf("User-Agent", "my-app/1.0")),
//	)
//	defer client.Close()
//
//	user, err := kirara.NewRequest[User](client, http.MethodGet, "/users/{id}").
//	    WithPathParameter(kirara.PathParamOf("id", "42")).
//	    WithRequestQuery(kirara.QueryOf("expand", "teams")).
//	    Send(ctx).
//	    Wait(ctx)
//
// Send returns a Future immediately; the exchange runs on its own
// goroutine. Compressed responses are inflated transparently, trusting the
// Content-Encoding header when present and sniffing gzip/zlib magic bytes
// when it is not.
//
// # Serializers
//
// The default serializer speaks JSON. StringSerializer and ByteSerializer
// cover plain-text and raw-byte APIs, and a single request can override
// the client default:
//
//	raw, err := kirara.NewRequest[[]byte](client, http.MethodGet, "/export").
//	    WithSerializerOverride(kirara.NewByteSerializer()).
//	    Send(ctx).
//	    Wait(ctx)
//
// # Lifecycle hooks
//
// Three fire-and-forget hooks observe every exchange: OnRequest right
// before transmission, then exactly one of OnResponse or OnException.
//
//	client := kirara.New(kirara.WithHooks(kirara.Hooks{
//	    OnException: func(req kirara.RequestView, err error) {
//	        log.Printf("%s %s failed: %v", req.Method(), req.Endpoint(), err)
//	    },
//	}))
//
// # Observability
//
// Prometheus metrics (WithMetrics), OpenTelemetry spans
// (WithTracerProvider) and zerolog debug logging (WithDebug) are opt-in
// and recorded around each exchange.
package kirara
