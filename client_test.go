package kirara

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiUser struct {
	ClientResponse

	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestClient_SendJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"amber","age":3}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	defer client.Close()

	user, err := NewRequest[apiUser](client, http.MethodGet, "/users/{id}").
		WithPathParameter(PathParamOf("id", "42")).
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "amber", user.Name)
	assert.Equal(t, 3, user.Age)
}

func TestClient_SendJSONBody(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name":"amber","age":3}`))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	defer client.Close()

	created, err := NewRequest[apiUser](client, http.MethodPost, "/users").
		WithBody(apiUser{Name: "amber", Age: 3}).
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "amber", created.Name)
	assert.JSONEq(t, `{"name":"amber","age":3}`, string(received))
}

func TestClient_GzipResponseWithoutContentEncoding(t *testing.T) {
	// The sniffing path: a gzip body with no Content-Encoding header must
	// still be decompressed before deserialization.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"name":"amber","age":3}`))
		_ = gz.Close()
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	defer client.Close()

	user, err := NewRequest[apiUser](client, http.MethodGet, "/users/42").
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "amber", user.Name)
}

func TestClient_HookOrder(t *testing.T) {
	t.Run("given a successful exchange, then onRequest precedes onResponse", func(t *testing.T) {
		var mu sync.Mutex
		var events []string

		mock := NewMockTransport().StubResponse(http.StatusOK, `{"name":"amber"}`)
		client := New(
			WithTransport(mock),
			WithBaseURL("https://api.example.com"),
			WithHooks(Hooks{
				OnRequest: func(req RequestView) {
					mu.Lock()
					events = append(events, "request:"+req.Method())
					mu.Unlock()
				},
				OnResponse: func(req RequestView, value any) {
					mu.Lock()
					events = append(events, "response")
					mu.Unlock()
					user, ok := value.(apiUser)
					require.True(t, ok)
					assert.Equal(t, "amber", user.Name)
				},
				OnException: func(RequestView, error) {
					mu.Lock()
					events = append(events, "exception")
					mu.Unlock()
				},
			}),
		)

		_, err := NewRequest[apiUser](client, http.MethodGet, "/users/42").
			Send(context.Background()).
			Wait(context.Background())

		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"request:GET", "response"}, events)
	})

	t.Run("given a transport failure, then onRequest precedes onException", func(t *testing.T) {
		var mu sync.Mutex
		var events []string

		mock := NewMockTransport().StubError(errors.New("connection refused"))
		client := New(
			WithTransport(mock),
			WithBaseURL("https://api.example.com"),
			WithHooks(Hooks{
				OnRequest: func(RequestView) {
					mu.Lock()
					events = append(events, "request")
					mu.Unlock()
				},
				OnResponse: func(RequestView, any) {
					mu.Lock()
					events = append(events, "response")
					mu.Unlock()
				},
				OnException: func(_ RequestView, err error) {
					mu.Lock()
					events = append(events, "exception")
					mu.Unlock()
					var cerr *ClientError
					require.ErrorAs(t, err, &cerr)
					assert.Equal(t, ErrorTypeTransport, cerr.Type)
				},
			}),
		)

		_, err := NewRequest[apiUser](client, http.MethodGet, "/users/42").
			Send(context.Background()).
			Wait(context.Background())

		require.Error(t, err)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"request", "exception"}, events)
	})

	t.Run("given a decode failure, then onException fires with a decode error", func(t *testing.T) {
		var hookErr error

		mock := NewMockTransport().StubResponse(http.StatusOK, `{not json`)
		client := New(
			WithTransport(mock),
			WithBaseURL("https://api.example.com"),
			WithHooks(Hooks{
				OnException: func(_ RequestView, err error) { hookErr = err },
			}),
		)

		_, err := NewRequest[apiUser](client, http.MethodGet, "/users/42").
			Send(context.Background()).
			Wait(context.Background())

		require.Error(t, err)
		var cerr *ClientError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, ErrorTypeDecode, cerr.Type)
		assert.Equal(t, http.StatusOK, cerr.StatusCode)
		assert.ErrorIs(t, hookErr, err)
	})
}

func TestClient_HookPanicFailsFuture(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, `{"name":"amber"}`)
	client := New(
		WithTransport(mock),
		WithBaseURL("https://api.example.com"),
		WithHooks(Hooks{
			OnResponse: func(RequestView, any) { panic("observer blew up") },
		}),
	)

	_, err := NewRequest[apiUser](client, http.MethodGet, "/users/42").
		Send(context.Background()).
		Wait(context.Background())

	require.Error(t, err)
	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrorTypeHook, cerr.Type)
	assert.Contains(t, cerr.Error(), "observer blew up")
}

func TestClient_RequestIDHeader(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, `{}`)
	client := New(
		WithTransport(mock),
		WithBaseURL("https://api.example.com"),
		WithRequestIDHeader("X-Request-Id"),
	)

	for i := 0; i < 2; i++ {
		_, err := NewRequest[apiUser](client, http.MethodGet, "/users/42").
			Send(context.Background()).
			Wait(context.Background())
		require.NoError(t, err)
	}

	requests := mock.Requests()
	require.Len(t, requests, 2)

	first := requests[0].Header.Get("X-Request-Id")
	second := requests[1].Header.Get("X-Request-Id")

	_, err := uuid.Parse(first)
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestClient_RequestIDVisibleToHooks(t *testing.T) {
	var seen string
	mock := NewMockTransport().StubResponse(http.StatusOK, `{}`)
	client := New(
		WithTransport(mock),
		WithBaseURL("https://api.example.com"),
		WithRequestIDHeader("X-Request-Id"),
		WithHooks(Hooks{
			OnRequest: func(req RequestView) {
				for _, h := range req.Headers() {
					if h.Key == "X-Request-Id" {
						seen = h.Value
					}
				}
			},
		}),
	)

	_, err := NewRequest[apiUser](client, http.MethodGet, "/users/42").
		Send(context.Background()).
		Wait(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, mock.Requests()[0].Header.Get("X-Request-Id"))
}

func TestClient_DefaultHeadersCopiedIntoRequests(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, `{}`)
	client := New(
		WithTransport(mock),
		WithBaseURL("https://api.example.com"),
		WithDefaultHeaders(BearerAuth("token-1"), HeaderOf("Accept", "application/json")),
	)

	req := NewRequest[apiUser](client, http.MethodGet, "/users/42").
		WithHeader(HeaderOf("X-Extra", "yes"))

	_, err := req.Send(context.Background()).Wait(context.Background())
	require.NoError(t, err)

	// Request-local additions must not leak back into the client defaults.
	assert.Len(t, client.DefaultHeaders(), 2)

	sent := mock.Requests()[0].Header
	assert.Equal(t, "Bearer token-1", sent.Get("Authorization"))
	assert.Equal(t, "application/json", sent.Get("Accept"))
	assert.Equal(t, "yes", sent.Get("X-Extra"))
}

func TestClient_MultiValuedHeadersFoldOnTheWire(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, `{}`)
	client := New(WithTransport(mock), WithBaseURL("https://api.example.com"))

	_, err := NewRequest[apiUser](client, http.MethodGet, "/users").
		WithHeader(HeaderOf("Accept", "application/json")).
		WithHeader(HeaderOf("Accept", "text/plain")).
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "application/json, text/plain", mock.Requests()[0].Header.Get("Accept"))
}

func TestClient_ExplicitHeadersReplaceDefaults(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, `{}`)
	client := New(
		WithTransport(mock),
		WithBaseURL("https://api.example.com"),
		WithDefaultHeaders(BearerAuth("token-1")),
	)

	_, err := NewRequest[apiUser](client, http.MethodGet, "/public").
		WithExplicitHeaders([]RequestHeader{HeaderOf("Accept", "text/plain")}).
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	sent := mock.Requests()[0].Header
	assert.Empty(t, sent.Get("Authorization"))
	assert.Equal(t, "text/plain", sent.Get("Accept"))
}

func TestClient_SerializerOverride(t *testing.T) {
	body := []byte{0x89, 0x50, 0x4e, 0x47}
	mock := NewMockTransport().StubWireResponse(&WireResponse{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Encoding": []string{"identity"}, "Content-Type": []string{"image/png"}},
		Body:       body,
	})
	client := New(WithTransport(mock), WithBaseURL("https://api.example.com"))

	raw, err := NewRequest[[]byte](client, http.MethodGet, "/avatar.png").
		WithSerializerOverride(NewByteSerializer()).
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, body, raw)
}

func TestClient_StringResponse(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, "pong")
	client := New(WithTransport(mock), WithBaseURL("https://api.example.com"))

	text, err := NewRequest[string](client, http.MethodGet, "/ping").
		WithSerializerOverride(NewStringSerializer()).
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "pong", text)
}

func TestClient_NonSuccessStatusStillDeserializes(t *testing.T) {
	// Status codes are not interpreted; a 404 body deserializes like any
	// other and the caller inspects the value.
	mock := NewMockTransport().StubResponse(http.StatusNotFound, `{"name":"nobody"}`)
	client := New(WithTransport(mock), WithBaseURL("https://api.example.com"))

	user, err := NewRequest[apiUser](client, http.MethodGet, "/users/404").
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "nobody", user.Name)
}

func TestClient_PointerResponseEmptyBody(t *testing.T) {
	// An empty body is a no-value result: a pointer response type stays nil
	// and the send resolves cleanly.
	mock := NewMockTransport().StubResponse(http.StatusNoContent, "")
	client := New(WithTransport(mock), WithBaseURL("https://api.example.com"))

	user, err := NewRequest[*apiUser](client, http.MethodDelete, "/users/42").
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestClient_PointerResponseBackReference(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, `{"name":"amber"}`)
	client := New(WithTransport(mock), WithBaseURL("https://api.example.com"))

	user, err := NewRequest[*apiUser](client, http.MethodGet, "/users/42").
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "amber", user.Name)
	assert.Same(t, client, user.Client())
}

func TestClient_ResponseBackReference(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, `{"name":"amber"}`)
	client := New(WithTransport(mock), WithBaseURL("https://api.example.com"))

	user, err := NewRequest[apiUser](client, http.MethodGet, "/users/42").
		Send(context.Background()).
		Wait(context.Background())

	require.NoError(t, err)
	assert.Same(t, client, user.Client())
}

func TestClient_BodyConversionFailure(t *testing.T) {
	var hookErr error
	mock := NewMockTransport().StubResponse(http.StatusOK, `{}`)
	client := New(
		WithTransport(mock),
		WithBaseURL("https://api.example.com"),
		WithHooks(Hooks{
			OnException: func(_ RequestView, err error) { hookErr = err },
		}),
	)

	_, err := NewRequest[apiUser](client, http.MethodPost, "/users").
		WithBody(make(chan int)).
		Send(context.Background()).
		Wait(context.Background())

	require.Error(t, err)
	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrorTypeConfig, cerr.Type)
	assert.ErrorIs(t, hookErr, err)
	assert.Empty(t, mock.Requests())
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	mock := NewMockTransport()
	client := New(WithTransport(mock))

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.True(t, mock.Closed())
}

func TestClient_ContextCancellationAbortsExchange(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	client := New(WithBaseURL(server.URL))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewRequest[apiUser](client, http.MethodGet, "/slow").
		Send(ctx).
		Wait(context.Background())

	require.Error(t, err)
	var cerr *ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrorTypeTransport, cerr.Type)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
