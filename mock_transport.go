package kirara

import (
	"context"
	"net/http"
	"sync"
)

// MockTransport is a configurable Transport for testing. It allows
// stubbing responses and inspecting the requests a client produced,
// without opening any network connection.
//
//	mock := kirara.NewMockTransport().StubResponse(200, `{"name":"amber"}`)
//	client := kirara.New(
//	    kirara.WithBaseURL("https://api.example.com"),
//	    kirara.WithTransport(mock),
//	)
type MockTransport struct {
	mu          sync.RWMutex
	stubs       []mockStub
	defaultResp *WireResponse
	defaultErr  error
	requests    []*WireRequest
	closed      bool
}

type mockStub struct {
	matcher  func(*WireRequest) bool
	response *WireResponse
	err      error
}

var _ Transport = (*MockTransport)(nil)

// NewMockTransport creates an empty MockTransport. Exchanging against it
// without any stub returns a 200 response with an empty body.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubResponse stubs all requests to return the given status and body.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = &WireResponse{
		StatusCode: statusCode,
		Header:     make(http.Header),
		Body:       []byte(body),
	}
	return m
}

// StubWireResponse stubs all requests to return the given response,
// including its headers.
func (m *MockTransport) StubWireResponse(resp *WireResponse) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = resp
	return m
}

// StubError stubs all requests to fail with the given error.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultErr = err
	return m
}

// StubFunc stubs requests matching the predicate to return the given
// response. Stubs are evaluated in registration order before the default.
func (m *MockTransport) StubFunc(matcher func(*WireRequest) bool, resp *WireResponse) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{matcher: matcher, response: resp})
	return m
}

// StubFuncError stubs requests matching the predicate to fail with err.
func (m *MockTransport) StubFuncError(matcher func(*WireRequest) bool, err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{matcher: matcher, err: err})
	return m
}

// Requests returns a copy of all requests exchanged so far.
func (m *MockTransport) Requests() []*WireRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*WireRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Exchange implements Transport.
func (m *MockTransport) Exchange(_ context.Context, req *WireRequest) (*WireResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stub := range m.stubs {
		if stub.matcher(req) {
			if stub.err != nil {
				return nil, stub.err
			}
			return stub.response, nil
		}
	}
	if m.defaultErr != nil {
		return nil, m.defaultErr
	}
	if m.defaultResp != nil {
		return m.defaultResp, nil
	}
	return &WireResponse{StatusCode: http.StatusOK, Header: make(http.Header)}, nil
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
