package llm

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Delay holds the response back. If the request context ends first the
	// call fails the way a real provider would.
	Delay time.Duration
}

// TextResponse is a canned plain-text reply.
func TextResponse(text string) MockResponse {
	return MockResponse{Content: json.RawMessage(text)}
}

// JSONResponse is a canned structured reply; v is marshalled to JSON.
func JSONResponse(v any) MockResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return MockResponse{Err: &ErrInvalidResponse{Err: err}}
	}
	return MockResponse{Content: b}
}

// MockProvider is a deterministic Provider for testing and offline use.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	fallback  *MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response. With an empty queue it returns
// the fallback if one is set, otherwise ErrProviderUnavailable.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)

	var resp MockResponse
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
	case m.fallback != nil:
		resp = *m.fallback
	default:
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{Err: nil}
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, mapTransportError(ctx.Err())
		case <-time.After(resp.Delay):
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// SetFallback sets the response served once the queue is drained.
func (m *MockProvider) SetFallback(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &resp
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, if any.
func (m *MockProvider) LastCall() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
