package inference

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
type Mock struct {
	// ChatFunc handles Chat. When nil, Reply is returned as the assistant message.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Reply is the canned completion used when ChatFunc is nil.
	Reply string

	mu       sync.Mutex
	requests []ChatRequest
}

var _ Provider = (*Mock)(nil)

// NewMock returns a mock that always answers reply.
func NewMock(reply string) *Mock {
	return &Mock{Reply: reply}
}

// WithError returns a mock whose Chat always fails with err.
func WithError(err error) *Mock {
	return &Mock{ChatFunc: func(context.Context, *ChatRequest) (*ChatResponse, error) {
		return nil, WrapError("mock", err)
	}}
}

// Chat records a copy of req and delegates to ChatFunc.
func (m *Mock) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	cp := *req
	cp.Messages = append([]Message(nil), req.Messages...)

	m.mu.Lock()
	m.requests = append(m.requests, cp)
	fn := m.ChatFunc
	reply := m.Reply
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &ChatResponse{
		Message:      NewAssistantMessage(reply),
		FinishReason: "stop",
	}, nil
}

// Health implements Provider.
func (m *Mock) Health(ctx context.Context) error { return nil }

// Close implements Provider.
func (m *Mock) Close() error { return nil }

// Requests returns every request seen, in order.
func (m *Mock) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Chat calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Reset clears recorded requests.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.requests = nil
	m.mu.Unlock()
}
