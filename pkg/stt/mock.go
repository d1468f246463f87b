package stt

import (
	"context"
	"sync"
)

// Mock implements Provider for tests.
type Mock struct {
	// TranscribeFunc handles Transcribe. When nil, Text is returned,
	// or ErrEmptyTranscript when Text is empty.
	TranscribeFunc func(ctx context.Context, audio []byte, req Request) (*Transcript, error)

	// Text is the canned transcript used when TranscribeFunc is nil.
	Text string

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one Transcribe invocation.
type MockCall struct {
	Bytes    int
	Language string
}

var _ Provider = (*Mock)(nil)

// NewMock returns a mock that always transcribes to text.
func NewMock(text string) *Mock {
	return &Mock{Text: text}
}

// Transcribe records the call and delegates to TranscribeFunc.
func (m *Mock) Transcribe(ctx context.Context, audio []byte, opts ...RequestOption) (*Transcript, error) {
	req := NewRequest(opts...)

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Bytes: len(audio), Language: req.Language})
	fn := m.TranscribeFunc
	text := m.Text
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio, req)
	}
	if text == "" {
		return nil, WrapError("mock", ErrEmptyTranscript)
	}
	return &Transcript{Text: text, Language: req.Language, Bytes: len(audio)}, nil
}

// Close implements Provider.
func (m *Mock) Close() error { return nil }

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Transcribe calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}
