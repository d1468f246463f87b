package tts

import (
	"context"
	"sync"
)

// Mock implements Provider for tests.
type Mock struct {
	// SynthesizeFunc handles Synthesize. When nil, the text bytes are
	// returned as the "audio" so tests can see what was spoken.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// HealthFunc handles Health. When nil, Health succeeds.
	HealthFunc func(ctx context.Context) error

	mu    sync.Mutex
	texts []string
}

var _ Provider = (*Mock)(nil)

// NewMock returns a mock that echoes text as audio.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a mock whose calls all fail with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) {
			return nil, WrapError("mock", err)
		},
		HealthFunc: func(context.Context) error {
			return WrapError("mock", err)
		},
	}
}

// Synthesize records text and delegates to SynthesizeFunc.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return &AudioResult{
		Audio:     []byte(text),
		Format:    AudioFormat{Encoding: EncodingMP3, SampleRate: 24000},
		CharCount: len(text),
	}, nil
}

// Health delegates to HealthFunc.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close implements Provider.
func (m *Mock) Close() error { return nil }

// Texts returns every text passed to Synthesize, in order.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}

// CallCount returns the number of Synthesize calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.texts = nil
	m.mu.Unlock()
}
