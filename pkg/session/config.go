package session

import (
	"log/slog"

	"github.com/teslashibe/go-drivethru/pkg/order"
)

// Spoken lines used outside the model.
const (
	DefaultWelcome = "Welcome to Burger Spot! I'm here to take your order. What can I get for you today?"
	DefaultClarify = "I didn't catch that. Could you please repeat?"

	// AudioErrorMessage is sent when the welcome cannot be synthesized.
	AudioErrorMessage = "Failed to generate audio"
)

// Audio thresholds.
const (
	// DefaultMinAudioBytes is the smallest frame worth transcribing.
	DefaultMinAudioBytes = 10000

	// DefaultClarifyAudioBytes is the frame size above which an unusable
	// transcript earns a clarification prompt.
	DefaultClarifyAudioBytes = 30000

	// DefaultMinTranscriptChars is the shortest usable trimmed transcript.
	DefaultMinTranscriptChars = 2
)

// Config holds per-session settings.
type Config struct {
	Welcome string
	Clarify string

	MinAudioBytes      int
	ClarifyAudioBytes  int
	MinTranscriptChars int

	Metrics *Metrics
	Limiter *Limiter
	Logger  *slog.Logger

	// OnOrder is called after each confirmed order, from the turn goroutine.
	OnOrder func(order.Order)
}

// DefaultConfig returns the standard drive-thru behaviour.
func DefaultConfig() Config {
	return Config{
		Welcome:            DefaultWelcome,
		Clarify:            DefaultClarify,
		MinAudioBytes:      DefaultMinAudioBytes,
		ClarifyAudioBytes:  DefaultClarifyAudioBytes,
		MinTranscriptChars: DefaultMinTranscriptChars,
		Logger:             slog.Default(),
	}
}

// Option configures a Session.
type Option func(*Config)

// WithMetrics shares a metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithLimiter shares an external call limiter.
func WithLimiter(l *Limiter) Option {
	return func(c *Config) { c.Limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithOrderObserver registers a callback for confirmed orders.
func WithOrderObserver(fn func(order.Order)) Option {
	return func(c *Config) { c.OnOrder = fn }
}

// WithWelcome overrides the greeting spoken on start_session.
func WithWelcome(text string) Option {
	return func(c *Config) { c.Welcome = text }
}

// WithAudioThresholds overrides the minimum and clarification frame sizes.
func WithAudioThresholds(minBytes, clarifyBytes int) Option {
	return func(c *Config) {
		c.MinAudioBytes = minBytes
		c.ClarifyAudioBytes = clarifyBytes
	}
}
