// Package intent turns a customer utterance into a structured TurnResult
// by asking a language model for a JSON object and validating it.
package intent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-drivethru/pkg/inference"
	"github.com/teslashibe/go-drivethru/pkg/menu"
)

// Message is one conversation history entry.
type Message = inference.Message

// DefaultHistoryLimit is how many trailing history entries accompany each request.
const DefaultHistoryLimit = 10

// Interpreter maps utterances to turn results.
type Interpreter struct {
	provider     inference.Provider
	system       string
	model        string
	historyLimit int
	logger       *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithHistoryLimit sets how many history entries are sent. Zero sends none.
func WithHistoryLimit(n int) Option {
	return func(i *Interpreter) {
		if n >= 0 {
			i.historyLimit = n
		}
	}
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(i *Interpreter) { i.model = model }
}

// WithSystemPrompt replaces the catalog-derived prompt.
func WithSystemPrompt(prompt string) Option {
	return func(i *Interpreter) { i.system = prompt }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// NewInterpreter builds an interpreter for the catalog's restaurant.
func NewInterpreter(provider inference.Provider, restaurant string, catalog *menu.Catalog, opts ...Option) *Interpreter {
	i := &Interpreter{
		provider:     provider,
		system:       BuildSystemPrompt(restaurant, catalog),
		historyLimit: DefaultHistoryLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("component", "intent")
	return i
}

// Interpret sends the system prompt, the trailing history window and the
// utterance, then validates the reply. Any failure is returned as an error;
// callers substitute Fallback().
func (i *Interpreter) Interpret(ctx context.Context, utterance string, history []Message) (*TurnResult, error) {
	window := history
	if len(window) > i.historyLimit {
		window = window[len(window)-i.historyLimit:]
	}

	msgs := make([]Message, 0, len(window)+2)
	msgs = append(msgs, inference.NewSystemMessage(i.system))
	msgs = append(msgs, window...)
	msgs = append(msgs, inference.NewUserMessage(utterance))

	resp, err := i.provider.Chat(ctx, &inference.ChatRequest{
		Messages:       msgs,
		Model:          i.model,
		ResponseFormat: inference.FormatJSONObject,
	})
	if err != nil {
		return nil, fmt.Errorf("intent: chat: %w", err)
	}

	tr, err := Parse([]byte(resp.Message.Content))
	if err != nil {
		i.logger.Warn("model output rejected", "error", err, "content", resp.Message.Content)
		return nil, err
	}

	i.logger.Debug("turn interpreted",
		"action", tr.Action,
		"add", len(tr.ItemsToAdd),
		"remove", len(tr.ItemsToRemove),
		"detected", tr.DetectedItems,
		"is_final", tr.IsFinal,
		"latency_ms", resp.LatencyMs,
	)
	return tr, nil
}

// SystemPrompt returns the prompt sent as the first message.
func (i *Interpreter) SystemPrompt() string {
	return i.system
}
