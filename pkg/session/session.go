// Package session implements the per-connection ordering state machine:
// audio in, transcript, interpreted intent, cart mutation, events out.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/inference"
	"github.com/teslashibe/go-drivethru/pkg/intent"
	"github.com/teslashibe/go-drivethru/pkg/menu"
	"github.com/teslashibe/go-drivethru/pkg/order"
	"github.com/teslashibe/go-drivethru/pkg/stt"
	"github.com/teslashibe/go-drivethru/pkg/tts"
)

// State of a session.
type State int

const (
	StateAwaitingStart State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Interpreter turns an utterance into a turn result.
type Interpreter interface {
	Interpret(ctx context.Context, utterance string, history []intent.Message) (*intent.TurnResult, error)
}

// Deps are the collaborators shared between sessions.
type Deps struct {
	STT         stt.Provider
	TTS         tts.Provider
	Interpreter Interpreter
	Resolver    *menu.Resolver
	Store       order.Store
}

// Session is one customer conversation. Start and HandleAudio must be called
// from a single goroutine; Close may be called from any goroutine.
type Session struct {
	id   string
	deps Deps
	cfg  Config
	emit Emitter
	log  *slog.Logger

	mu       sync.Mutex
	state    State
	cart     *cart.Cart
	history  []intent.Message
	language string
}

// New creates a session in StateAwaitingStart.
func New(id string, deps Deps, emit Emitter, opts ...Option) *Session {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Session{
		id:       id,
		deps:     deps,
		cfg:      cfg,
		emit:     emit,
		log:      cfg.Logger.With("component", "session", "session_id", id),
		cart:     cart.New(),
		language: intent.DefaultLanguage,
	}
	cfg.Metrics.SessionOpened()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Language returns the current conversation language code.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// Cart returns a snapshot of the cart.
func (s *Session) Cart() cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

// History returns a copy of the conversation history.
func (s *Session) History() []intent.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]intent.Message(nil), s.history...)
}

// Close moves the session to StateClosed. Nothing is emitted afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.cfg.Metrics.SessionClosed()
	s.log.Info("session closed")
}

// Start handles start_session: activates the session and speaks the welcome.
// Repeated calls replay the welcome.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateActive
	s.mu.Unlock()

	s.log.Info("session started, generating welcome")
	audio, _, err := s.synthesize(ctx, s.cfg.Welcome)
	if err != nil {
		s.log.Error("welcome synthesis failed", "error", err)
		s.send(Event{Type: EventError, Message: AudioErrorMessage})
		return
	}
	s.send(Event{Type: EventAudio, Audio: audio})
}

// HandleAudio runs one turn for a decoded audio frame.
func (s *Session) HandleAudio(ctx context.Context, audio []byte) {
	switch s.State() {
	case StateActive:
	case StateAwaitingStart:
		s.log.Warn("audio before start_session ignored", "bytes", len(audio))
		return
	default:
		return
	}

	tm := TurnMetrics{AudioBytes: len(audio)}
	start := time.Now()
	defer func() {
		tm.Total = time.Since(start)
		s.cfg.Metrics.Record(tm)
		s.log.Debug("turn finished", "outcome", tm.Outcome, "latency", tm.FormatLatency())
	}()

	if len(audio) < s.cfg.MinAudioBytes {
		tm.Outcome = OutcomeTooShort
		s.log.Debug("audio too short, skipping", "bytes", len(audio))
		return
	}

	text, err := s.transcribe(ctx, audio, &tm)
	if err != nil || utf8.RuneCountInString(strings.TrimSpace(text)) < s.cfg.MinTranscriptChars {
		if err != nil {
			s.log.Warn("transcription failed", "error", err, "bytes", len(audio))
		}
		if len(audio) > s.cfg.ClarifyAudioBytes && ctx.Err() == nil {
			tm.Outcome = OutcomeClarified
			s.log.Info("asking customer to repeat", "bytes", len(audio))
			if clip, _, err := s.synthesize(ctx, s.cfg.Clarify); err == nil {
				s.send(Event{Type: EventAudio, Audio: clip})
			} else {
				s.log.Error("clarification synthesis failed", "error", err)
			}
			return
		}
		tm.Outcome = OutcomeNoSpeech
		return
	}

	text = strings.TrimSpace(text)
	s.log.Info("customer said", "text", text)

	s.mu.Lock()
	s.history = append(s.history, inference.NewUserMessage(text))
	history := append([]intent.Message(nil), s.history...)
	s.mu.Unlock()

	tm.Outcome = OutcomeCompleted
	result := s.interpret(ctx, text, history, &tm)
	if result == nil {
		tm.Outcome = OutcomeFallback
		result = intent.Fallback()
	}

	s.mu.Lock()
	s.history = append(s.history, inference.NewAssistantMessage(result.Response))
	s.updateLanguage(result.Language)
	s.apply(result)
	s.mu.Unlock()

	s.finalize(ctx, result)

	if items := s.display(result.DetectedItems); len(items) > 0 {
		s.send(Event{Type: EventShowItems, Items: items})
	}

	s.send(Event{Type: EventCartUpdate, Cart: s.Cart()})

	s.log.Info("assistant says", "text", result.Response, "action", result.Action)
	clip, d, err := s.synthesize(ctx, result.Response)
	tm.Synthesize = d
	if err != nil {
		s.log.Error("response synthesis failed", "error", err)
		return
	}
	s.send(Event{Type: EventAudio, Audio: clip})
}

func (s *Session) transcribe(ctx context.Context, audio []byte, tm *TurnMetrics) (string, error) {
	release, err := s.cfg.Limiter.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	var opts []stt.RequestOption
	if lang := s.Language(); lang != intent.DefaultLanguage {
		opts = append(opts, stt.WithLanguageHint(lang))
	}

	start := time.Now()
	tr, err := s.deps.STT.Transcribe(ctx, audio, opts...)
	tm.Transcribe = time.Since(start)
	if err != nil {
		return "", err
	}
	return tr.Text, nil
}

// interpret returns nil on any failure.
func (s *Session) interpret(ctx context.Context, text string, history []intent.Message, tm *TurnMetrics) *intent.TurnResult {
	release, err := s.cfg.Limiter.Acquire(ctx)
	if err != nil {
		s.log.Warn("interpreter slot unavailable", "error", err)
		return nil
	}
	defer release()

	start := time.Now()
	result, err := s.deps.Interpreter.Interpret(ctx, text, history)
	tm.Interpret = time.Since(start)
	if err != nil {
		s.log.Warn("interpretation failed, using fallback", "error", err)
		return nil
	}
	return result
}

func (s *Session) synthesize(ctx context.Context, text string) ([]byte, time.Duration, error) {
	release, err := s.cfg.Limiter.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	start := time.Now()
	res, err := s.deps.TTS.Synthesize(ctx, text)
	d := time.Since(start)
	if err != nil {
		return nil, d, err
	}
	return res.Audio, d, nil
}

// updateLanguage must be called with s.mu held.
func (s *Session) updateLanguage(code string) {
	if code == "" || code == s.language {
		return
	}
	if !intent.SupportedLanguage(code) {
		s.log.Warn("unsupported language ignored", "language", code)
		return
	}
	s.log.Info("language changed", "from", s.language, "to", code)
	s.language = code
}

// apply mutates the cart for add, remove and clear. Must be called with s.mu held.
func (s *Session) apply(r *intent.TurnResult) {
	switch r.Action {
	case intent.ActionAdd:
		for _, req := range r.ItemsToAdd {
			it, ok := s.deps.Resolver.Lookup(req.Name)
			if !ok {
				s.log.Warn("unknown item skipped", "item", req.Name)
				continue
			}
			line := s.cart.Add(it, req.Quantity)
			s.log.Info("added to cart", "item", it.Name, "quantity", line.Quantity)
		}
	case intent.ActionRemove:
		for _, req := range r.ItemsToRemove {
			name, ok := s.deps.Resolver.Resolve(req.Name)
			if !ok {
				s.log.Warn("unknown item not removed", "item", req.Name)
				continue
			}
			if s.cart.Remove(name, req.Quantity) {
				s.log.Info("removed from cart", "item", name, "remaining", s.cart.Quantity(name))
			}
		}
	case intent.ActionClear:
		s.cart.Clear()
		s.log.Info("cart cleared")
	}
}

func (s *Session) finalize(ctx context.Context, r *intent.TurnResult) {
	if r.Action != intent.ActionFinalize && !r.IsFinal {
		return
	}

	s.mu.Lock()
	if s.cart.IsEmpty() {
		s.mu.Unlock()
		return
	}
	snap := s.cart.Snapshot()
	s.mu.Unlock()

	ord, err := s.deps.Store.Append(ctx, snap)
	if err != nil {
		s.log.Error("order not saved, keeping cart", "error", err, "total", snap.Total)
		return
	}

	s.log.Info("order confirmed", "order_id", ord.ID, "total", ord.Total, "items", len(ord.Items))
	s.send(Event{Type: EventOrderConfirmed, Order: &ord})

	s.mu.Lock()
	s.cart.Clear()
	s.mu.Unlock()

	s.cfg.Metrics.OrderConfirmed()
	if s.cfg.OnOrder != nil {
		s.cfg.OnOrder(ord)
	}
}

// display resolves detected names to catalog items, first occurrence wins.
func (s *Session) display(names []string) []menu.Item {
	var items []menu.Item
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		it, ok := s.deps.Resolver.Lookup(raw)
		if !ok || seen[it.Name] {
			continue
		}
		seen[it.Name] = true
		items = append(items, it)
	}
	return items
}

func (s *Session) send(ev Event) {
	if s.State() == StateClosed {
		return
	}
	s.emit.Emit(ev)
}
