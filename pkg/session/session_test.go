package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-drivethru/internal/log"
	"github.com/teslashibe/go-drivethru/pkg/inference"
	"github.com/teslashibe/go-drivethru/pkg/intent"
	"github.com/teslashibe/go-drivethru/pkg/menu"
	"github.com/teslashibe/go-drivethru/pkg/order"
	"github.com/teslashibe/go-drivethru/pkg/stt"
	"github.com/teslashibe/go-drivethru/pkg/tts"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) Types() []EventType {
	var out []EventType
	for _, ev := range r.Events() {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type interpFunc func(ctx context.Context, text string, history []intent.Message) (*intent.TurnResult, error)

func (f interpFunc) Interpret(ctx context.Context, text string, history []intent.Message) (*intent.TurnResult, error) {
	return f(ctx, text, history)
}

// replies returns an interpreter that answers utterances from a table.
func replies(table map[string]*intent.TurnResult) interpFunc {
	return func(_ context.Context, text string, _ []intent.Message) (*intent.TurnResult, error) {
		if r, ok := table[text]; ok {
			return r, nil
		}
		return nil, errors.New("no scripted reply")
	}
}

type fixture struct {
	s       *Session
	rec     *recorder
	stt     *stt.Mock
	tts     *tts.Mock
	store   *order.MemoryStore
	metrics *Metrics
}

func newFixture(t *testing.T, interp Interpreter, opts ...Option) *fixture {
	t.Helper()
	cat, err := menu.Default()
	require.NoError(t, err)

	f := &fixture{
		rec:     &recorder{},
		stt:     stt.NewMock(""),
		tts:     tts.NewMock(),
		store:   order.NewMemoryStore(),
		metrics: NewMetrics(),
	}
	deps := Deps{
		STT:         f.stt,
		TTS:         f.tts,
		Interpreter: interp,
		Resolver:    menu.NewResolver(cat),
		Store:       f.store,
	}
	opts = append([]Option{WithMetrics(f.metrics), WithLogger(log.Discard())}, opts...)
	f.s = New("test-session", deps, f.rec, opts...)
	return f
}

// say runs one turn with a frame large enough to be transcribed.
func (f *fixture) say(text string) {
	f.stt.Text = text
	f.s.HandleAudio(context.Background(), make([]byte, 12000))
}

var (
	addBurgerAndFries = &intent.TurnResult{
		ItemsToAdd:    []intent.ItemRequest{{Name: "Cheeseburger", Quantity: 1}, {Name: "Fries", Quantity: 1}},
		Action:        intent.ActionAdd,
		Response:      "Got it! Would you like anything else with that?",
		DetectedItems: []string{"Cheeseburger", "Fries"},
	}
	thatsAll = &intent.TurnResult{
		Action:   intent.ActionFinalize,
		Response: "Great! Your order is ready. Your total is $6.68. Thank you!",
		IsFinal:  true,
	}
)

func TestStartSpeaksWelcome(t *testing.T) {
	f := newFixture(t, replies(nil))
	assert.Equal(t, StateAwaitingStart, f.s.State())

	f.s.Start(context.Background())
	assert.Equal(t, StateActive, f.s.State())

	events := f.rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventAudio, events[0].Type)
	assert.Equal(t, DefaultWelcome, string(events[0].Audio))
	assert.Empty(t, f.s.Cart().Items)

	// repeated start replays the welcome
	f.s.Start(context.Background())
	assert.Equal(t, []EventType{EventAudio, EventAudio}, f.rec.Types())
}

func TestStartSynthesisFailure(t *testing.T) {
	f := newFixture(t, replies(nil))
	f.tts.SynthesizeFunc = func(context.Context, string) (*tts.AudioResult, error) {
		return nil, tts.ErrProviderUnavailable
	}

	f.s.Start(context.Background())
	events := f.rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, "Failed to generate audio", events[0].Message)
	assert.Equal(t, StateActive, f.s.State())
}

func TestAudioBeforeStartIgnored(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{"cheeseburger and fries": addBurgerAndFries}))
	f.say("cheeseburger and fries")

	assert.Equal(t, 0, f.stt.CallCount())
	assert.Empty(t, f.rec.Events())
	assert.Empty(t, f.s.Cart().Items)
}

func TestShortFramesNeverTranscribed(t *testing.T) {
	f := newFixture(t, replies(nil))
	f.s.Start(context.Background())
	f.rec.Reset()

	for _, n := range []int{0, 1, 5000, 9999} {
		f.s.HandleAudio(context.Background(), make([]byte, n))
	}
	assert.Equal(t, 0, f.stt.CallCount())
	assert.Empty(t, f.rec.Events())
	assert.Equal(t, int64(4), f.metrics.Turns(OutcomeTooShort))

	f.stt.Text = "hello"
	f.s.HandleAudio(context.Background(), make([]byte, 10000))
	assert.Equal(t, 1, f.stt.CallCount())
}

func TestUnusableTranscript(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		size      int
		wantAudio bool
	}{
		{"empty small frame", "", 20000, false},
		{"one char small frame", " a ", 20000, false},
		{"empty at threshold", "", 30000, false},
		{"empty large frame", "", 30001, true},
		{"one char large frame", "a", 50000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interp := interpFunc(func(context.Context, string, []intent.Message) (*intent.TurnResult, error) {
				t.Error("interpreter must not run")
				return nil, nil
			})
			f := newFixture(t, interp)
			f.s.Start(context.Background())
			f.rec.Reset()

			f.stt.Text = tt.text
			f.s.HandleAudio(context.Background(), make([]byte, tt.size))

			if !tt.wantAudio {
				assert.Empty(t, f.rec.Events())
				return
			}
			events := f.rec.Events()
			require.Len(t, events, 1)
			assert.Equal(t, EventAudio, events[0].Type)
			assert.Equal(t, DefaultClarify, string(events[0].Audio))
		})
	}
}

func TestClarificationSynthesisFailureIsSilent(t *testing.T) {
	f := newFixture(t, replies(nil))
	f.s.Start(context.Background())
	f.rec.Reset()
	f.tts.SynthesizeFunc = func(context.Context, string) (*tts.AudioResult, error) {
		return nil, tts.ErrProviderUnavailable
	}

	f.s.HandleAudio(context.Background(), make([]byte, 40000))
	assert.Empty(t, f.rec.Events())
}

func TestOrderFlow(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{
		"cheeseburger and fries": addBurgerAndFries,
		"that's all":             thatsAll,
	}))
	var confirmed []order.Order
	f.s.cfg.OnOrder = func(o order.Order) { confirmed = append(confirmed, o) }

	f.s.Start(context.Background())
	f.rec.Reset()

	f.say("cheeseburger and fries")

	events := f.rec.Events()
	require.Equal(t, []EventType{EventShowItems, EventCartUpdate, EventAudio}, f.rec.Types())

	require.Len(t, events[0].Items, 2)
	assert.Equal(t, "Cheeseburger", events[0].Items[0].Name)
	assert.Equal(t, "Fries", events[0].Items[1].Name)
	assert.NotEmpty(t, events[0].Items[0].Description)

	cartEv := events[1].Cart
	require.Len(t, cartEv.Items, 2)
	assert.Equal(t, 1, cartEv.Items[0].Quantity)
	assert.Equal(t, menu.Cents(668), cartEv.Total)
	assert.Equal(t, addBurgerAndFries.Response, string(events[2].Audio))

	f.rec.Reset()
	f.say("that's all")

	events = f.rec.Events()
	require.Equal(t, []EventType{EventOrderConfirmed, EventCartUpdate, EventAudio}, f.rec.Types())
	require.NotNil(t, events[0].Order)
	assert.Equal(t, int64(1), events[0].Order.ID)
	assert.Equal(t, menu.Cents(668), events[0].Order.Total)
	assert.Equal(t, order.StatusConfirmed, events[0].Order.Status)
	assert.Empty(t, events[1].Cart.Items)
	assert.Equal(t, menu.Cents(0), events[1].Cart.Total)

	orders, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, confirmed, 1)
	assert.Equal(t, int64(1), confirmed[0].ID)
	assert.Equal(t, int64(2), f.metrics.Turns(OutcomeCompleted))

	history := f.s.History()
	require.Len(t, history, 4)
	assert.Equal(t, inference.RoleUser, history[0].Role)
	assert.Equal(t, "cheeseburger and fries", history[0].Content)
	assert.Equal(t, inference.RoleAssistant, history[1].Role)
	assert.Equal(t, addBurgerAndFries.Response, history[1].Content)
}

func TestOrderIDsIncrease(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{
		"cheeseburger and fries": addBurgerAndFries,
		"that's all":             thatsAll,
	}))
	f.s.Start(context.Background())

	for want := int64(1); want <= 3; want++ {
		f.say("cheeseburger and fries")
		f.rec.Reset()
		f.say("that's all")
		ev := f.rec.Events()[0]
		require.Equal(t, EventOrderConfirmed, ev.Type)
		assert.Equal(t, want, ev.Order.ID)
	}
}

func TestFinalizeEmptyCart(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{"that's all": thatsAll}))
	f.s.Start(context.Background())
	f.rec.Reset()

	f.say("that's all")
	assert.Equal(t, []EventType{EventCartUpdate, EventAudio}, f.rec.Types())

	orders, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFinalizeStoreFailureKeepsCart(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{
		"cheeseburger and fries": addBurgerAndFries,
		"that's all":             thatsAll,
	}))
	f.s.Start(context.Background())
	f.say("cheeseburger and fries")
	require.NoError(t, f.store.Close())
	f.rec.Reset()

	f.say("that's all")
	events := f.rec.Events()
	assert.Equal(t, []EventType{EventCartUpdate, EventAudio}, f.rec.Types())
	assert.Equal(t, menu.Cents(668), events[0].Cart.Total)
	assert.Len(t, f.s.Cart().Items, 2)
}

func TestIsFinalWithAddFinalizesAfterAdding(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{
		"one hamburger and that's it": {
			ItemsToAdd: []intent.ItemRequest{{Name: "hamburger"}},
			Action:     intent.ActionAdd,
			Response:   "Your total is $2.99.",
			IsFinal:    true,
		},
	}))
	f.s.Start(context.Background())
	f.rec.Reset()

	f.say("one hamburger and that's it")
	events := f.rec.Events()
	require.Equal(t, []EventType{EventOrderConfirmed, EventCartUpdate, EventAudio}, f.rec.Types())
	assert.Equal(t, menu.Cents(299), events[0].Order.Total)
	require.Len(t, events[0].Order.Items, 1)
	assert.Equal(t, 1, events[0].Order.Items[0].Quantity)
}

func TestCartActions(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{
		"three cokes and a pizza": {
			ItemsToAdd: []intent.ItemRequest{{Name: "coke", Quantity: 3}, {Name: "pizza", Quantity: 1}, {Name: "big burger", Quantity: 0}},
			Action:     intent.ActionAdd,
			Response:   "Sure.",
		},
		"remove one coke": {
			ItemsToRemove: []intent.ItemRequest{{Name: "Coca-Cola Drink", Quantity: 1}, {Name: "sushi", Quantity: 1}, {Name: "fries", Quantity: 1}},
			Action:        intent.ActionRemove,
			Response:      "Removed.",
		},
		"remove the combo": {
			ItemsToRemove: []intent.ItemRequest{{Name: "combo", Quantity: 5}},
			Action:        intent.ActionRemove,
			Response:      "Removed.",
		},
		"items but wrong action": {
			ItemsToAdd: []intent.ItemRequest{{Name: "fries", Quantity: 2}},
			Action:     intent.ActionMenuInquiry,
			Response:   "Fries are crispy.",
		},
		"start over": {Action: intent.ActionClear, Response: "Cleared."},
	}))
	f.s.Start(context.Background())

	f.say("three cokes and a pizza")
	snap := f.s.Cart()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "Coca-Cola Drink", snap.Items[0].Name)
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.Equal(t, "Big Burger Combo", snap.Items[1].Name)
	assert.Equal(t, 1, snap.Items[1].Quantity)

	f.say("remove one coke")
	snap = f.s.Cart()
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.Len(t, snap.Items, 2)

	f.say("remove the combo")
	snap = f.s.Cart()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Coca-Cola Drink", snap.Items[0].Name)

	f.say("items but wrong action")
	assert.Len(t, f.s.Cart().Items, 1)

	f.rec.Reset()
	f.say("start over")
	events := f.rec.Events()
	assert.Equal(t, []EventType{EventCartUpdate, EventAudio}, f.rec.Types())
	assert.Empty(t, events[0].Cart.Items)
}

func TestShowItemsDeduplicates(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{
		"what burgers do you have": {
			Action:        intent.ActionMenuInquiry,
			Response:      "We have a cheeseburger and a double.",
			DetectedItems: []string{"Cheeseburger", "cheese burger", "Double Cheeseburger", "Milkshake"},
		},
		"nothing real": {
			Action:        intent.ActionMenuInquiry,
			Response:      "We don't sell that.",
			DetectedItems: []string{"Milkshake"},
		},
	}))
	f.s.Start(context.Background())
	f.rec.Reset()

	f.say("what burgers do you have")
	events := f.rec.Events()
	require.Equal(t, EventShowItems, events[0].Type)
	require.Len(t, events[0].Items, 2)
	assert.Equal(t, "Cheeseburger", events[0].Items[0].Name)
	assert.Equal(t, "Double Cheeseburger", events[0].Items[1].Name)

	f.rec.Reset()
	f.say("nothing real")
	assert.Equal(t, []EventType{EventCartUpdate, EventAudio}, f.rec.Types())
}

func TestInterpreterFailureFallsBack(t *testing.T) {
	f := newFixture(t, replies(nil))
	f.s.Start(context.Background())
	f.rec.Reset()

	f.say("mumble mumble")
	events := f.rec.Events()
	require.Equal(t, []EventType{EventCartUpdate, EventAudio}, f.rec.Types())
	assert.Equal(t, intent.FallbackResponse, string(events[1].Audio))
	assert.Equal(t, int64(1), f.metrics.Turns(OutcomeFallback))

	history := f.s.History()
	require.Len(t, history, 2)
	assert.Equal(t, intent.FallbackResponse, history[1].Content)
}

func TestResponseSynthesisFailureOmitsAudio(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{"cheeseburger and fries": addBurgerAndFries}))
	f.s.Start(context.Background())
	f.rec.Reset()
	f.tts.SynthesizeFunc = func(context.Context, string) (*tts.AudioResult, error) {
		return nil, tts.ErrProviderUnavailable
	}

	f.say("cheeseburger and fries")
	assert.Equal(t, []EventType{EventShowItems, EventCartUpdate}, f.rec.Types())
}

func TestLanguageTracking(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{
		"speak spanish": {Action: intent.ActionLanguageChange, Response: "¡Claro! ¿Qué le gustaría?", Language: "es"},
		"hamburguesa":   {Action: intent.ActionQuestion, Response: "¿Algo más?", Language: "klingon"},
		"no language":   {Action: intent.ActionQuestion, Response: "¿Algo más?"},
	}))
	f.s.Start(context.Background())
	assert.Equal(t, "en", f.s.Language())

	f.say("speak spanish")
	assert.Equal(t, "es", f.s.Language())

	f.say("hamburguesa")
	assert.Equal(t, "es", f.s.Language())
	f.say("no language")
	assert.Equal(t, "es", f.s.Language())

	calls := f.stt.Calls()
	require.Len(t, calls, 3)
	assert.Empty(t, calls[0].Language)
	assert.Equal(t, "es", calls[1].Language)
}

func TestClosedSessionEmitsNothing(t *testing.T) {
	f := newFixture(t, replies(map[string]*intent.TurnResult{"cheeseburger and fries": addBurgerAndFries}))
	f.s.Start(context.Background())
	assert.Equal(t, int64(1), f.metrics.ActiveSessions())

	f.s.Close()
	f.s.Close()
	assert.Equal(t, StateClosed, f.s.State())
	assert.Equal(t, int64(0), f.metrics.ActiveSessions())
	f.rec.Reset()

	f.say("cheeseburger and fries")
	f.s.Start(context.Background())
	assert.Empty(t, f.rec.Events())
	assert.Equal(t, 0, f.stt.CallCount())
}

func TestCloseDuringTurnSuppressesEvents(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	f.s.deps.Interpreter = interpFunc(func(context.Context, string, []intent.Message) (*intent.TurnResult, error) {
		f.s.Close()
		cancel()
		return addBurgerAndFries, nil
	})
	f.s.Start(context.Background())
	f.rec.Reset()

	f.stt.Text = "cheeseburger and fries"
	f.s.HandleAudio(ctx, make([]byte, 12000))
	assert.Empty(t, f.rec.Events())
}

func TestWithRealInterpreter(t *testing.T) {
	cat, err := menu.Default()
	require.NoError(t, err)
	llm := &inference.Mock{ChatFunc: func(_ context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		reply := `{"items":[{"item_name":"Cheeseburger","quantity":1},{"item_name":"French Fries","quantity":1}],"remove_items":[],"action":"add","response":"Anything else?","detected_items":["Cheeseburger","French Fries"],"is_final":false,"language":"en"}`
		if req.Messages[len(req.Messages)-1].Content == "that's all" {
			reply = `{"items":[],"remove_items":[],"action":"finalize","response":"Great! Your order is ready. Your total is $6.68. Thank you!","detected_items":[],"is_final":true,"language":"en"}`
		}
		return &inference.ChatResponse{Message: inference.NewAssistantMessage(reply)}, nil
	}}

	f := newFixture(t, intent.NewInterpreter(llm, "Burger Spot", cat, intent.WithLogger(log.Discard())))
	f.s.Start(context.Background())
	f.rec.Reset()

	f.say("cheeseburger and fries")
	events := f.rec.Events()
	require.Equal(t, []EventType{EventShowItems, EventCartUpdate, EventAudio}, f.rec.Types())
	assert.Equal(t, menu.Cents(668), events[1].Cart.Total)

	f.rec.Reset()
	f.say("that's all")
	events = f.rec.Events()
	require.Equal(t, []EventType{EventOrderConfirmed, EventCartUpdate, EventAudio}, f.rec.Types())
	assert.Equal(t, int64(1), events[0].Order.ID)
	assert.Equal(t, menu.Cents(0), events[1].Cart.Total)

	// the second request carries the first exchange plus the new utterance
	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 1+3+1)
}
