package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-drivethru/internal/log"
	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/hub"
	"github.com/teslashibe/go-drivethru/pkg/inference"
	"github.com/teslashibe/go-drivethru/pkg/intent"
	"github.com/teslashibe/go-drivethru/pkg/menu"
	"github.com/teslashibe/go-drivethru/pkg/order"
	"github.com/teslashibe/go-drivethru/pkg/session"
	"github.com/teslashibe/go-drivethru/pkg/stt"
	"github.com/teslashibe/go-drivethru/pkg/tts"
)

// scripted model replies keyed by the customer's utterance
var replies = map[string]string{
	"cheeseburger and fries": `{"items":[{"item_name":"Cheeseburger","quantity":1},{"item_name":"Fries","quantity":1}],"remove_items":[],"action":"add","response":"Got it! Would you like anything else with that?","detected_items":["Cheeseburger","Fries"],"is_final":false,"language":"en"}`,
	"that's all":             `{"items":[],"remove_items":[],"action":"finalize","response":"Great! Your order is ready. Your total is $6.68. Thank you!","detected_items":[],"is_final":true,"language":"en"}`,
}

type testEnv struct {
	srv   *Server
	store *order.MemoryStore
	llm   *inference.Mock
	stt   *stt.Mock
	hub   *hub.Hub
}

// utterance encodes text as an audio frame the stub transcriber understands.
func utterance(text string, size int) []byte {
	b := make([]byte, size)
	copy(b, text)
	return b
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	cat, err := menu.Default()
	require.NoError(t, err)

	env := &testEnv{store: order.NewMemoryStore()}
	env.stt = &stt.Mock{TranscribeFunc: func(_ context.Context, audio []byte, _ stt.Request) (*stt.Transcript, error) {
		text, _, _ := bytes.Cut(audio, []byte{0})
		if len(text) == 0 {
			return nil, stt.ErrEmptyTranscript
		}
		return &stt.Transcript{Text: string(text), Bytes: len(audio)}, nil
	}}
	env.llm = &inference.Mock{ChatFunc: func(_ context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		last := req.Messages[len(req.Messages)-1].Content
		if last == "boom" {
			panic("interpreter exploded")
		}
		reply, ok := replies[last]
		if !ok {
			return nil, errors.New("no scripted reply")
		}
		return &inference.ChatResponse{Message: inference.NewAssistantMessage(reply)}, nil
	}}

	env.hub = hub.New(log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go env.hub.Run(ctx)
	t.Cleanup(cancel)

	cfg := DefaultConfig()
	cfg.Logger = log.Discard()
	cfg.StaticDir = ""
	if mutate != nil {
		mutate(&cfg)
	}

	env.srv = New(cfg, Deps{
		Catalog: cat,
		Store:   env.store,
		Session: session.Deps{
			STT:         env.stt,
			TTS:         tts.NewMock(),
			Interpreter: intent.NewInterpreter(env.llm, "Burger Spot", cat, intent.WithLogger(log.Discard())),
			Resolver:    menu.NewResolver(cat),
			Store:       env.store,
		},
		Limiter: session.NewLimiter(4),
		Kitchen: env.hub,
		Health: map[string]HealthCheck{
			"tts": tts.NewMock().Health,
		},
	})
	return env
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t, nil)
	status, body := get(t, env.srv.App(), "/")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"message":"Voice Restaurant Ordering System API"}`, string(body))
}

func TestMenu(t *testing.T) {
	env := newTestEnv(t, nil)
	status, body := get(t, env.srv.App(), "/api/menu")
	require.Equal(t, 200, status)

	var resp struct {
		Menu []struct {
			Name        string  `json:"name"`
			Price       float64 `json:"price"`
			Image       string  `json:"image"`
			Description string  `json:"description"`
		} `json:"menu"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Menu, 10)
	assert.Equal(t, "Big Burger Combo", resp.Menu[0].Name)
	assert.Equal(t, 14.89, resp.Menu[0].Price)
	assert.Equal(t, "/static/Menu/Big_Burger_Combo.png", resp.Menu[0].Image)
	assert.NotContains(t, string(body), "color")
}

func TestOrders(t *testing.T) {
	env := newTestEnv(t, nil)
	status, body := get(t, env.srv.App(), "/api/orders")
	require.Equal(t, 200, status)
	assert.JSONEq(t, `{"orders":[]}`, string(body))

	_, err := env.store.Append(context.Background(), cart.Snapshot{
		Items: []cart.Line{{Name: "Fries", Quantity: 1, Price: menu.Cents(319), Image: "/static/Menu/Fries.png"}},
		Total: menu.Cents(319),
	})
	require.NoError(t, err)

	status, body = get(t, env.srv.App(), "/api/orders")
	require.Equal(t, 200, status)
	var resp struct {
		Orders []order.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, int64(1), resp.Orders[0].ID)
	assert.Equal(t, menu.Cents(319), resp.Orders[0].Total)
	assert.Equal(t, order.StatusConfirmed, resp.Orders[0].Status)
}

func TestOrdersStoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.store.Close())
	status, _ := get(t, env.srv.App(), "/api/orders")
	assert.Equal(t, 500, status)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	status, body := get(t, env.srv.App(), "/health")
	assert.Equal(t, 200, status)
	assert.Contains(t, string(body), `"status":"ok"`)

	status, body = get(t, env.srv.App(), "/health?deep=true")
	assert.Equal(t, 200, status)
	assert.Contains(t, string(body), `"tts":"ok"`)

	env.srv.deps.Health["llm"] = func(context.Context) error { return errors.New("401 unauthorized") }
	status, body = get(t, env.srv.App(), "/health?deep=true")
	assert.Equal(t, 503, status)
	assert.Contains(t, string(body), `"status":"degraded"`)
	assert.Contains(t, string(body), "401 unauthorized")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.deps.Metrics.OrderConfirmed()

	resp, err := env.srv.App().Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	assert.Contains(t, string(body), "drivethru_orders_total 1")
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Menu"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Menu", "Fries.png"), []byte("png"), 0o644))

	env := newTestEnv(t, func(c *Config) { c.StaticDir = dir })
	status, body := get(t, env.srv.App(), "/static/Menu/Fries.png")
	assert.Equal(t, 200, status)
	assert.Equal(t, "png", string(body))
}

func TestAPIRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.APIRateLimit = 0.001
		c.APIBurst = 2
	})
	app := env.srv.App()

	for i := 0; i < 2; i++ {
		status, _ := get(t, app, "/api/menu")
		assert.Equal(t, 200, status)
	}
	status, _ := get(t, app, "/api/menu")
	assert.Equal(t, 429, status)

	// outside /api is unaffected
	status, _ = get(t, app, "/health")
	assert.Equal(t, 200, status)
}

func TestVoiceRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t, nil)
	status, _ := get(t, env.srv.App(), "/ws/voice")
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest("GET", "/api/menu", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := env.srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
