// Package server exposes the ordering service over HTTP and WebSocket:
// the voice endpoint, the kitchen feed, menu and order projections,
// health, metrics and static menu images.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	kitchen "github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-drivethru/pkg/hub"
	"github.com/teslashibe/go-drivethru/pkg/menu"
	"github.com/teslashibe/go-drivethru/pkg/order"
	"github.com/teslashibe/go-drivethru/pkg/session"
)

const version = "1.0.0"

// Config holds transport settings.
type Config struct {
	StaticDir string

	// APIRateLimit is requests per second per client IP on /api. 0 disables it.
	APIRateLimit float64
	APIBurst     int

	// QueueSize bounds the frames buffered per voice connection.
	QueueSize int

	// WriteTimeout bounds a single WebSocket write.
	WriteTimeout time.Duration

	Debug  bool
	Logger *slog.Logger
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		StaticDir:    "./static",
		APIRateLimit: 20,
		APIBurst:     40,
		QueueSize:    16,
		WriteTimeout: 10 * time.Second,
		Logger:       slog.Default(),
	}
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Deps are the shared collaborators every connection uses.
type Deps struct {
	Catalog *menu.Catalog
	Store   order.Store
	Session session.Deps

	Metrics *session.Metrics
	Limiter *session.Limiter
	Kitchen *hub.Hub

	// Health checks run by GET /health?deep=true, keyed by name.
	Health map[string]HealthCheck
}

// Server is the fiber application plus the context that scopes every session.
type Server struct {
	app  *fiber.App
	cfg  Config
	deps Deps
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the application and registers all routes.
func New(cfg Config, deps Deps) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if deps.Metrics == nil {
		deps.Metrics = session.NewMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		log:    cfg.Logger.With("component", "server"),
		ctx:    ctx,
		cancel: cancel,
	}

	app := fiber.New(fiber.Config{
		AppName:               "drivethru",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if cfg.Debug {
		app.Use(logger.New())
	}

	app.Get("/", s.handleRoot)
	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	if cfg.APIRateLimit > 0 {
		api.Use(NewRateLimiter(cfg.APIRateLimit, cfg.APIBurst).Middleware())
	}
	api.Get("/menu", s.handleMenu)
	api.Get("/orders", s.handleOrders)

	if cfg.StaticDir != "" {
		app.Static("/static", cfg.StaticDir)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/voice", websocket.New(s.handleVoice))
	if deps.Kitchen != nil {
		app.Get("/ws/orders", kitchen.New(deps.Kitchen.Serve))
	}

	s.app = app
	return s
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown cancels every live session and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.app.ShutdownWithContext(ctx)
}
