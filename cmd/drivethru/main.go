// drivethru: voice ordering service for Burger Spot.
// Clients stream microphone audio over /ws/voice; kitchen displays follow /ws/orders.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-drivethru/internal/config"
	"github.com/teslashibe/go-drivethru/internal/log"
	"github.com/teslashibe/go-drivethru/pkg/hub"
	"github.com/teslashibe/go-drivethru/pkg/inference"
	"github.com/teslashibe/go-drivethru/pkg/intent"
	"github.com/teslashibe/go-drivethru/pkg/menu"
	"github.com/teslashibe/go-drivethru/pkg/order"
	"github.com/teslashibe/go-drivethru/pkg/server"
	"github.com/teslashibe/go-drivethru/pkg/session"
	"github.com/teslashibe/go-drivethru/pkg/stt"
	"github.com/teslashibe/go-drivethru/pkg/tts"
)

const restaurant = "Burger Spot"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "drivethru: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	log.Init(cfg.LogLevel)
	logger := log.L()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(cfg.MenuFile)
	if err != nil {
		return err
	}
	logger.Info("menu loaded", "items", catalog.Len(), "aliases", len(catalog.Aliases()))

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("order store ready", "backend", cfg.OrderStore)

	transcriber, err := newTranscriber(cfg)
	if err != nil {
		return err
	}
	defer transcriber.Close()

	llm, err := newLLM(cfg)
	if err != nil {
		return err
	}
	defer llm.Close()

	voice, err := newVoice(cfg)
	if err != nil {
		return err
	}
	defer voice.Close()

	kitchen := hub.New(logger)
	srv := server.New(server.Config{
		StaticDir:    cfg.StaticDir,
		APIRateLimit: cfg.APIRateLimit,
		APIBurst:     int(2*cfg.APIRateLimit) + 1,
		Debug:        cfg.Debug,
		Logger:       logger,
	}, server.Deps{
		Catalog: catalog,
		Store:   store,
		Session: session.Deps{
			STT:         transcriber,
			TTS:         voice,
			Interpreter: intent.NewInterpreter(llm, restaurant, catalog, intent.WithLogger(logger)),
			Resolver:    menu.NewResolver(catalog),
			Store:       store,
		},
		Metrics: session.NewMetrics(),
		Limiter: session.NewLimiter(cfg.MaxInflightCalls),
		Kitchen: kitchen,
		Health: map[string]server.HealthCheck{
			"llm": llm.Health,
			"tts": voice.Health,
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kitchen.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("starting server",
			"voice", "ws://localhost:"+cfg.Port+"/ws/voice",
			"kitchen", "ws://localhost:"+cfg.Port+"/ws/orders",
			"menu", "http://localhost:"+cfg.Port+"/api/menu",
		)
		return srv.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("goodbye")
	return nil
}

func loadCatalog(path string) (*menu.Catalog, error) {
	if path == "" {
		return menu.Default()
	}
	return menu.LoadFile(path)
}

func openStore(ctx context.Context, cfg config.Config) (order.Store, error) {
	switch cfg.OrderStore {
	case config.StoreSQLite:
		return order.OpenSQLite(cfg.SQLitePath)
	case config.StorePostgres:
		return order.OpenPostgres(ctx, cfg.DatabaseURL)
	case config.StoreRedis:
		return order.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "")
	default:
		return order.NewMemoryStore(), nil
	}
}

func newTranscriber(cfg config.Config) (stt.Provider, error) {
	opts := []stt.Option{
		stt.WithAPIKey(cfg.OpenAIKey),
		stt.WithModel(cfg.STTModel),
		stt.WithTimeout(cfg.STTTimeout),
		stt.WithLogger(log.L()),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, stt.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return stt.NewOpenAI(opts...)
}

func newLLM(cfg config.Config) (inference.Provider, error) {
	opts := []inference.Option{
		inference.WithAPIKey(cfg.OpenAIKey),
		inference.WithModel(cfg.LLMModel),
		inference.WithTimeout(cfg.LLMTimeout),
		inference.WithLogger(log.L()),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, inference.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return inference.NewClient(opts...)
}

// newVoice builds OpenAI speech with ElevenLabs as fallback when configured.
func newVoice(cfg config.Config) (tts.Provider, error) {
	opts := []tts.Option{
		tts.WithAPIKey(cfg.OpenAIKey),
		tts.WithModel(cfg.TTSModel),
		tts.WithVoice(cfg.TTSVoice),
		tts.WithTimeout(cfg.TTSTimeout),
		tts.WithLogger(log.L()),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, tts.WithBaseURL(cfg.OpenAIBaseURL))
	}
	primary, err := tts.NewOpenAI(opts...)
	if err != nil {
		return nil, err
	}

	if cfg.ElevenLabsKey == "" {
		return primary, nil
	}
	if cfg.ElevenLabsVoiceID == "" {
		log.Warn("ELEVENLABS_API_KEY set without ELEVENLABS_VOICE_ID, fallback voice disabled")
		return primary, nil
	}
	fallback, err := tts.NewElevenLabs(
		tts.WithAPIKey(cfg.ElevenLabsKey),
		tts.WithVoice(cfg.ElevenLabsVoiceID),
		tts.WithTimeout(cfg.TTSTimeout),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		return nil, err
	}
	return tts.NewChainWithLogger(log.L(), primary, fallback)
}
