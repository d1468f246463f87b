// Package config loads go-drivethru settings from .env, the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Order store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Defaults.
const (
	DefaultPort             = "8000"
	DefaultLLMModel         = "gpt-4o-mini"
	DefaultSTTModel         = "whisper-1"
	DefaultTTSModel         = "tts-1"
	DefaultTTSVoice         = "alloy"
	DefaultCallTimeout      = 30 * time.Second
	DefaultMaxInflightCalls = 32
	DefaultSQLitePath       = "drivethru.db"
	DefaultRedisAddr        = "localhost:6379"
	DefaultStaticDir        = "./static"
	DefaultAPIRateLimit     = 20.0
)

// ErrNoOpenAIKey is returned by Validate when no OpenAI key is configured.
var ErrNoOpenAIKey = errors.New("config: OPENAI_API_KEY is required")

// Config holds all service settings.
type Config struct {
	Port string

	// OpenAI-compatible endpoints
	OpenAIKey     string
	OpenAIBaseURL string
	LLMModel      string
	STTModel      string
	TTSModel      string
	TTSVoice      string

	// Optional ElevenLabs fallback voice
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// External call timeouts
	STTTimeout time.Duration
	LLMTimeout time.Duration
	TTSTimeout time.Duration

	// MaxInflightCalls bounds concurrent external calls across sessions. 0 disables the cap.
	MaxInflightCalls int

	// Order storage
	OrderStore    string
	SQLitePath    string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MenuFile  string
	StaticDir string

	// APIRateLimit is requests per second per client IP on /api. 0 disables limiting.
	APIRateLimit float64

	LogLevel string
	Debug    bool
}

// Load reads .env (if present), then the environment, then command-line flags.
// Flags are parsed from args; pass os.Args[1:] from main.
func Load(args []string) (Config, error) {
	// Missing .env is normal in production.
	_ = godotenv.Load()

	cfg := Config{
		Port:              Env("PORT", DefaultPort),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		LLMModel:          Env("LLM_MODEL", DefaultLLMModel),
		STTModel:          Env("STT_MODEL", DefaultSTTModel),
		TTSModel:          Env("TTS_MODEL", DefaultTTSModel),
		TTSVoice:          Env("TTS_VOICE", DefaultTTSVoice),
		ElevenLabsKey:     os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
		OrderStore:        Env("ORDER_STORE", StoreMemory),
		SQLitePath:        Env("SQLITE_PATH", DefaultSQLitePath),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         Env("REDIS_ADDR", DefaultRedisAddr),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		MenuFile:          os.Getenv("MENU_FILE"),
		StaticDir:         Env("STATIC_DIR", DefaultStaticDir),
		LogLevel:          Env("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.STTTimeout, err = envDuration("STT_TIMEOUT", DefaultCallTimeout); err != nil {
		return cfg, err
	}
	if cfg.LLMTimeout, err = envDuration("LLM_TIMEOUT", DefaultCallTimeout); err != nil {
		return cfg, err
	}
	if cfg.TTSTimeout, err = envDuration("TTS_TIMEOUT", DefaultCallTimeout); err != nil {
		return cfg, err
	}
	if cfg.MaxInflightCalls, err = envInt("MAX_INFLIGHT_CALLS", DefaultMaxInflightCalls); err != nil {
		return cfg, err
	}
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return cfg, err
	}
	if cfg.APIRateLimit, err = envFloat("API_RATE_LIMIT", DefaultAPIRateLimit); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("drivethru", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.OrderStore, "store", cfg.OrderStore, "order store: memory, sqlite, postgres, redis")
	fs.StringVar(&cfg.MenuFile, "menu", cfg.MenuFile, "menu YAML file (embedded menu when empty)")
	fs.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "static files directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable request logging and debug output")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	cfg.OrderStore = strings.ToLower(cfg.OrderStore)

	return cfg, nil
}

// Validate checks that required configuration is present and consistent.
func (c Config) Validate() error {
	if c.OpenAIKey == "" {
		return ErrNoOpenAIKey
	}
	switch c.OrderStore {
	case StoreMemory, StoreSQLite, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres order store")
		}
	default:
		return fmt.Errorf("config: unknown ORDER_STORE %q", c.OrderStore)
	}
	if c.MaxInflightCalls < 0 {
		return errors.New("config: MAX_INFLIGHT_CALLS must be >= 0")
	}
	return nil
}

// Env returns the value of key, or def when unset or empty.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}
