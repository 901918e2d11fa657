package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the assistant service.
type Config struct {
	BindAddr         string
	MetricsNamespace string
	AllowAnyOrigin   bool
	ShutdownTimeout  time.Duration

	StorePath    string
	DatabaseURL  string
	ForgetAfter  time.Duration
	ContextLimit int

	ResponderURL         string
	ResponderModel       string
	ResponderTemperature float64
	ResponderMaxTokens   int
	ResponderTopP        float64
	ResponderTimeout     time.Duration
	Persona              string
	FallbackPhrase       string
	EmptyReplyPhrase     string

	VoiceProvider    string
	TTSBinary        string
	Greeting         string
	ListenWait       time.Duration
	AutoListenDelay  time.Duration
	ListenRetryDelay time.Duration
	ListenContinuous bool

	StatsInterval time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "alice"),
		ShutdownTimeout:  15 * time.Second,

		StorePath:    envOrDefault("MEMORY_DB_PATH", "memories.db"),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ForgetAfter:  time.Hour,
		ContextLimit: 10,

		ResponderURL:         envOrDefault("CHAT_COMPLETIONS_URL", "http://127.0.0.1:1234/v1/chat/completions"),
		ResponderModel:       envOrDefault("CHAT_MODEL", "meta-llama-3.1-8b-instruct"),
		ResponderTemperature: 0.7,
		ResponderMaxTokens:   200,
		ResponderTopP:        0.9,
		ResponderTimeout:     10 * time.Second,
		Persona:              strings.TrimSpace(os.Getenv("ASSISTANT_PERSONA")),
		FallbackPhrase:       strings.TrimSpace(os.Getenv("ASSISTANT_FALLBACK_PHRASE")),
		EmptyReplyPhrase:     strings.TrimSpace(os.Getenv("ASSISTANT_EMPTY_REPLY_PHRASE")),

		VoiceProvider:    envOrDefault("VOICE_PROVIDER", "auto"),
		TTSBinary:        envOrDefault("TTS_BINARY", "say"),
		Greeting:         envOrDefault("ASSISTANT_GREETING", "System online. Welcome back, my dear~"),
		ListenWait:       5 * time.Second,
		AutoListenDelay:  2 * time.Second,
		ListenRetryDelay: 1500 * time.Millisecond,

		StatsInterval: time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ForgetAfter, err = durationFromEnv("MEMORY_FORGET_AFTER", cfg.ForgetAfter)
	if err != nil {
		return Config{}, err
	}
	cfg.ContextLimit, err = intFromEnv("MEMORY_CONTEXT_LIMIT", cfg.ContextLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.ResponderTemperature, err = floatFromEnv("CHAT_TEMPERATURE", cfg.ResponderTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.ResponderMaxTokens, err = intFromEnv("CHAT_MAX_TOKENS", cfg.ResponderMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.ResponderTopP, err = floatFromEnv("CHAT_TOP_P", cfg.ResponderTopP)
	if err != nil {
		return Config{}, err
	}
	cfg.ResponderTimeout, err = durationFromEnv("CHAT_TIMEOUT", cfg.ResponderTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ListenWait, err = durationFromEnv("LISTEN_WAIT", cfg.ListenWait)
	if err != nil {
		return Config{}, err
	}
	cfg.AutoListenDelay, err = durationFromEnv("LISTEN_AUTO_DELAY", cfg.AutoListenDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.ListenRetryDelay, err = durationFromEnv("LISTEN_RETRY_DELAY", cfg.ListenRetryDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.ListenContinuous, err = boolFromEnv("LISTEN_CONTINUOUS", cfg.ListenContinuous)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.StatsInterval, err = durationFromEnv("STATS_POLL_INTERVAL", cfg.StatsInterval)
	if err != nil {
		return Config{}, err
	}

	if cfg.ForgetAfter <= 0 {
		return Config{}, fmt.Errorf("MEMORY_FORGET_AFTER must be positive, got %s", cfg.ForgetAfter)
	}
	if cfg.ContextLimit <= 0 {
		return Config{}, fmt.Errorf("MEMORY_CONTEXT_LIMIT must be positive, got %d", cfg.ContextLimit)
	}
	if cfg.ResponderTimeout <= 0 || cfg.ResponderTimeout > 10*time.Second {
		return Config{}, fmt.Errorf("CHAT_TIMEOUT must be within (0s, 10s], got %s", cfg.ResponderTimeout)
	}
	if cfg.ListenWait <= 0 {
		return Config{}, fmt.Errorf("LISTEN_WAIT must be positive, got %s", cfg.ListenWait)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
