package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider selection modes. "auto" picks whichever credential is configured,
// preferring Gemini, then Groq, then OpenAI.
const (
	ProviderAuto   = "auto"
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config contains all runtime settings for the chatbot backend.
type Config struct {
	BindAddr        string
	ShutdownTimeout time.Duration

	Provider    string
	GeminiKey   string
	GeminiModel string
	GroqKey     string
	GroqModel   string
	OpenAIKey   string
	OpenAIModel string

	ProviderTimeout time.Duration
	ProviderRetry   bool

	HistoryMaxTurns int

	FrontendOrigin string
	AllowAnyOrigin bool

	ChatLogFile   string
	KnowledgeFile string
	DatabaseURL   string

	MetricsNamespace string
}

// Load reads environment variables, applies defaults, and validates that the
// selected provider has a credential. It never lets the server start with a
// provider it cannot authenticate against.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         ":" + envOrDefault("PORT", "5050"),
		Provider:         strings.ToLower(envOrDefault("PROVIDER", ProviderAuto)),
		GeminiKey:        envTrimmed("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GroqKey:          envTrimmed("GROQ_API_KEY"),
		GroqModel:        envOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		OpenAIKey:        envTrimmed("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		FrontendOrigin:   envTrimmed("FRONTEND_ORIGIN"),
		ChatLogFile:      envTrimmed("CHAT_LOG_FILE"),
		KnowledgeFile:    envTrimmed("KNOWLEDGE_FILE"),
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "supersetbot"),
		ProviderTimeout:  20 * time.Second,
		ProviderRetry:    true,
		HistoryMaxTurns:  12,
		ShutdownTimeout:  15 * time.Second,
	}

	var err error
	cfg.ProviderTimeout, err = durationFromEnv("APP_PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ProviderRetry, err = boolFromEnv("APP_PROVIDER_RETRY", cfg.ProviderRetry)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryMaxTurns, err = intFromEnv("APP_HISTORY_MAX_TURNS", cfg.HistoryMaxTurns)
	if err != nil {
		return Config{}, err
	}

	if cfg.ProviderTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_PROVIDER_TIMEOUT must be at least 1s")
	}
	// A cap below system + one user/assistant pair cannot hold a conversation.
	if cfg.HistoryMaxTurns != 0 && cfg.HistoryMaxTurns < 4 {
		return Config{}, fmt.Errorf("APP_HISTORY_MAX_TURNS must be 0 (unbounded) or at least 4")
	}

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiKey == "" {
			return Config{}, fmt.Errorf("GEMINI_API_KEY is missing")
		}
	case ProviderGroq:
		if cfg.GroqKey == "" {
			return Config{}, fmt.Errorf("GROQ_API_KEY is missing")
		}
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return Config{}, fmt.Errorf("OPENAI_API_KEY is missing")
		}
	case ProviderMock:
	case ProviderAuto:
		if cfg.GeminiKey == "" && cfg.GroqKey == "" && cfg.OpenAIKey == "" {
			return Config{}, fmt.Errorf("no provider credential set: one of GEMINI_API_KEY, GROQ_API_KEY, OPENAI_API_KEY is required")
		}
	default:
		return Config{}, fmt.Errorf("invalid PROVIDER: %q (expected auto|gemini|groq|openai|mock)", cfg.Provider)
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

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
