package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":5050" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":5050")
	}
	if cfg.Provider != ProviderAuto {
		t.Fatalf("Provider = %q, want %q", cfg.Provider, ProviderAuto)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("GeminiModel = %q, want default", cfg.GeminiModel)
	}
	if cfg.HistoryMaxTurns != 12 {
		t.Fatalf("HistoryMaxTurns = %d, want 12", cfg.HistoryMaxTurns)
	}
	if !cfg.ProviderRetry {
		t.Fatalf("ProviderRetry = false, want true by default")
	}
}

func TestLoadFailsWithoutAnyCredential(t *testing.T) {
	setCoreEnvEmpty(t)

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail when no provider credential is set")
	}
}

func TestLoadFailsWhenExplicitProviderMissingKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("PROVIDER", "groq")
	t.Setenv("GEMINI_API_KEY", "unused")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail for PROVIDER=groq without GROQ_API_KEY")
	}
}

func TestLoadMockNeedsNoCredential(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("PROVIDER", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider != ProviderMock {
		t.Fatalf("Provider = %q, want %q", cfg.Provider, ProviderMock)
	}
}

func TestLoadRejectsTinyHistoryCap(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("APP_HISTORY_MAX_TURNS", "2")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject APP_HISTORY_MAX_TURNS=2")
	}
}

func TestLoadExplicitPortAndOrigin(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "8181")
	t.Setenv("FRONTEND_ORIGIN", "https://fazal2204.github.io")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8181" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8181")
	}
	if cfg.FrontendOrigin != "https://fazal2204.github.io" {
		t.Fatalf("FrontendOrigin = %q, want explicit value", cfg.FrontendOrigin)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"PROVIDER",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"GROQ_API_KEY",
		"GROQ_MODEL",
		"OPENAI_API_KEY",
		"OPENAI_MODEL",
		"FRONTEND_ORIGIN",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_PROVIDER_TIMEOUT",
		"APP_PROVIDER_RETRY",
		"APP_HISTORY_MAX_TURNS",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"CHAT_LOG_FILE",
		"KNOWLEDGE_FILE",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
