package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fazal2204/superset-chatbot/internal/audit"
	"github.com/fazal2204/superset-chatbot/internal/chat"
	"github.com/fazal2204/superset-chatbot/internal/config"
	"github.com/fazal2204/superset-chatbot/internal/httpapi"
	"github.com/fazal2204/superset-chatbot/internal/knowledge"
	"github.com/fazal2204/superset-chatbot/internal/observability"
	"github.com/fazal2204/superset-chatbot/internal/provider"
	"github.com/fazal2204/superset-chatbot/internal/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	doc, err := knowledge.Document(cfg.KnowledgeFile)
	if err != nil {
		log.Fatalf("knowledge document error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := transcript.NewStore(ctx, cfg.DatabaseURL, cfg.HistoryMaxTurns)
	if err != nil {
		log.Fatalf("transcript store init failed: %v", err)
	}
	defer store.Close()

	completer, err := provider.New(cfg)
	if err != nil {
		log.Fatalf("provider init failed: %v", err)
	}
	log.Printf("completion provider: %s", completer.Name())

	auditLog, err := audit.Open(cfg.ChatLogFile)
	if err != nil {
		log.Fatalf("audit log init failed: %v", err)
	}
	defer auditLog.Close()

	svc := chat.NewService(
		store,
		completer,
		knowledge.SystemPrompt(doc),
		cfg.ProviderTimeout,
		cfg.ProviderRetry,
		auditLog,
		metrics,
	)

	api := httpapi.New(cfg, svc, metrics, activeModel(cfg))
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

// activeModel resolves the model id reported by /api/health. For auto mode
// it is the model of the preferred configured credential.
func activeModel(cfg config.Config) string {
	switch cfg.Provider {
	case config.ProviderGemini:
		return cfg.GeminiModel
	case config.ProviderGroq:
		return cfg.GroqModel
	case config.ProviderOpenAI:
		return cfg.OpenAIModel
	case config.ProviderMock:
		return "mock"
	default:
		if cfg.GeminiKey != "" {
			return cfg.GeminiModel
		}
		if cfg.GroqKey != "" {
			return cfg.GroqModel
		}
		return cfg.OpenAIModel
	}
}
