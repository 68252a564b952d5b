// Package provider abstracts hosted completion APIs behind a single
// turns-in, text-out interface. Swapping providers changes only the adapter;
// the chat service never branches on provider identity.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/fazal2204/superset-chatbot/internal/config"
	"github.com/fazal2204/superset-chatbot/internal/transcript"
)

// Request carries the full session transcript to a provider.
type Request struct {
	SessionID string
	Turns     []transcript.Turn
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens   int `json:"prompt_tokens"`
	ResponseTokens int `json:"response_tokens"`
	TotalTokens    int `json:"total_tokens"`
}

// Result is a provider's normalized reply.
type Result struct {
	Text  string
	Model string
	Usage Usage
}

// Provider generates a reply for a transcript.
type Provider interface {
	Complete(ctx context.Context, req Request) (Result, error)
	Name() string
}

// ErrRateLimited marks 429-class upstream responses.
var ErrRateLimited = errors.New("provider rate limited")

// ErrEmptyReply marks a well-formed provider response with no usable text.
var ErrEmptyReply = errors.New("provider returned empty reply")

// StatusError carries a non-2xx upstream status and a truncated body for
// diagnostics. Body content is provider-specific and not stable.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == 429 {
		return ErrRateLimited
	}
	return nil
}

// New builds the configured provider. Explicit modes map to one adapter;
// auto chains an adapter per configured credential through Fallback so a
// transient failure on the preferred provider does not fail the request.
func New(cfg config.Config) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGemini(cfg.GeminiKey, cfg.GeminiModel), nil
	case config.ProviderGroq:
		return NewGroq(cfg.GroqKey, cfg.GroqModel), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel), nil
	case config.ProviderMock:
		return NewMock(), nil
	case config.ProviderAuto:
		var chain []Provider
		if cfg.GeminiKey != "" {
			chain = append(chain, NewGemini(cfg.GeminiKey, cfg.GeminiModel))
		}
		if cfg.GroqKey != "" {
			chain = append(chain, NewGroq(cfg.GroqKey, cfg.GroqModel))
		}
		if cfg.OpenAIKey != "" {
			chain = append(chain, NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel))
		}
		if len(chain) == 0 {
			return nil, errors.New("auto provider selection requires at least one credential")
		}
		p := chain[len(chain)-1]
		for i := len(chain) - 2; i >= 0; i-- {
			p = NewFallback(chain[i], p)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// splitPrompt separates the system turn from the conversational turns.
// Providers with structured system slots use both; the rest prepend the
// system text to the flattened conversation.
func splitPrompt(turns []transcript.Turn) (system string, rest []transcript.Turn) {
	for _, t := range turns {
		if t.Role == transcript.RoleSystem && system == "" {
			system = t.Content
			continue
		}
		rest = append(rest, t)
	}
	return system, rest
}
