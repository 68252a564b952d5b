// Package chat implements the request-handling core: validate, resolve the
// session transcript, call the completion provider, append the reply.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fazal2204/superset-chatbot/internal/audit"
	"github.com/fazal2204/superset-chatbot/internal/observability"
	"github.com/fazal2204/superset-chatbot/internal/provider"
	"github.com/fazal2204/superset-chatbot/internal/reliability"
	"github.com/fazal2204/superset-chatbot/internal/transcript"
)

// FallbackReply is returned when the provider produces an empty reply.
const FallbackReply = "Sorry, I could not generate a response."

// Reply is a successful exchange result.
type Reply struct {
	Text  string `json:"reply"`
	Model string `json:"model,omitempty"`
}

// Service wires the transcript store and completion provider together.
type Service struct {
	store        transcript.Store
	provider     provider.Provider
	systemPrompt string
	timeout      time.Duration
	retry        bool
	auditLog     *audit.Logger
	metrics      *observability.Metrics

	// retryDelay is fixed; variable only so tests do not sleep.
	retryDelay time.Duration
}

func NewService(
	store transcript.Store,
	p provider.Provider,
	systemPrompt string,
	timeout time.Duration,
	retry bool,
	auditLog *audit.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		store:        store,
		provider:     p,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		retry:        retry,
		auditLog:     auditLog,
		metrics:      metrics,
		retryDelay:   reliability.RetryDelay,
	}
}

// ProviderName reports the active provider for health metadata.
func (s *Service) ProviderName() string { return s.provider.Name() }

// SessionCount reports the store's current session count.
func (s *Service) SessionCount(ctx context.Context) int {
	count, err := s.store.SessionCount(ctx)
	if err != nil {
		return 0
	}
	return count
}

// Handle runs one chat exchange. Validation failures have no side effects;
// provider failures are absorbed into the error taxonomy and never crash the
// process. The reply is never empty on success.
func (s *Service) Handle(ctx context.Context, sessionID, message string) (Reply, error) {
	start := time.Now()
	reply, err := s.handle(ctx, sessionID, message)
	s.metrics.ObserveRequestLatency(time.Since(start))
	s.metrics.ChatRequests.WithLabelValues(outcomeLabel(err)).Inc()
	return reply, err
}

func (s *Service) handle(ctx context.Context, sessionID, message string) (Reply, error) {
	sessionID = strings.TrimSpace(sessionID)
	message = strings.TrimSpace(message)
	if sessionID == "" || message == "" {
		return Reply{}, badRequest("message and sessionId are required")
	}

	if _, err := s.store.GetOrCreate(ctx, sessionID, s.systemPrompt); err != nil {
		return Reply{}, internal("Failed to load conversation", err)
	}

	turns, err := s.store.Append(ctx, sessionID, transcript.NewTurn(transcript.RoleUser, message))
	if err != nil {
		return Reply{}, internal("Failed to record message", err)
	}

	result, err := s.complete(ctx, provider.Request{SessionID: sessionID, Turns: turns})
	if err != nil {
		if errors.Is(err, provider.ErrEmptyReply) {
			result = provider.Result{Text: FallbackReply}
		} else if upstreamUnavailable(err) {
			return Reply{}, unavailable(err)
		} else {
			return Reply{}, internal("Failed to generate response", err)
		}
	}
	if strings.TrimSpace(result.Text) == "" {
		result.Text = FallbackReply
	}

	if _, err := s.store.Append(ctx, sessionID, transcript.NewTurn(transcript.RoleAssistant, result.Text)); err != nil {
		return Reply{}, internal("Failed to record response", err)
	}

	if err := s.auditLog.Exchange(sessionID, message, result.Text); err != nil {
		// Audit is best effort: count it and move on.
		s.metrics.AuditWriteErrors.Inc()
	}

	if count, err := s.store.SessionCount(ctx); err == nil {
		s.metrics.Sessions.Set(float64(count))
	}

	return Reply{Text: result.Text, Model: result.Model}, nil
}

// complete calls the provider under the configured timeout, retrying once on
// a retryable failure. The call runs on a context detached from the request:
// a client hanging up does not abort an exchange already in flight.
func (s *Service) complete(ctx context.Context, req provider.Request) (provider.Result, error) {
	attempts := 1
	if s.retry {
		attempts = 2
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryDelay)
		}

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		start := time.Now()
		result, err := s.provider.Complete(callCtx, req)
		cancel()
		s.metrics.ObserveProviderLatency(time.Since(start))

		if err == nil {
			return result, nil
		}
		lastErr = err

		kind := reliability.Classify(err)
		s.metrics.ProviderErrors.WithLabelValues(s.provider.Name(), string(kind)).Inc()
		if errors.Is(err, provider.ErrEmptyReply) || !reliability.Retryable(kind) {
			break
		}
	}
	return provider.Result{}, lastErr
}

// upstreamUnavailable reports failures worth a user-facing "try again":
// rate limiting and transient upstream 5xx responses. Timeouts and network
// failures stay internal; the upstream never told us to come back.
func upstreamUnavailable(err error) bool {
	switch reliability.Classify(err) {
	case reliability.KindRateLimited:
		return true
	case reliability.KindTransient:
		var statusErr *provider.StatusError
		return errors.As(err, &statusErr)
	default:
		return false
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return string(chatErr.Kind)
	}
	return string(KindInternal)
}
