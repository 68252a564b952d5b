// Package reliability classifies provider failures so the request boundary
// can map them onto user-facing error semantics and decide whether a retry
// is worthwhile.
package reliability

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/fazal2204/superset-chatbot/internal/provider"
)

// Kind buckets a provider failure.
type Kind string

const (
	// KindRateLimited: upstream shed load; safe to tell the user to retry.
	KindRateLimited Kind = "rate_limited"
	// KindTransient: timeouts and 5xx-class conditions; one retry may help.
	KindTransient Kind = "transient"
	// KindPermanent: auth failures, malformed responses, everything else.
	KindPermanent Kind = "permanent"
)

// RetryDelay is the fixed pause before the single bounded retry. No backoff:
// one attempt, one delay.
const RetryDelay = 500 * time.Millisecond

// Classify buckets err. Context cancellation and deadline expiry count as
// transient: the per-call timeout fired, not the whole request.
func Classify(err error) Kind {
	if err == nil {
		return KindPermanent
	}
	if errors.Is(err, provider.ErrRateLimited) {
		return KindRateLimited
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) && IsRetryableHTTPStatus(statusErr.Code) {
		return KindTransient
	}

	return KindPermanent
}

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Retryable reports whether a single retry is allowed for this kind.
func Retryable(kind Kind) bool {
	return kind == KindRateLimited || kind == KindTransient
}
