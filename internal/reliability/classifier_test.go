package reliability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fazal2204/superset-chatbot/internal/provider"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"rate limited", &provider.StatusError{Provider: "gemini", Code: 429}, KindRateLimited},
		{"wrapped rate limited", fmt.Errorf("call: %w", provider.ErrRateLimited), KindRateLimited},
		{"server error", &provider.StatusError{Provider: "groq", Code: 503}, KindTransient},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"auth failure", &provider.StatusError{Provider: "openai", Code: 401}, KindPermanent},
		{"arbitrary", errors.New("parse response: bad json"), KindPermanent},
		{"nil", nil, KindPermanent},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%s) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		if IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d should not be retryable", code)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(KindRateLimited) || !Retryable(KindTransient) {
		t.Fatalf("rate-limited and transient kinds should allow a retry")
	}
	if Retryable(KindPermanent) {
		t.Fatalf("permanent failures should not retry")
	}
}
