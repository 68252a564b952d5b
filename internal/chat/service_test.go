package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fazal2204/superset-chatbot/internal/audit"
	"github.com/fazal2204/superset-chatbot/internal/observability"
	"github.com/fazal2204/superset-chatbot/internal/provider"
	"github.com/fazal2204/superset-chatbot/internal/transcript"
)

type fakeProvider struct {
	calls   int
	replies []provider.Result
	errs    []error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(_ context.Context, _ provider.Request) (provider.Result, error) {
	i := p.calls
	p.calls++
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	var res provider.Result
	if i < len(p.replies) {
		res = p.replies[i]
	}
	return res, err
}

// blockingProvider waits for the per-call deadline instead of answering.
type blockingProvider struct{}

func (p *blockingProvider) Name() string { return "blocking" }

func (p *blockingProvider) Complete(ctx context.Context, _ provider.Request) (provider.Result, error) {
	<-ctx.Done()
	return provider.Result{}, ctx.Err()
}

// cancelAwareProvider fails if the call context it receives is already done.
type cancelAwareProvider struct{}

func (p *cancelAwareProvider) Name() string { return "cancelaware" }

func (p *cancelAwareProvider) Complete(ctx context.Context, _ provider.Request) (provider.Result, error) {
	select {
	case <-ctx.Done():
		return provider.Result{}, ctx.Err()
	default:
		return provider.Result{Text: "still here", Model: "fake-1"}, nil
	}
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetrics(fmt.Sprintf("test_chat_%d", time.Now().UnixNano()))
}

func newTestService(store transcript.Store, p provider.Provider) *Service {
	svc := NewService(store, p, "system prompt", time.Second, true, nil, newTestMetrics())
	svc.retryDelay = 0
	return svc
}

func TestHandleFirstMessageShapesTranscript(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{replies: []provider.Result{{Text: "30 days.", Model: "fake-1"}}}
	svc := newTestService(store, p)

	reply, err := svc.Handle(context.Background(), "s1", "How long?")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if reply.Text != "30 days." || reply.Model != "fake-1" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	turns, err := store.GetOrCreate(context.Background(), "s1", "system prompt")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	wantRoles := []transcript.Role{transcript.RoleSystem, transcript.RoleUser, transcript.RoleAssistant}
	if len(turns) != len(wantRoles) {
		t.Fatalf("transcript has %d turns, want %d", len(turns), len(wantRoles))
	}
	for i, role := range wantRoles {
		if turns[i].Role != role {
			t.Fatalf("turn %d role = %q, want %q", i, turns[i].Role, role)
		}
	}
	if turns[0].Content != "system prompt" {
		t.Fatalf("system turn content = %q", turns[0].Content)
	}
}

func TestHandleValidationHasNoSideEffects(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{}
	svc := newTestService(store, p)

	for _, tc := range []struct{ sessionID, message string }{
		{"", "hello"},
		{"s1", ""},
		{"s1", "   "},
	} {
		_, err := svc.Handle(context.Background(), tc.sessionID, tc.message)
		var chatErr *Error
		if !errors.As(err, &chatErr) || chatErr.Kind != KindBadRequest {
			t.Fatalf("Handle(%q, %q) error = %v, want bad request", tc.sessionID, tc.message, err)
		}
	}

	if p.calls != 0 {
		t.Fatalf("provider called %d times on invalid input, want 0", p.calls)
	}
	count, _ := store.SessionCount(context.Background())
	if count != 0 {
		t.Fatalf("store holds %d sessions after invalid requests, want 0", count)
	}
}

func TestHandleSubstitutesFallbackForEmptyReply(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{replies: []provider.Result{{Text: "   "}}}
	svc := newTestService(store, p)

	reply, err := svc.Handle(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if reply.Text != FallbackReply {
		t.Fatalf("reply = %q, want fallback", reply.Text)
	}
}

func TestHandleTreatsEmptyReplyErrorAsFallback(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{errs: []error{fmt.Errorf("gemini: %w", provider.ErrEmptyReply)}}
	svc := newTestService(store, p)

	reply, err := svc.Handle(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if reply.Text != FallbackReply {
		t.Fatalf("reply = %q, want fallback", reply.Text)
	}
	if p.calls != 1 {
		t.Fatalf("empty-reply error should not retry, got %d calls", p.calls)
	}
}

func TestHandleRateLimitMapsToUnavailable(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	rateLimit := &provider.StatusError{Provider: "fake", Code: 429, Body: "slow down"}
	p := &fakeProvider{errs: []error{rateLimit, rateLimit}}
	svc := newTestService(store, p)

	_, err := svc.Handle(context.Background(), "s1", "hello")
	var chatErr *Error
	if !errors.As(err, &chatErr) || chatErr.Kind != KindUnavailable {
		t.Fatalf("Handle() error = %v, want unavailable", err)
	}
	// Retry enabled: both attempts consumed.
	if p.calls != 2 {
		t.Fatalf("provider called %d times, want 2", p.calls)
	}
}

func TestHandleUpstreamOutageMapsToUnavailable(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	outage := &provider.StatusError{Provider: "fake", Code: 503, Body: "upstream overloaded"}
	p := &fakeProvider{errs: []error{outage, outage}}
	svc := newTestService(store, p)

	_, err := svc.Handle(context.Background(), "s1", "hello")
	var chatErr *Error
	if !errors.As(err, &chatErr) || chatErr.Kind != KindUnavailable {
		t.Fatalf("Handle() error = %v, want unavailable for upstream 503", err)
	}
	if p.calls != 2 {
		t.Fatalf("provider called %d times, want retry before giving up", p.calls)
	}
}

func TestHandleProviderTimeoutIsInternal(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &blockingProvider{}
	svc := NewService(store, p, "system prompt", 50*time.Millisecond, false, nil, newTestMetrics())

	start := time.Now()
	_, err := svc.Handle(context.Background(), "s1", "hello")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Handle() took %v, timeout did not cut the call off", elapsed)
	}

	var chatErr *Error
	if !errors.As(err, &chatErr) || chatErr.Kind != KindInternal {
		t.Fatalf("Handle() error = %v, want internal for provider timeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Handle() error = %v, want wrapped deadline exceeded", err)
	}
}

func TestHandleDetachedFromCallerCancellation(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &cancelAwareProvider{}
	svc := newTestService(store, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := svc.Handle(ctx, "s1", "hello")
	if err != nil {
		t.Fatalf("Handle() error = %v, want exchange to finish despite canceled caller", err)
	}
	if reply.Text != "still here" {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestHandleRetriesTransientThenSucceeds(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{
		errs:    []error{&provider.StatusError{Provider: "fake", Code: 503}, nil},
		replies: []provider.Result{{}, {Text: "recovered"}},
	}
	svc := newTestService(store, p)

	reply, err := svc.Handle(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if reply.Text != "recovered" {
		t.Fatalf("reply = %q, want %q", reply.Text, "recovered")
	}
}

func TestHandlePermanentFailureDoesNotRetry(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{errs: []error{&provider.StatusError{Provider: "fake", Code: 401}}}
	svc := newTestService(store, p)

	_, err := svc.Handle(context.Background(), "s1", "hello")
	var chatErr *Error
	if !errors.As(err, &chatErr) || chatErr.Kind != KindInternal {
		t.Fatalf("Handle() error = %v, want internal", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times, want 1", p.calls)
	}
	if chatErr.Detail == "" {
		t.Fatalf("internal error should carry diagnostic detail")
	}
}

func TestHandleServiceSurvivesFailureAcrossRequests(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{
		errs:    []error{errors.New("boom"), nil},
		replies: []provider.Result{{}, {Text: "fine now"}},
	}
	svc := newTestService(store, p)

	if _, err := svc.Handle(context.Background(), "s1", "first"); err == nil {
		t.Fatalf("first request should fail")
	}
	reply, err := svc.Handle(context.Background(), "s2", "second")
	if err != nil {
		t.Fatalf("second request error = %v", err)
	}
	if reply.Text != "fine now" {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestHandleGrowsTranscriptByTwoPerCall(t *testing.T) {
	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{replies: []provider.Result{{Text: "a1"}, {Text: "a2"}, {Text: "a3"}}}
	svc := newTestService(store, p)

	for i := 1; i <= 3; i++ {
		if _, err := svc.Handle(context.Background(), "s1", "q"); err != nil {
			t.Fatalf("Handle() #%d error = %v", i, err)
		}
		turns, _ := store.GetOrCreate(context.Background(), "s1", "system prompt")
		want := 1 + 2*i
		if len(turns) != want {
			t.Fatalf("after call %d transcript has %d turns, want %d", i, len(turns), want)
		}
	}
}

func TestHandleWritesAuditLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	logger, err := audit.Open(path)
	if err != nil {
		t.Fatalf("audit.Open() error = %v", err)
	}
	defer logger.Close()

	store := transcript.NewMemoryStore(0)
	p := &fakeProvider{replies: []provider.Result{{Text: "30 days."}}}
	svc := NewService(store, p, "system prompt", time.Second, false, logger, newTestMetrics())

	if _, err := svc.Handle(context.Background(), "s1", "How long?"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if !strings.Contains(string(data), "session=s1") || !strings.Contains(string(data), "30 days.") {
		t.Fatalf("audit line missing exchange: %q", string(data))
	}
}
