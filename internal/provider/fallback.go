package provider

import (
	"context"
	"errors"
	"fmt"
)

// Fallback attempts a primary provider first and falls back on error.
// Context cancellation is never retried against the secondary: the caller
// already gave up.
type Fallback struct {
	primary   Provider
	secondary Provider
}

func NewFallback(primary, secondary Provider) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Name() string {
	return fmt.Sprintf("%s+%s", f.primary.Name(), f.secondary.Name())
}

func (f *Fallback) Complete(ctx context.Context, req Request) (Result, error) {
	res, err := f.primary.Complete(ctx, req)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Result{}, err
	}

	fallbackRes, fallbackErr := f.secondary.Complete(ctx, req)
	if fallbackErr != nil {
		return Result{}, fmt.Errorf("primary provider error: %w; fallback provider error: %v", err, fallbackErr)
	}
	return fallbackRes, nil
}
