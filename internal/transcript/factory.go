package transcript

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed store when configured, otherwise the
// default in-process store.
func NewStore(ctx context.Context, databaseURL string, maxTurns int) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryStore(maxTurns), nil
	}
	return NewPostgresStore(ctx, databaseURL, maxTurns)
}
