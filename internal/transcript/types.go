package transcript

import (
	"context"
	"time"
)

// Role tags who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session transcript.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds per-session transcripts. Session ids are opaque strings chosen
// by the client; a session exists exactly when a prior GetOrCreate has been
// made for its id.
//
// Every implementation maintains the same invariants: one system turn,
// always first; appends are strictly ordered; sessions never observe each
// other's turns; trimming to a cap evicts oldest non-system turns and never
// the system turn.
type Store interface {
	// GetOrCreate returns the transcript for sessionID, seeding a new session
	// with a single system turn containing systemPrompt.
	GetOrCreate(ctx context.Context, sessionID, systemPrompt string) ([]Turn, error)

	// Append adds turns to an existing session and returns the resulting
	// transcript after any trimming. The session must have been established
	// by GetOrCreate first.
	Append(ctx context.Context, sessionID string, turns ...Turn) ([]Turn, error)

	// SessionCount reports how many sessions the store currently holds.
	SessionCount(ctx context.Context) (int, error)

	Close() error
}

// NewTurn builds a turn stamped with the current time.
func NewTurn(role Role, content string) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// trim enforces the retention cap on an ordered transcript. The system turn
// at index 0 survives unconditionally; eviction drops the oldest turns after
// it. maxTurns <= 0 means unbounded.
func trim(turns []Turn, maxTurns int) []Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	trimmed := make([]Turn, 0, maxTurns)
	trimmed = append(trimmed, turns[0])
	trimmed = append(trimmed, turns[len(turns)-(maxTurns-1):]...)
	return trimmed
}
