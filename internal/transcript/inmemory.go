package transcript

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned by Append for an id GetOrCreate never saw.
var ErrSessionNotFound = errors.New("session not found")

// MemoryStore is the default in-process store. All sessions are lost on
// restart, matching the deployment this service replaces.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
}

// NewMemoryStore creates a store trimming each session to maxTurns entries
// (0 = unbounded).
func NewMemoryStore(maxTurns int) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Turn),
		maxTurns: maxTurns,
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID, systemPrompt string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[sessionID]
	if !ok {
		system := NewTurn(RoleSystem, systemPrompt)
		system.ID = uuid.NewString()
		turns = []Turn{system}
		s.sessions[sessionID] = turns
	}
	return cloneTurns(turns), nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	for _, t := range turns {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		existing = append(existing, t)
	}
	existing = trim(existing, s.maxTurns)
	s.sessions[sessionID] = existing
	return cloneTurns(existing), nil
}

func (s *MemoryStore) SessionCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
