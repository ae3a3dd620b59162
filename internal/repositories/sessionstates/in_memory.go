package sessionstates

import (
	"context"
	"sync"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

type inMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*entities.SessionState
}

// NewInMemoryStore creates a new in-memory session state store
func NewInMemoryStore() Store {
	return &inMemoryStore{
		states: make(map[string]*entities.SessionState),
	}
}

func (s *inMemoryStore) Save(ctx context.Context, state *entities.SessionState) error {
	if state == nil || state.SessionID == "" {
		return dnderr.InvalidArgument("session state needs a session ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.SessionID] = state.Clone()
	return nil
}

func (s *inMemoryStore) Load(ctx context.Context, sessionID string) (*entities.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[sessionID]
	if !ok {
		return nil, dnderr.NotFoundf("session state not found: %s", sessionID)
	}
	return state.Clone(), nil
}

func (s *inMemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}
