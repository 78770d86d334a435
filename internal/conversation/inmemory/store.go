package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/telegrana/internal/conversation"
)

// Store is an in-memory implementation of conversation.StateStore.
// It is safe for concurrent use. Sessions are lost on restart and fall back
// to Idle.
type Store struct {
	mu     sync.RWMutex
	states map[string]conversation.State
}

// NewStore creates a new in-memory state store.
func NewStore() *Store {
	return &Store{
		states: make(map[string]conversation.State),
	}
}

// Get implements the StateStore interface.
func (s *Store) Get(ctx context.Context, sessionID string) (conversation.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.states[sessionID]
	if !exists {
		return conversation.Idle{}, nil
	}
	return conversation.Clone(state), nil
}

// Save implements the StateStore interface.
// Saving Idle drops the session entry.
func (s *Store) Save(ctx context.Context, sessionID string, state conversation.State) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if state == nil {
		return fmt.Errorf("state is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if state.Kind() == conversation.KindIdle {
		delete(s.states, sessionID)
		return nil
	}
	s.states[sessionID] = conversation.Clone(state)
	return nil
}

// Delete implements the StateStore interface.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, sessionID)
	return nil
}

// Len returns the number of sessions not in Idle.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Ensure Store implements StateStore interface.
var _ conversation.StateStore = (*Store)(nil)
