// Package memory provides an in-process conversation store.
package memory

import (
	"context"
	"sync"

	"github.com/flookyhq/flooky-tools/internal/adapter/convstore"
	"github.com/flookyhq/flooky-tools/internal/domain"
)

// Store keeps conversations in a map guarded by a mutex. Suitable for a
// single instance; use the redis or postgres backends when the service
// runs replicated.
type Store struct {
	mu         sync.RWMutex
	maxHistory int
	convs      map[string][]domain.Message
}

// New constructs a Store with the given history cap.
func New(maxHistory int) *Store {
	return &Store{
		maxHistory: maxHistory,
		convs:      map[string][]domain.Message{},
	}
}

// History returns a copy of the conversation for sessionID. Unknown
// sessions yield an empty history, not an error.
func (s *Store) History(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.convs[sessionID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Append adds msgs to the conversation and applies the history cap.
func (s *Store) Append(_ context.Context, sessionID string, msgs ...domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := append(s.convs[sessionID], msgs...)
	s.convs[sessionID] = convstore.Trim(conv, s.maxHistory)
	return nil
}

// Reset discards the conversation for sessionID.
func (s *Store) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, sessionID)
	return nil
}
