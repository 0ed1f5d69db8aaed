package presence

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used when no Redis is configured and in
// tests.
type MemoryStore struct {
	mu      sync.Mutex
	signals map[string]map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{signals: make(map[string]map[string]time.Time)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) SetTyping(_ context.Context, conversationID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.signals[conversationID]
	if !ok {
		byUser = make(map[string]time.Time)
		s.signals[conversationID] = byUser
	}
	byUser[userID] = at
	return nil
}

func (s *MemoryStore) ClearTyping(_ context.Context, conversationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.signals[conversationID]
	if !ok {
		return nil
	}
	delete(byUser, userID)
	if len(byUser) == 0 {
		delete(s.signals, conversationID)
	}
	return nil
}

func (s *MemoryStore) ActiveTypers(_ context.Context, conversationID string, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser := s.signals[conversationID]
	typers := make([]string, 0, len(byUser))
	for userID, at := range byUser {
		if now.Sub(at) < StaleAfter {
			typers = append(typers, userID)
		}
	}
	sort.Strings(typers)
	return typers, nil
}
