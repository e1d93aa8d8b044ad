package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

var _ ports.IdempotencyStore = (*Store)(nil)

// Store keeps order creation responses so retried requests replay the first answer.
type Store struct {
	mu        sync.RWMutex
	responses map[string]ports.StoredResponse
}

func NewStore() *Store {
	return &Store{responses: make(map[string]ports.StoredResponse)}
}

// Get returns nil without error when the key was never seen.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	response, ok := s.responses[key]
	if !ok {
		return nil, nil
	}
	response.Body = append([]byte(nil), response.Body...)
	return &response, nil
}

// Save keeps the first response stored for a key.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.responses[key]; exists {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.responses[key] = response
	return nil
}
