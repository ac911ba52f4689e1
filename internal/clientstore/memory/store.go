package memory

import (
	"context"
	"sync"

	"github.com/bidascore/bidascore-go/internal/clientstore"
	"github.com/bidascore/bidascore-go/internal/model"
)

// Store is an in-memory implementation of the client store, used in tests
// and for sessions that should not persist credentials
type Store struct {
	mu         sync.RWMutex
	pins       map[model.RoomID]string
	guestToken string
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		pins: make(map[model.RoomID]string),
	}
}

// Ensure Store implements the interface
var _ clientstore.Store = (*Store)(nil)

func (s *Store) GetPIN(ctx context.Context, roomID model.RoomID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pin, ok := s.pins[roomID]
	if !ok {
		return "", clientstore.ErrNotFound
	}
	return pin, nil
}

func (s *Store) SavePIN(ctx context.Context, roomID model.RoomID, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[roomID] = pin
	return nil
}

func (s *Store) DeletePIN(ctx context.Context, roomID model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pins, roomID)
	return nil
}

func (s *Store) GetGuestToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.guestToken == "" {
		return "", clientstore.ErrNotFound
	}
	return s.guestToken, nil
}

func (s *Store) SaveGuestToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestToken = token
	return nil
}
