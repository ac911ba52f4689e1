// Package file persists client state as a JSON file in the user's state
// directory, so PINs and the guest token survive process restarts on the
// same device.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/bidascore/bidascore-go/internal/clientstore"
	"github.com/bidascore/bidascore-go/internal/model"
)

// Store is a file-backed implementation of the client store
type Store struct {
	mu   sync.Mutex
	path string
}

// state is the on-disk shape of the store
type state struct {
	PINs       map[model.RoomID]string `json:"pins"`
	GuestToken string                  `json:"guest_token,omitempty"`
}

// New creates a file store at the given path. The parent directory is
// created on first write.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the conventional state file location under the
// user's home directory
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".bidascore", "state.json")
	}
	return filepath.Join(home, ".bidascore", "state.json")
}

// Ensure Store implements the interface
var _ clientstore.Store = (*Store)(nil)

func (s *Store) GetPIN(ctx context.Context, roomID model.RoomID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", err
	}
	pin, ok := st.PINs[roomID]
	if !ok {
		return "", clientstore.ErrNotFound
	}
	return pin, nil
}

func (s *Store) SavePIN(ctx context.Context, roomID model.RoomID, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	st.PINs[roomID] = pin
	return s.save(st)
}

func (s *Store) DeletePIN(ctx context.Context, roomID model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	delete(st.PINs, roomID)
	return s.save(st)
}

func (s *Store) GetGuestToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", err
	}
	if st.GuestToken == "" {
		return "", clientstore.ErrNotFound
	}
	return st.GuestToken, nil
}

func (s *Store) SaveGuestToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	st.GuestToken = token
	return s.save(st)
}

func (s *Store) load() (*state, error) {
	st := &state{PINs: make(map[model.RoomID]string)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, st); err != nil {
		return nil, err
	}
	if st.PINs == nil {
		st.PINs = make(map[model.RoomID]string)
	}
	return st, nil
}

func (s *Store) save(st *state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}
