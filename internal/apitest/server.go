// Package apitest provides an in-process fake of the scoring backend for
// tests. It implements the REST contract the mutation client consumes,
// recomputes scores authoritatively, bumps room versions on every accepted
// mutation, and deliberately answers different endpoints with different
// response envelopes so the normalizer is exercised end to end.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/bidascore/bidascore-go/internal/dependencies/clock"
	"github.com/bidascore/bidascore-go/internal/model"
)

// Server is a fake scoring backend running on an httptest server
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	clock   clock.Clock
	rooms   map[model.RoomID]*roomState
	nextID  int
	started time.Time

	// requests counts every request that reached the backend, used to
	// assert that client-side validation blocked a call.
	requests int
}

// roomState pairs a room with its backend-only secrets
type roomState struct {
	room           model.Room
	pin            string
	initialDeck    int
	cardsPerPlayer int
}

// NewServer starts a fake backend. Close it with Server.Close.
func NewServer() *Server {
	return NewServerWithClock(clock.New())
}

// NewServerWithClock starts a fake backend stamping timestamps from the
// given clock
func NewServerWithClock(clk clock.Clock) *Server {
	s := &Server{
		clock:   clk,
		rooms:   make(map[model.RoomID]*roomState),
		started: clk.Now(),
	}

	r := mux.NewRouter()
	r.Use(s.countRequests)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rooms", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/rooms", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}/score", s.handleScore).Methods(http.MethodPatch)
	api.HandleFunc("/rooms/{id}/history/{historyID}", s.handleUndo).Methods(http.MethodDelete)
	api.HandleFunc("/rooms/{id}/finish", s.handleFinish).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/claim", s.handleClaim).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/draw", s.handleDraw).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/discard", s.handleDiscard).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/reset", s.handleReset).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	return s
}

// RequestCount returns how many requests reached the backend
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// SeedRoom installs a room with the given PIN and returns its id
func (s *Server) SeedRoom(room model.Room, pin string) model.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room.ID == "" {
		s.nextID++
		room.ID = model.RoomID(fmt.Sprintf("room-%d", s.nextID))
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = s.started
		room.UpdatedAt = s.started
	}

	st := &roomState{room: room, pin: pin, initialDeck: room.DeckRemaining}
	s.rooms[room.ID] = st
	return room.ID
}

// Room returns a copy of the room's current backend state
func (s *Server) Room(id model.RoomID) (model.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rooms[id]
	if !ok {
		return model.Room{}, false
	}
	return st.room, true
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes the backend's error envelope
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// lockedRoom looks up a room and verifies the write credential. The
// caller must hold s.mu.
func (s *Server) lockedRoom(w http.ResponseWriter, id string, pin string) *roomState {
	st, ok := s.rooms[model.RoomID(id)]
	if !ok {
		writeError(w, http.StatusNotFound, "room_not_found", "room not found")
		return nil
	}
	if pin != st.pin {
		writeError(w, http.StatusForbidden, "wrong_pin", "wrong or missing PIN")
		return nil
	}
	if st.room.Finished {
		writeError(w, http.StatusConflict, "room_finished", "room is finished")
		return nil
	}
	return st
}

func (s *Server) bump(st *roomState) {
	st.room.Version++
	st.room.UpdatedAt = s.clock.Now()
}
