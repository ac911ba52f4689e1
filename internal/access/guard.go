// Package access gates room visibility behind a 4-digit PIN or an
// explicit read-only viewer path, and owns the per-room persisted
// credential.
package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/bidascore/bidascore-go/internal/api"
	"github.com/bidascore/bidascore-go/internal/clientstore"
	"github.com/bidascore/bidascore-go/internal/model"
)

// State is the guard's position in its authorization state machine
type State string

const (
	// StateLocked is the initial state before any attempt
	StateLocked State = "locked"
	// StatePinEntry is reached after a failed or pending PIN attempt
	StatePinEntry State = "pin_entry"
	// StateReadWrite grants full mutation rights
	StateReadWrite State = "read_write"
	// StateViewer grants read-only access
	StateViewer State = "viewer"
)

// MinPINLength is the shortest PIN accepted for submission
const MinPINLength = 4

// Guard is the access state machine for one room. State transitions can
// arrive from the caller's goroutine and from the realtime read goroutine
// (session invalidation), so state and pin are mutex-guarded.
type Guard struct {
	roomID model.RoomID
	client *api.Client
	store  clientstore.Store
	logger *slog.Logger

	mu    sync.Mutex
	state State
	pin   string
}

// NewGuard creates a Guard for the given room, starting locked
func NewGuard(roomID model.RoomID, client *api.Client, store clientstore.Store, logger *slog.Logger) *Guard {
	return &Guard{
		roomID: roomID,
		client: client,
		store:  store,
		logger: logger,
		state:  StateLocked,
	}
}

// State returns the guard's current state
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CanWrite reports whether the session holds mutation rights
func (g *Guard) CanWrite() bool {
	return g.State() == StateReadWrite
}

// Authorized reports whether the room may be shown at all
func (g *Guard) Authorized() bool {
	state := g.State()
	return state == StateReadWrite || state == StateViewer
}

// PIN returns the credential of the current read-write session, or empty
func (g *Guard) PIN() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pin
}

// setState installs a transition. Kept separate so no network or store
// call ever runs under the lock.
func (g *Guard) setState(state State, pin string) {
	g.mu.Lock()
	g.state = state
	g.pin = pin
	g.mu.Unlock()
}

// SanitizePIN strips everything but digits from raw input
func SanitizePIN(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SubmitPIN attempts the PIN transition. Inputs shorter than four digits
// are rejected before any request is sent. On success the PIN is
// persisted under the room's key and the guard becomes read-write; a
// rejected PIN clears any persisted credential for this room and leaves
// the guard in PIN entry. A room that reports itself finished yields a
// read-only session regardless of the credential.
func (g *Guard) SubmitPIN(ctx context.Context, raw string) (*model.Room, error) {
	pin := SanitizePIN(raw)
	if len(pin) < MinPINLength {
		return nil, model.ErrPINTooShort
	}

	room, err := g.client.GetRoom(ctx, g.roomID, pin)
	if err != nil {
		if api.IsAccessError(err) {
			g.setState(StatePinEntry, "")
			g.clearStoredPIN(ctx)
		}
		// Transient failures leave guard state and credential untouched.
		return nil, err
	}

	if room.Finished {
		g.setState(StateViewer, "")
		g.clearStoredPIN(ctx)
		return room, nil
	}

	g.setState(StateReadWrite, pin)
	if err := g.store.SavePIN(ctx, g.roomID, pin); err != nil {
		g.logger.Warn("could not persist room PIN",
			slog.String("room_id", string(g.roomID)),
			slog.String("error", err.Error()))
	}
	return room, nil
}

// JoinAsViewer loads the room read-only with an empty credential.
// Nothing is persisted.
func (g *Guard) JoinAsViewer(ctx context.Context) (*model.Room, error) {
	room, err := g.client.GetRoom(ctx, g.roomID, "")
	if err != nil {
		return nil, err
	}
	g.setState(StateViewer, "")
	return room, nil
}

// Resume attempts the persisted PIN before prompting, so returning users
// skip manual entry. It returns (nil, nil) when no credential is stored;
// the caller should then fall back to PIN entry or the viewer path.
func (g *Guard) Resume(ctx context.Context) (*model.Room, error) {
	pin, err := g.store.GetPIN(ctx, g.roomID)
	if err != nil {
		if !errors.Is(err, clientstore.ErrNotFound) {
			g.logger.Warn("could not read stored room PIN",
				slog.String("room_id", string(g.roomID)),
				slog.String("error", err.Error()))
		}
		g.setState(StatePinEntry, "")
		return nil, nil
	}
	return g.SubmitPIN(ctx, pin)
}

// Invalidate drops the session's credential and the persisted copy.
// Called when the room finishes.
func (g *Guard) Invalidate(ctx context.Context) {
	g.setState(StateViewer, "")
	g.clearStoredPIN(ctx)
}

func (g *Guard) clearStoredPIN(ctx context.Context) {
	if err := g.store.DeletePIN(ctx, g.roomID); err != nil {
		g.logger.Warn("could not clear stored room PIN",
			slog.String("room_id", string(g.roomID)),
			slog.String("error", err.Error()))
	}
}
