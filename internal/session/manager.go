// Package session composes the access guard, mutation client, realtime
// channel, and identity resolver into the single source of truth
// presentation code consumes. The manager holds the canonical Room and
// owns the reconciliation policy: every inbound payload is normalized and
// replaces the cell wholesale, most recently applied wins.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bidascore/bidascore-go/internal/access"
	"github.com/bidascore/bidascore-go/internal/api"
	"github.com/bidascore/bidascore-go/internal/identity"
	"github.com/bidascore/bidascore-go/internal/model"
	"github.com/bidascore/bidascore-go/internal/normalize"
	"github.com/bidascore/bidascore-go/internal/realtime"
)

// Sink receives the session's outward-facing signals. Implementations
// must be safe to call from the realtime read goroutine.
type Sink interface {
	// RoomChanged delivers each newly applied canonical room.
	RoomChanged(room *model.Room)
	// Notify surfaces a user-facing notice.
	Notify(message string)
	// SessionEnded fires once when the session tears down.
	SessionEnded(roomID model.RoomID, reason string)
}

// NopSink discards all signals
type NopSink struct{}

func (NopSink) RoomChanged(*model.Room)          {}
func (NopSink) Notify(string)                    {}
func (NopSink) SessionEnded(model.RoomID, string) {}

// Manager is the room session controller for one room
type Manager struct {
	roomID   model.RoomID
	client   *api.Client
	guard    *access.Guard
	channel  *realtime.Channel
	resolver *identity.Resolver
	sink     Sink
	logger   *slog.Logger

	mu    sync.RWMutex
	room  *model.Room
	ident model.Identity
	ended bool
}

// NewManager wires a Manager from its collaborators. The realtime
// channel is handed in rather than shared globally, so the session owns
// its connection lifecycle.
func NewManager(
	roomID model.RoomID,
	client *api.Client,
	guard *access.Guard,
	channel *realtime.Channel,
	resolver *identity.Resolver,
	sink Sink,
	logger *slog.Logger,
) *Manager {
	if sink == nil {
		sink = NopSink{}
	}
	return &Manager{
		roomID:   roomID,
		client:   client,
		guard:    guard,
		channel:  channel,
		resolver: resolver,
		sink:     sink,
		logger:   logger,
	}
}

// Start resolves the actor identity and attempts the resume path: when a
// credential is persisted for this room the PIN transition runs
// automatically, so returning users skip manual entry. With no stored
// credential the guard is left in PIN entry and the caller decides
// between SubmitPIN and JoinAsViewer.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.ident = m.resolver.Resolve(ctx)
	m.mu.Unlock()

	room, err := m.guard.Resume(ctx)
	if err != nil {
		if api.IsAccessError(err) {
			// Stale credential already cleared by the guard; fall back
			// to PIN entry without failing the start.
			return nil
		}
		return err
	}
	if room == nil {
		return nil
	}

	m.begin(ctx, room)
	return nil
}

// SubmitPIN runs the guard's PIN transition and, on success, opens the
// session
func (m *Manager) SubmitPIN(ctx context.Context, pin string) error {
	room, err := m.guard.SubmitPIN(ctx, pin)
	if err != nil {
		return err
	}
	m.begin(ctx, room)
	return nil
}

// JoinAsViewer opens a read-only session with no credential
func (m *Manager) JoinAsViewer(ctx context.Context) error {
	room, err := m.guard.JoinAsViewer(ctx)
	if err != nil {
		return err
	}
	m.begin(ctx, room)
	return nil
}

// begin stores the initial room and opens the realtime subscription
func (m *Manager) begin(ctx context.Context, room *model.Room) {
	m.apply(room)
	m.channel.Connect(ctx, m.roomID, realtime.Handlers{
		RoomUpdated:  m.HandleRoomUpdated,
		RoomFinished: m.HandleRoomFinished,
	})
}

// Authorized reports whether the session may show the room
func (m *Manager) Authorized() bool {
	return m.guard.Authorized()
}

// ReadOnly reports whether the session lacks mutation rights
func (m *Manager) ReadOnly() bool {
	return !m.guard.CanWrite()
}

// Room returns the canonical room, or nil before the initial load
func (m *Manager) Room() *model.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.room
}

// Identity returns the resolved actor identity
func (m *Manager) Identity() model.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ident
}

// ShouldPromptClaim reports whether the UI should prompt the user to
// claim a seat: read-write session, resolved identity owns no seat, and
// at least one seat is unclaimed. Recomputed from the current room and
// identity on every call.
func (m *Manager) ShouldPromptClaim() bool {
	if !m.guard.CanWrite() {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.room == nil || m.ident.IsZero() {
		return false
	}
	return m.room.SeatOf(m.ident) == nil && m.room.HasOpenSeat()
}

// Winner returns the card-mode winner once a dealt hand has emptied, or
// nil while the match is open
func (m *Manager) Winner() *model.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.room == nil || m.room.Mode != model.ModeCard {
		return nil
	}
	return m.room.Winner()
}

// Resume silently re-fetches the room with the session's credential when
// the client regains the foreground, recovering whatever push events were
// missed while backgrounded. Errors are logged, never surfaced, and the
// canonical room is left untouched on failure.
func (m *Manager) Resume(ctx context.Context) {
	if !m.guard.Authorized() {
		return
	}

	room, err := m.client.GetRoom(ctx, m.roomID, m.guard.PIN())
	if err != nil {
		m.logger.Debug("silent room refresh failed",
			slog.String("room_id", string(m.roomID)),
			slog.String("error", err.Error()))
		return
	}
	m.apply(room)
}

// Close tears the session down without finishing the room
func (m *Manager) Close() {
	m.mu.Lock()
	alreadyEnded := m.ended
	m.ended = true
	m.mu.Unlock()

	m.channel.Disconnect()
	if !alreadyEnded {
		m.sink.SessionEnded(m.roomID, "closed")
	}
}

// HandleRoomUpdated applies a pushed room payload. Wired into the
// realtime channel; exported so a push can be simulated in tests.
func (m *Manager) HandleRoomUpdated(raw []byte) {
	room, err := normalize.DecodeRoom(raw)
	if err != nil || room == nil {
		m.logger.Debug("dropped malformed room update")
		return
	}
	if room.ID != m.roomID {
		// Stale subscription from a previous room; drop silently.
		return
	}
	m.apply(room)
}

// HandleRoomFinished invalidates the session when the active room
// reports itself finished: the persisted credential for exactly this
// room is removed, the user is informed, and the session ends.
func (m *Manager) HandleRoomFinished(roomID model.RoomID) {
	if roomID != m.roomID {
		return
	}
	m.invalidate(context.Background(), "finished")
}

// apply replaces the canonical room. Most recently applied wins; there
// is no merge of concurrent partial updates and no sequencing of a push
// event racing an in-flight mutation response.
func (m *Manager) apply(room *model.Room) {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.room = room
	m.mu.Unlock()

	m.sink.RoomChanged(room)
}

func (m *Manager) invalidate(ctx context.Context, reason string) {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.ended = true
	m.mu.Unlock()

	m.guard.Invalidate(ctx)
	switch reason {
	case "finished":
		m.sink.Notify("match finished")
	case "access revoked":
		m.sink.Notify("room access was revoked")
	}
	m.sink.SessionEnded(m.roomID, reason)

	// Disconnect waits for the read loop to exit, and invalidate can be
	// reached from inside it.
	go m.channel.Disconnect()
}

// writeGate rejects mutations on sessions without write rights
func (m *Manager) writeGate() error {
	if !m.guard.CanWrite() {
		return model.ErrReadOnly
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.room == nil {
		return fmt.Errorf("session has no room loaded")
	}
	if m.room.Finished {
		return model.ErrRoomFinished
	}
	return nil
}
