package session

import (
	"context"

	"github.com/bidascore/bidascore-go/internal/api"
	"github.com/bidascore/bidascore-go/internal/model"
)

// Mutations never touch the canonical room before the server answers.
// Each wrapper validates what it can locally, sends the request with the
// session credential, and applies the authoritative room from the
// response. A rejected or failed request leaves the cell unchanged.

// RecordSoloWin credits one rack to the given player in a head-to-head
// room
func (m *Manager) RecordSoloWin(ctx context.Context, winnerID model.PlayerID) error {
	if err := m.writeGate(); err != nil {
		return err
	}
	if err := m.requireMode(model.ModeSolo); err != nil {
		return err
	}

	room, err := m.client.UpdateSoloScore(ctx, m.roomID, m.guard.PIN(), winnerID)
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	return nil
}

// RecordPenalty applies one penalty scoring event: the scorer gains the
// event total once per loser, each loser pays it once
func (m *Manager) RecordPenalty(ctx context.Context, params api.PenaltyScoreParams) error {
	if err := m.writeGate(); err != nil {
		return err
	}
	if err := m.requireMode(model.ModePenalty); err != nil {
		return err
	}

	room, err := m.client.UpdatePenaltyScore(ctx, m.roomID, m.guard.PIN(), params)
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	return nil
}

// UndoLast removes the most recent history entry and applies the
// server's recomputed room
func (m *Manager) UndoLast(ctx context.Context) error {
	if err := m.writeGate(); err != nil {
		return err
	}

	m.mu.RLock()
	last := m.room.LastEntry()
	m.mu.RUnlock()
	if last == nil {
		return model.ErrHistoryEmpty
	}

	room, err := m.client.UndoScore(ctx, m.roomID, last.ID, m.guard.PIN())
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	return nil
}

// ClaimSeat binds the session identity to an unclaimed seat
func (m *Manager) ClaimSeat(ctx context.Context, playerID model.PlayerID) error {
	if err := m.writeGate(); err != nil {
		return err
	}

	m.mu.RLock()
	ident := m.ident
	seat := m.room.Player(playerID)
	m.mu.RUnlock()

	if seat == nil {
		return model.ErrSeatNotFound
	}
	if !seat.Unclaimed() {
		return model.ErrSeatTaken
	}

	room, err := m.client.ClaimSeat(ctx, m.roomID, playerID, ident)
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	return nil
}

// StartMatch deals opening hands in a card-mode room
func (m *Manager) StartMatch(ctx context.Context) error {
	if err := m.writeGate(); err != nil {
		return err
	}
	if err := m.requireMode(model.ModeCard); err != nil {
		return err
	}

	room, err := m.client.StartDeal(ctx, m.roomID, m.guard.PIN())
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	return nil
}

// Draw takes the top card of the deck into the given player's hand. The
// seat must belong to the session identity, the match must be open, and
// the deck non-empty; all three are checked before any request is sent.
func (m *Manager) Draw(ctx context.Context, playerID model.PlayerID) error {
	_, deck, err := m.cardActionGate(playerID)
	if err != nil {
		return err
	}
	if deck == 0 {
		return model.ErrDeckEmpty
	}

	room, err := m.client.DrawCard(ctx, m.roomID, playerID, m.identitySnapshot())
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	return nil
}

// Discard removes one card of the given value from the player's hand
func (m *Manager) Discard(ctx context.Context, playerID model.PlayerID, value int) error {
	seat, _, err := m.cardActionGate(playerID)
	if err != nil {
		return err
	}
	if !seat.HoldsValue(value) {
		return model.ErrCardNotHeld
	}

	room, err := m.client.DiscardCard(ctx, m.roomID, playerID, value, m.identitySnapshot())
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	return nil
}

// ResetMatch returns all cards to the deck and clears card history
func (m *Manager) ResetMatch(ctx context.Context) error {
	if err := m.writeGate(); err != nil {
		return err
	}
	if err := m.requireMode(model.ModeCard); err != nil {
		return err
	}

	room, err := m.client.ResetMatch(ctx, m.roomID, m.guard.PIN())
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	return nil
}

// Finish permanently closes the room, then invalidates the session
func (m *Manager) Finish(ctx context.Context) error {
	if err := m.writeGate(); err != nil {
		return err
	}

	room, err := m.client.FinishRoom(ctx, m.roomID, m.guard.PIN())
	if err != nil {
		return m.mutationErr(ctx, err)
	}
	m.apply(room)
	m.invalidate(ctx, "finished")
	return nil
}

// cardActionGate runs the shared preconditions for draw and discard:
// write rights, card mode, a dealt and undecided match, and a seat bound
// to the session identity. The seat and deck count are captured under a
// single lock hold so callers never re-read a room that a concurrent
// push may have replaced.
func (m *Manager) cardActionGate(playerID model.PlayerID) (*model.Player, int, error) {
	if err := m.writeGate(); err != nil {
		return nil, 0, err
	}
	if err := m.requireMode(model.ModeCard); err != nil {
		return nil, 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.room.Started() {
		return nil, 0, model.ErrMatchNotStarted
	}
	if m.room.Winner() != nil {
		return nil, 0, model.ErrMatchDecided
	}
	seat := m.room.Player(playerID)
	if seat == nil {
		return nil, 0, model.ErrSeatNotFound
	}
	if !m.ident.Owns(seat) {
		return nil, 0, model.ErrNoSeat
	}
	return seat, m.room.DeckRemaining, nil
}

func (m *Manager) requireMode(mode model.Mode) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.room.Mode != mode {
		return model.ErrWrongMode
	}
	return nil
}

func (m *Manager) identitySnapshot() model.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ident
}

// mutationErr handles a server rejection: an access error means the
// credential no longer holds, so the session invalidates; anything else
// passes through untouched.
func (m *Manager) mutationErr(ctx context.Context, err error) error {
	if api.IsAccessError(err) {
		m.invalidate(ctx, "access revoked")
	}
	return err
}
