package model

import "time"

// RoomID uniquely identifies a scoring room
type RoomID string

// Mode selects the game variant a room is scored under
type Mode string

const (
	// ModeSolo is a head-to-head race: one win counter per player
	ModeSolo Mode = "solo"
	// ModePenalty scores penalty balls charged by a scorer to one or more losers
	ModePenalty Mode = "penalty"
	// ModeCard is the card-drawing variant played against a shared deck
	ModeCard Mode = "card"
)

// PenaltyConfig holds the point value of each penalty ball.
// Keys are ball numbers (3, 6, 9), values are points per instance.
type PenaltyConfig map[int]int

// DefaultPenaltyConfig returns the conventional 3/6/9 ball values
func DefaultPenaltyConfig() PenaltyConfig {
	return PenaltyConfig{3: 3, 6: 6, 9: 9}
}

// Room is one scoring session: players, history, and mode configuration.
// It is the canonical shape every backend payload is normalized into.
type Room struct {
	ID       RoomID `json:"id"`
	Name     string `json:"name"`
	Mode     Mode   `json:"mode"`
	Finished bool   `json:"finished"`

	// Version is a monotonically increasing marker bumped by the backend
	// on every accepted mutation.
	Version int64 `json:"version"`

	// Players are ordered by creation; History is ordered most recent first.
	Players []Player       `json:"players"`
	History []HistoryEntry `json:"history"`

	// Penalty holds ball values in penalty mode, nil otherwise.
	Penalty PenaltyConfig `json:"penalty,omitempty"`

	// DeckRemaining counts undrawn cards in card mode. Zero is a valid
	// terminal sub-state once a match has started, not an error.
	DeckRemaining int `json:"deck_remaining"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Player returns the player with the given ID, or nil if not found
func (r *Room) Player(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// SeatOf returns the player whose seat is bound to the given identity,
// or nil if the identity owns no seat in this room
func (r *Room) SeatOf(identity Identity) *Player {
	for i := range r.Players {
		if identity.Owns(&r.Players[i]) {
			return &r.Players[i]
		}
	}
	return nil
}

// HasOpenSeat reports whether at least one seat is unclaimed
func (r *Room) HasOpenSeat() bool {
	for i := range r.Players {
		if r.Players[i].Unclaimed() {
			return true
		}
	}
	return false
}

// Started reports whether a card-mode match is underway: hands have been
// dealt and at least one player still holds cards.
func (r *Room) Started() bool {
	for i := range r.Players {
		if len(r.Players[i].Cards) > 0 {
			return true
		}
	}
	return false
}

// Winner returns the player whose dealt hand has been emptied after the
// match started, or nil while the match is still open. Card mode only.
func (r *Room) Winner() *Player {
	if !r.Started() {
		return nil
	}
	for i := range r.Players {
		p := &r.Players[i]
		if p.Cards != nil && len(p.Cards) == 0 && !p.Unclaimed() {
			return p
		}
	}
	return nil
}

// CardsInPlay sums every hand. CardsInPlay + DeckRemaining is constant for
// the lifetime of a single match.
func (r *Room) CardsInPlay() int {
	n := 0
	for i := range r.Players {
		n += len(r.Players[i].Cards)
	}
	return n
}

// LastEntry returns the most recent history entry, or nil if history is empty
func (r *Room) LastEntry() *HistoryEntry {
	if len(r.History) == 0 {
		return nil
	}
	return &r.History[0]
}
