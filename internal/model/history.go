package model

import "time"

// HistoryID identifies a history entry within a room
type HistoryID string

// HistoryKind tags the event a history entry records
type HistoryKind string

const (
	// KindSoloWin records a head-to-head win for one player
	KindSoloWin HistoryKind = "solo_win"
	// KindPenalty records penalty balls charged by a scorer to losers
	KindPenalty HistoryKind = "penalty"
	// KindDeal records hands being dealt and the deck opened
	KindDeal HistoryKind = "deal"
	// KindDraw records a player drawing one card from the deck
	KindDraw HistoryKind = "draw"
	// KindDiscard records a player discarding a card from their hand
	KindDiscard HistoryKind = "discard"
	// KindReset records the match being reset to its initial state
	KindReset HistoryKind = "reset"
)

// BallEvent is one penalty occurrence: a ball number and how many times
// it was charged
type BallEvent struct {
	Ball  int `json:"ball"`
	Count int `json:"count"`
}

// HistoryEntry is one immutable record of a score- or deck-affecting
// event. Entries are never edited; the only supported mutation is deleting
// the single most recent entry (undo), which the backend answers with a
// recomputed full Room.
type HistoryEntry struct {
	ID        HistoryID   `json:"id"`
	Kind      HistoryKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`

	// WinnerID is set for solo_win entries.
	WinnerID PlayerID `json:"winner_id,omitempty"`

	// ScorerID, LoserIDs and Events are set for penalty entries.
	ScorerID PlayerID    `json:"scorer_id,omitempty"`
	LoserIDs []PlayerID  `json:"loser_ids,omitempty"`
	Events   []BallEvent `json:"events,omitempty"`

	// PlayerID and Card are set for draw and discard entries.
	PlayerID PlayerID `json:"player_id,omitempty"`
	Card     *Card    `json:"card,omitempty"`
}
