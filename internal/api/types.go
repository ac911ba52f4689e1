package api

import "github.com/bidascore/bidascore-go/internal/model"

// CreateRoomParams describes a new room
type CreateRoomParams struct {
	Name        string              `json:"name"`
	Mode        model.Mode          `json:"mode"`
	PIN         string              `json:"pin"`
	PlayerNames []string            `json:"player_names"`
	Penalty     model.PenaltyConfig `json:"penalty,omitempty"`
	// CardsPerPlayer is the hand size dealt in card mode.
	CardsPerPlayer int `json:"cards_per_player,omitempty"`
}

// PenaltyScoreParams is one penalty-mode scoring action: a scoring player,
// the players penalized, and the ball events charged to them
type PenaltyScoreParams struct {
	ScorerID model.PlayerID    `json:"scorer_id"`
	LoserIDs []model.PlayerID  `json:"loser_ids"`
	Events   []model.BallEvent `json:"events"`
}

// soloScoreRequest is the wire payload for a head-to-head win
type soloScoreRequest struct {
	PIN      string         `json:"pin"`
	WinnerID model.PlayerID `json:"winner_id"`
}

// penaltyScoreRequest is the wire payload for a penalty score update
type penaltyScoreRequest struct {
	PIN      string            `json:"pin"`
	ScorerID model.PlayerID    `json:"scorer_id"`
	LoserIDs []model.PlayerID  `json:"loser_ids"`
	Events   []model.BallEvent `json:"events"`
}

// pinRequest carries just the room credential
type pinRequest struct {
	PIN string `json:"pin"`
}

// claimRequest binds a seat to an identity
type claimRequest struct {
	PlayerID   model.PlayerID `json:"player_id"`
	UserID     string         `json:"user_id,omitempty"`
	GuestToken string         `json:"guest_token,omitempty"`
}

// seatActionRequest is the wire payload for draw and discard, which act
// through seat ownership rather than the room PIN
type seatActionRequest struct {
	PlayerID   model.PlayerID `json:"player_id"`
	UserID     string         `json:"user_id,omitempty"`
	GuestToken string         `json:"guest_token,omitempty"`
	CardValue  int            `json:"card_value,omitempty"`
}

// listResponse covers the envelope shapes the list endpoint produces
type listResponse struct {
	Rooms []model.Room `json:"rooms"`
	Data  []model.Room `json:"data"`
}
