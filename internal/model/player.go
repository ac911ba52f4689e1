package model

// PlayerID identifies a player slot within a room
type PlayerID string

// Player is one seat in a room. A seat is unclaimed, bound to an
// authenticated user, or bound to a guest token - never more than one.
// Once claimed, a seat is never rebound by client action; only the backend
// may reset it.
type Player struct {
	ID    PlayerID `json:"id"`
	Name  string   `json:"name"`
	Score int      `json:"score"`

	// UserID binds the seat to an authenticated user when non-empty.
	UserID string `json:"user_id,omitempty"`
	// GuestToken binds the seat to an anonymous device identity when non-empty.
	GuestToken string `json:"guest_token,omitempty"`

	// Cards is the player's hand in card mode. Nil means no hand was dealt;
	// a non-nil empty hand means the hand has been played out. The empty
	// hand must survive serialization, so no omitempty here.
	Cards []Card `json:"cards"`
}

// Unclaimed reports whether the seat has no owner
func (p *Player) Unclaimed() bool {
	return p.UserID == "" && p.GuestToken == ""
}

// HoldsValue reports whether the player's hand contains a card of the
// given face value
func (p *Player) HoldsValue(value int) bool {
	for _, c := range p.Cards {
		if c.Value == value {
			return true
		}
	}
	return false
}

// Card is one card in play in card mode
type Card struct {
	ID     string `json:"id"`
	Value  int    `json:"value"`
	Suit   string `json:"suit"`
	FaceUp bool   `json:"face_up"`
}
