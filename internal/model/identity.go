package model

// Identity is the resolved actor performing actions: an authenticated user
// id, or an anonymous guest token persisted on the device. At most one
// field is set.
type Identity struct {
	UserID     string `json:"user_id,omitempty"`
	GuestToken string `json:"guest_token,omitempty"`
}

// IsZero reports whether no identity was resolved
func (id Identity) IsZero() bool {
	return id.UserID == "" && id.GuestToken == ""
}

// Owns reports whether the given seat is bound to this identity
func (id Identity) Owns(p *Player) bool {
	if id.UserID != "" && p.UserID == id.UserID {
		return true
	}
	if id.GuestToken != "" && p.GuestToken == id.GuestToken {
		return true
	}
	return false
}
