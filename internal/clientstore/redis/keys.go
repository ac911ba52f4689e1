package redis

import (
	"fmt"

	"github.com/bidascore/bidascore-go/internal/model"
)

// Key prefix for all client state
const keyPrefix = "bidascore"

// pinKey returns the Redis key for a room's access PIN
func pinKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:pin:%s", keyPrefix, roomID)
}

// guestTokenKey returns the Redis key for the device's guest token
func guestTokenKey() string {
	return fmt.Sprintf("%s:guest_token", keyPrefix)
}
