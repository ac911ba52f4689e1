// Package clientstore persists the small amount of client-side state the
// session controller shares across process restarts: one access PIN per
// room id, and the device's anonymous guest token.
package clientstore

import (
	"context"
	"errors"

	"github.com/bidascore/bidascore-go/internal/model"
)

// ErrNotFound is returned when no value is stored under the requested key
var ErrNotFound = errors.New("clientstore: not found")

// Store defines the interface for persisted client state
type Store interface {
	// PIN operations, keyed per room. A PIN is written only by a
	// successful authorized load, and deleted on PIN rejection or when
	// the room reports itself finished.
	GetPIN(ctx context.Context, roomID model.RoomID) (string, error)
	SavePIN(ctx context.Context, roomID model.RoomID, pin string) error
	DeletePIN(ctx context.Context, roomID model.RoomID) error

	// Guest token operations. The token is generated lazily on first
	// need and never rotated.
	GetGuestToken(ctx context.Context) (string, error)
	SaveGuestToken(ctx context.Context, token string) error
}
