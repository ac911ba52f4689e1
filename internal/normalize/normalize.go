// Package normalize collapses the backend's heterogeneous response
// envelopes into one canonical room payload. Different mutation endpoints
// wrap the room at different depths; this is the single point of truth
// reconciling them, applied to every inbound payload (initial load,
// mutation responses, push events).
package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/bidascore/bidascore-go/internal/model"
)

// envelope covers every nesting shape the backend is known to produce.
type envelope struct {
	Room json.RawMessage `json:"room"`
	Data json.RawMessage `json:"data"`
}

// Room unwraps a raw payload into the innermost room object. Shapes are
// tried in priority order: the raw value itself, `.room`, `.data.room`,
// `.data`. The function is total - malformed or non-object input is
// returned unchanged - and idempotent: Room(Room(x)) == Room(x). It
// returns nil only for nil or JSON-null input.
func Room(raw []byte) []byte {
	if isNull(raw) {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Not an object; pass through.
		return raw
	}

	if !isNull(env.Room) {
		return env.Room
	}
	if !isNull(env.Data) {
		var inner envelope
		if err := json.Unmarshal(env.Data, &inner); err == nil && !isNull(inner.Room) {
			return inner.Room
		}
		return env.Data
	}

	return raw
}

// DecodeRoom normalizes a raw payload and unmarshals it into a Room.
// A nil payload yields a nil room with no error.
func DecodeRoom(raw []byte) (*model.Room, error) {
	raw = Room(raw)
	if raw == nil {
		return nil, nil
	}

	var room model.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func isNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
