// Package realtime owns the push connection to the scoring backend: one
// shared WebSocket per session, (re)joining the active room on every
// connect and delivering inbound room events. The channel is an
// explicitly owned object handed to the session manager, not a
// process-wide singleton.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bidascore/bidascore-go/internal/model"
	"github.com/bidascore/bidascore-go/internal/normalize"
)

// Wire event names
const (
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
	EventRoomUpdated  = "room_updated"
	EventRoomFinished = "room_finished"
)

// message is the wire envelope for both directions
type message struct {
	Event  string          `json:"event"`
	RoomID model.RoomID    `json:"room_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Handlers receive inbound events. Events for rooms other than the
// active one are dropped before the handlers are invoked.
type Handlers struct {
	// RoomUpdated receives the raw room payload of an update event, in
	// any of the envelope shapes the normalizer accepts.
	RoomUpdated func(raw []byte)
	// RoomFinished fires when the active room reports itself finished.
	RoomFinished func(roomID model.RoomID)
}

// Config holds connection and reconnect settings
type Config struct {
	// URL is the WebSocket endpoint (e.g. ws://host/ws)
	URL string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// Reconnect backoff bounds. Reconnection is automatic and
	// indefinite; there is no user-facing timeout.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		InitialBackoff:   500 * time.Millisecond,
		MaxBackoff:       30 * time.Second,
	}
}

// Channel is a reconnecting WebSocket subscription to one room
type Channel struct {
	cfg    Config
	logger *slog.Logger
	dialer *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	roomID   model.RoomID
	handlers Handlers
	running  bool
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewChannel creates a Channel. Connect must be called to start it.
func NewChannel(cfg Config, logger *slog.Logger) *Channel {
	return &Channel{
		cfg:    cfg,
		logger: logger,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Connect starts the connection loop for the given room. It is
// idempotent: calling it while the channel is already connecting or
// connected is a no-op. The loop redials indefinitely with bounded
// backoff until Disconnect is called or ctx is cancelled, emitting a
// join intent on every successful (re)connect.
func (c *Channel) Connect(ctx context.Context, roomID model.RoomID, handlers Handlers) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running || c.closed {
		return
	}
	c.running = true
	c.roomID = roomID
	c.handlers = handlers
	c.done = make(chan struct{})

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.run(runCtx)
}

// Connected reports whether a transport connection is currently up
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Disconnect detaches all handlers before closing the transport, so no
// event is delivered to a torn-down session, then emits a best-effort
// leave intent and closes the connection.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.handlers = Handlers{}
	roomID := c.roomID
	conn := c.conn
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = c.writeMessage(conn, message{Event: EventLeaveRoom, RoomID: roomID})
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
}

// run dials, joins, and reads until the connection drops, then backs off
// and redials. Exits only on cancellation.
func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	backoff := c.cfg.InitialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			c.logger.Warn("realtime connect failed",
				slog.String("url", c.cfg.URL),
				slog.String("error", err.Error()))
			if !c.sleep(ctx, backoff) {
				return
			}
			backoff = c.nextBackoff(backoff)
			continue
		}

		backoff = c.cfg.InitialBackoff

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		roomID := c.roomID
		c.mu.Unlock()

		// Join on every (re)connect. The backend treats join as
		// idempotent, so a duplicate join is harmless; emitting it once
		// per connection instance is a reliability nicety, not a
		// correctness requirement.
		if err := c.writeMessage(conn, message{Event: EventJoinRoom, RoomID: roomID}); err != nil {
			c.logger.Warn("realtime join failed", slog.String("error", err.Error()))
			c.dropConn(conn)
			continue
		}

		c.logger.Info("realtime connected", slog.String("room_id", string(roomID)))

		c.readLoop(conn)
		c.dropConn(conn)

		if ctx.Err() != nil {
			return
		}
		c.logger.Info("realtime disconnected, reconnecting")
		if !c.sleep(ctx, backoff) {
			return
		}
		backoff = c.nextBackoff(backoff)
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Debug("realtime dropped malformed event", slog.String("error", err.Error()))
			continue
		}
		c.dispatch(msg)
	}
}

// dispatch routes one inbound event, dropping events for rooms other
// than the active one without surfacing an error.
func (c *Channel) dispatch(msg message) {
	c.mu.Lock()
	roomID := c.roomID
	handlers := c.handlers
	c.mu.Unlock()

	eventRoom := msg.RoomID
	if eventRoom == "" {
		if room, err := normalize.DecodeRoom(msg.Data); err == nil && room != nil {
			eventRoom = room.ID
		}
	}

	if eventRoom != roomID {
		c.logger.Debug("realtime dropped event for foreign room",
			slog.String("event", msg.Event),
			slog.String("event_room", string(eventRoom)),
			slog.String("active_room", string(roomID)))
		return
	}

	switch msg.Event {
	case EventRoomUpdated:
		if handlers.RoomUpdated != nil {
			handlers.RoomUpdated(msg.Data)
		}
	case EventRoomFinished:
		if handlers.RoomFinished != nil {
			handlers.RoomFinished(eventRoom)
		}
	default:
		c.logger.Debug("realtime ignored unknown event", slog.String("event", msg.Event))
	}
}

func (c *Channel) writeMessage(conn *websocket.Conn, msg message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Channel) dropConn(conn *websocket.Conn) {
	_ = conn.Close()
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Channel) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Channel) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > c.cfg.MaxBackoff {
		next = c.cfg.MaxBackoff
	}
	return next
}
