package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidascore/bidascore-go/internal/model"
	"github.com/bidascore/bidascore-go/internal/testutil"
)

// wsServer is a minimal push-server fake: it records inbound intents and
// lets tests push events to connected clients
type wsServer struct {
	*httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn

	joins  chan message
	leaves chan message
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()

	s := &wsServer{
		joins:  make(chan message, 16),
		leaves: make(chan message, 16),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg message
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			switch msg.Event {
			case EventJoinRoom:
				s.joins <- msg
			case EventLeaveRoom:
				s.leaves <- msg
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

// push sends an event to every connected client
func (s *wsServer) push(t *testing.T, msg message) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// dropConns severs every server-side connection to force a reconnect
func (s *wsServer) dropConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

func (s *wsServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url)
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond
	return cfg
}

func waitJoin(t *testing.T, s *wsServer) message {
	t.Helper()
	select {
	case msg := <-s.joins:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for join intent")
		return message{}
	}
}

func TestConnectEmitsJoinWithRoomID(t *testing.T) {
	server := newWSServer(t)
	ch := NewChannel(testConfig(server.wsURL()), testutil.NopLogger())
	defer ch.Disconnect()

	ch.Connect(context.Background(), "room-a", Handlers{})

	join := waitJoin(t, server)
	assert.Equal(t, EventJoinRoom, join.Event)
	assert.Equal(t, model.RoomID("room-a"), join.RoomID)
}

func TestConnectIsIdempotent(t *testing.T) {
	server := newWSServer(t)
	ch := NewChannel(testConfig(server.wsURL()), testutil.NopLogger())
	defer ch.Disconnect()

	ch.Connect(context.Background(), "room-a", Handlers{})
	waitJoin(t, server)

	// Further Connect calls while running must not open new connections.
	ch.Connect(context.Background(), "room-a", Handlers{})
	ch.Connect(context.Background(), "room-a", Handlers{})
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, server.connCount())
}

func TestRoomUpdatedDelivered(t *testing.T) {
	server := newWSServer(t)
	ch := NewChannel(testConfig(server.wsURL()), testutil.NopLogger())
	defer ch.Disconnect()

	updates := make(chan []byte, 1)
	ch.Connect(context.Background(), "room-a", Handlers{
		RoomUpdated: func(raw []byte) { updates <- raw },
	})
	waitJoin(t, server)

	payload := json.RawMessage(`{"room":{"id":"room-a","mode":"solo","version":5}}`)
	server.push(t, message{Event: EventRoomUpdated, RoomID: "room-a", Data: payload})

	select {
	case raw := <-updates:
		assert.JSONEq(t, string(payload), string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room update")
	}
}

func TestForeignRoomEventDropped(t *testing.T) {
	server := newWSServer(t)
	ch := NewChannel(testConfig(server.wsURL()), testutil.NopLogger())
	defer ch.Disconnect()

	updates := make(chan []byte, 2)
	ch.Connect(context.Background(), "room-a", Handlers{
		RoomUpdated: func(raw []byte) { updates <- raw },
	})
	waitJoin(t, server)

	// An update for room-b while room-a is active must be discarded,
	// even when the room id only appears inside the payload.
	server.push(t, message{Event: EventRoomUpdated, RoomID: "room-b", Data: json.RawMessage(`{"id":"room-b"}`)})
	server.push(t, message{Event: EventRoomUpdated, Data: json.RawMessage(`{"room":{"id":"room-b"}}`)})
	// A matching event afterwards still arrives, proving the channel is alive.
	server.push(t, message{Event: EventRoomUpdated, RoomID: "room-a", Data: json.RawMessage(`{"id":"room-a"}`)})

	select {
	case raw := <-updates:
		assert.JSONEq(t, `{"id":"room-a"}`, string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room update")
	}
	assert.Empty(t, updates)
}

func TestRoomFinishedDelivered(t *testing.T) {
	server := newWSServer(t)
	ch := NewChannel(testConfig(server.wsURL()), testutil.NopLogger())
	defer ch.Disconnect()

	finished := make(chan model.RoomID, 1)
	ch.Connect(context.Background(), "room-a", Handlers{
		RoomFinished: func(id model.RoomID) { finished <- id },
	})
	waitJoin(t, server)

	server.push(t, message{Event: EventRoomFinished, RoomID: "room-b"})
	server.push(t, message{Event: EventRoomFinished, RoomID: "room-a"})

	select {
	case id := <-finished:
		assert.Equal(t, model.RoomID("room-a"), id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room finished")
	}
	assert.Empty(t, finished)
}

func TestReconnectRejoinsRoom(t *testing.T) {
	server := newWSServer(t)
	ch := NewChannel(testConfig(server.wsURL()), testutil.NopLogger())
	defer ch.Disconnect()

	ch.Connect(context.Background(), "room-a", Handlers{})
	waitJoin(t, server)

	server.dropConns()

	// The channel redials on its own and emits the join intent again.
	rejoin := waitJoin(t, server)
	assert.Equal(t, model.RoomID("room-a"), rejoin.RoomID)
}

func TestDisconnectEmitsLeaveAndDetachesHandlers(t *testing.T) {
	server := newWSServer(t)
	ch := NewChannel(testConfig(server.wsURL()), testutil.NopLogger())

	updates := make(chan []byte, 1)
	ch.Connect(context.Background(), "room-a", Handlers{
		RoomUpdated: func(raw []byte) { updates <- raw },
	})
	waitJoin(t, server)

	ch.Disconnect()

	select {
	case msg := <-server.leaves:
		assert.Equal(t, model.RoomID("room-a"), msg.RoomID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for leave intent")
	}

	// No events reach a torn-down session.
	server.push(t, message{Event: EventRoomUpdated, RoomID: "room-a", Data: json.RawMessage(`{"id":"room-a"}`)})
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, updates)

	// Disconnect is safe to call twice.
	ch.Disconnect()
}

func TestConnectAfterDisconnectIsNoOp(t *testing.T) {
	server := newWSServer(t)
	ch := NewChannel(testConfig(server.wsURL()), testutil.NopLogger())

	ch.Connect(context.Background(), "room-a", Handlers{})
	waitJoin(t, server)
	ch.Disconnect()

	ch.Connect(context.Background(), "room-a", Handlers{})
	time.Sleep(100 * time.Millisecond)
	assert.False(t, ch.Connected())
}
