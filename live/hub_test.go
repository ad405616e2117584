package live

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func dialRoom(t *testing.T, hub *Hub, room string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, room)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastToRoom(t *testing.T) {
	hub := newTestHub(t)
	room := DebateRoom(7)
	assert.Equal(t, "debate_7", room)

	conn := dialRoom(t, hub, room)
	other := dialRoom(t, hub, DebateRoom(8))
	require.Eventually(t, func() bool {
		return hub.ClientCount(room) == 1 && hub.ClientCount(DebateRoom(8)) == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom(room, Message{Type: MessageBallotConfirmed, Payload: map[string]int{"debate_id": 7}, RoomID: room})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
		RoomID  string         `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageBallotConfirmed, msg.Type)
	assert.Equal(t, 7, msg.Payload["debate_id"])
	assert.Equal(t, room, msg.RoomID)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "clients in other rooms receive nothing")
}

func TestHubUnregisterOnDisconnect(t *testing.T) {
	hub := newTestHub(t)
	room := DebateRoom(3)

	conn := dialRoom(t, hub, room)
	require.Eventually(t, func() bool { return hub.ClientCount(room) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount(room) == 0 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom(room, Message{Type: MessageBallotConfirmed})
}

func TestNewClientIDs(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	a := NewClient(hub, nil, DebateRoom(1))
	b := NewClient(hub, nil, DebateRoom(1))
	assert.Len(t, a.ID(), 36)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "debate_1", a.Room())
}
