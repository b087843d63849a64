package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub) *Client {
	client := &Client{hub: hub, send: make(chan []byte, 8), userID: uuid.New()}
	hub.register <- client
	return client
}

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case payload, ok := <-client.send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestJoinAndEmitDelivers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub)
	room := UserRoom(client.userID)
	hub.Join(client, room)

	hub.EmitToRoom(room, EventNewNotification, map[string]string{"id": "n1"})

	ev := receive(t, client)
	assert.Equal(t, EventNewNotification, ev.Event)
	data, ok := ev.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "n1", data["id"])
}

func TestEmitToEmptyRoomIsNoOp(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub)
	room := UserRoom(client.userID)
	hub.Join(client, room)

	hub.EmitToRoom(UserRoom(uuid.New()), EventNewMessage, "nobody home")
	hub.EmitToRoom(room, EventNewMessage, "still alive")

	ev := receive(t, client)
	assert.Equal(t, EventNewMessage, ev.Event)
	assert.Equal(t, "still alive", ev.Data)
}

func TestEmitReachesEveryConnectionInRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	room := ProjectRoom(uuid.New())
	first := newTestClient(hub)
	second := newTestClient(hub)
	outsider := newTestClient(hub)
	hub.Join(first, room)
	hub.Join(second, room)
	hub.Join(outsider, UserRoom(outsider.userID))

	hub.EmitToRoom(room, EventNewMessage, "broadcast")

	assert.Equal(t, "broadcast", receive(t, first).Data)
	assert.Equal(t, "broadcast", receive(t, second).Data)
	select {
	case payload := <-outsider.send:
		t.Fatalf("outsider received %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	room := ProjectRoom(uuid.New())
	leaving := newTestClient(hub)
	staying := newTestClient(hub)
	hub.Join(leaving, room)
	hub.Join(staying, room)

	hub.unregister <- leaving

	hub.EmitToRoom(room, EventNewMessage, "after leave")
	assert.Equal(t, "after leave", receive(t, staying).Data)

	_, open := <-leaving.send
	assert.False(t, open, "dropped client's send channel should be closed")
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{hub: hub, send: make(chan []byte), userID: uuid.New()}
	hub.register <- slow
	room := UserRoom(slow.userID)
	hub.Join(slow, room)

	// Nobody reads slow.send, so the non-blocking delivery drops the client.
	hub.EmitToRoom(room, EventNewMessage, "too fast")

	select {
	case _, open := <-slow.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}
}

func TestServeWSJoinUserDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r, userID)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(inboundEvent{Event: "joinUser"}))

	// The join is processed asynchronously; keep emitting until the
	// subscription takes effect.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				hub.EmitToRoom(UserRoom(userID), EventNewNotification, map[string]string{"id": "n1"})
				time.Sleep(10 * time.Millisecond)
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventNewNotification, ev.Event)
}
