// Package realtime pushes server-originated events to connected clients
// over websockets. Delivery is fire-and-forget: rooms are in-memory only,
// membership is lost on disconnect, and the database remains the durable
// record clients reconcile against after reconnecting.
package realtime

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

const (
	EventNewMessage           = "newMessage"
	EventNewNotification      = "newNotification"
	EventNotificationRead     = "notificationRead"
	EventAllNotificationsRead = "allNotificationsRead"
)

// UserRoom names the point-to-point delivery room for one user.
func UserRoom(id uuid.UUID) string { return "user_" + id.String() }

// ProjectRoom names the shared room for a project chat. Chat delivery is
// still addressed to user rooms; project rooms exist for clients that want
// project-scoped events.
func ProjectRoom(id uuid.UUID) string { return "project_" + id.String() }

// Event is the wire shape of every pushed message.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type joinRequest struct {
	client *Client
	room   string
}

type emission struct {
	room    string
	payload []byte
}

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Room membership, both directions.
	rooms   map[string]map[*Client]bool
	members map[*Client]map[string]bool

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	emit       chan emission
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		members:    make(map[*Client]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		emit:       make(chan emission, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.members[client] = make(map[string]bool)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case req := <-h.join:
			if !h.clients[req.client] {
				continue
			}
			if h.rooms[req.room] == nil {
				h.rooms[req.room] = make(map[*Client]bool)
			}
			h.rooms[req.room][req.client] = true
			h.members[req.client][req.room] = true

		case e := <-h.emit:
			// An empty room is a silent no-op.
			for client := range h.rooms[e.room] {
				select {
				case client.send <- e.payload:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	for room := range h.members[client] {
		delete(h.rooms[room], client)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.members, client)
	delete(h.clients, client)
	close(client.send)
}

// EmitToRoom delivers an event to every connection in the room. No ack, no
// retry; a slow client is dropped rather than allowed to stall the hub.
func (h *Hub) EmitToRoom(room, event string, data any) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("emit %s: marshal: %v", event, err)
		return
	}
	h.emit <- emission{room: room, payload: payload}
}

// Join adds a connected client to a room.
func (h *Hub) Join(client *Client, room string) {
	h.join <- joinRequest{client: client, room: room}
}
