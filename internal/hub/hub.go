package hub

import (
	"encoding/json"
	"sync"
)

// Event names pushed to clients.
const (
	EventNewMessage            = "newMessage"
	EventFriendRequestSent     = "friendRequestSent"
	EventFriendRequestAccepted = "friendRequestAccepted"
	EventFriendRequestRejected = "friendRequestRejected"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"event"`
	Payload interface{} `json:"data"`
}

// Hub tracks which user is attached to which live connection and manages
// per-chat broadcast rooms. It is the only owner of the presence map; other
// components route deliveries through EmitToUser and EmitToRoom.
type Hub struct {
	mu    sync.RWMutex
	users map[uint]*Client
	rooms map[uint]map[*Client]bool
}

// GlobalHub is the singleton instance of our Hub.
var GlobalHub = NewHub()

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[uint]*Client),
		rooms: make(map[uint]map[*Client]bool),
	}
}

// Register binds a user to a connection. Re-registering overwrites any
// previous binding: last socket wins.
func (h *Hub) Register(userID uint, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.users[userID] = client
	client.userID = userID
}

// Unregister removes the client from the presence map and from every room it
// joined. The scan over registered users is O(n), which is fine at this scale.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, c := range h.users {
		if c == client {
			delete(h.users, userID)
		}
	}
	for chatID, clients := range h.rooms {
		if clients[client] {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, chatID)
			}
		}
	}
}

// JoinRoom adds the connection to a chat's broadcast group. A client only
// receives newMessage events for chats whose room it has joined.
func (h *Hub) JoinRoom(client *Client, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*Client]bool)
	}
	h.rooms[chatID][client] = true
}

// LeaveRoom removes the connection from a chat's broadcast group.
func (h *Hub) LeaveRoom(client *Client, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[chatID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// EmitToUser delivers an event to the user's registered connection. A user
// with no live connection is a silent no-op: delivery is best-effort and
// REST reads remain the source of truth.
func (h *Hub) EmitToUser(userID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.users[userID]
	if !ok {
		return
	}
	h.deliver(client, event)
}

// EmitToRoom delivers an event to every connection joined to the chat's room,
// including the sender's own connection if joined.
func (h *Hub) EmitToRoom(chatID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[chatID] {
		h.deliver(client, event)
	}
}

// Online reports whether the user currently has a registered connection.
func (h *Hub) Online(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.users[userID]
	return ok
}

func (h *Hub) deliver(client *Client, event Event) {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return
	}

	// Non-blocking send so a slow client never stalls the hub.
	select {
	case client.send <- messageBytes:
	default:
	}
}
