package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is handled at the deployment boundary.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one live websocket connection. Outbound events are queued on the
// send channel and flushed by the write pump.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// NewClient wraps a connection for the given hub.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// ServeWS upgrades the request to a websocket and starts the client pumps.
func ServeWS(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}

		client := NewClient(h, conn)
		go client.writePump()
		go client.readPump()
	}
}

// inboundFrame is the envelope for every client-to-server event.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound event names.
const (
	inboundRegisterUser = "registerUser"
	inboundJoinRoom     = "joinRoom"
	inboundLeaveRoom    = "leaveRoom"
	inboundSendMessage  = "sendMessage"
)

type registerUserPayload struct {
	UserID uint `json:"userId"`
}

type roomPayload struct {
	ChatID uint `json:"chatId"`
}

// relayMessagePayload is the message shape clients push over the socket for
// room relay. Persistence happens over REST; this path only accelerates
// delivery to other joined connections.
type relayMessagePayload struct {
	ID        uint      `json:"id"`
	ChatID    uint      `json:"chat_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue // malformed frames are dropped
		}
		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame inboundFrame) {
	switch frame.Event {
	case inboundRegisterUser:
		var p registerUserPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.UserID == 0 {
			return
		}
		c.hub.Register(p.UserID, c)

	case inboundJoinRoom:
		var p roomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ChatID == 0 {
			return
		}
		c.hub.JoinRoom(c, p.ChatID)

	case inboundLeaveRoom:
		var p roomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ChatID == 0 {
			return
		}
		c.hub.LeaveRoom(c, p.ChatID)

	case inboundSendMessage:
		var p relayMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ChatID == 0 {
			return
		}
		c.hub.EmitToRoom(p.ChatID, Event{Type: EventNewMessage, Payload: p})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
