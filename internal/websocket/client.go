package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512 * 1024 // 512KB
)

// Client is one authenticated live connection. A user may hold several.
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Rooms  map[uuid.UUID]bool
	Hub    *Hub
	mu     sync.RWMutex
}

// EventHandler processes inbound client events that need lookups beyond
// the registry itself (membership checks, bulk joins).
type EventHandler interface {
	HandleEvent(client *Client, event *Event) error
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Rooms:  make(map[uuid.UUID]bool),
		Hub:    hub,
	}
}

// ReadPump reads inbound events until the connection drops, then
// unregisters the client so the registry forgets its room memberships.
func (c *Client) ReadPump(handler EventHandler, log zerolog.Logger) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event Event
		err := c.Conn.ReadJSON(&event)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client_id", c.ID.String()).Msg("websocket read error")
			}
			break
		}

		event.UserID = c.UserID

		if event.Type == EventPong {
			continue
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &event); err != nil {
				log.Warn().Err(err).
					Str("client_id", c.ID.String()).
					Str("event", string(event.Type)).
					Msg("event handling failed")
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump drains the send queue onto the wire and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendError(message string) {
	frame, err := marshalFrame("error", nil, c.UserID, map[string]string{"error": message})
	if err != nil {
		return
	}
	select {
	case c.Send <- frame:
	default:
	}
}

func (c *Client) IsInRoom(roomID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}

func (c *Client) JoinedRooms() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]uuid.UUID, 0, len(c.Rooms))
	for roomID := range c.Rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}
