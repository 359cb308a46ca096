package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Hub is the presence registry: which authenticated connection belongs
// to which user, and which conversation rooms each connection joined.
// It lives for the whole process; entries are garbage-collected on
// disconnect and nothing survives a reconnect server-side.
type Hub struct {
	clients map[uuid.UUID]*Client

	// One user may hold several connections (multi-device); the
	// personal channel targets all of them.
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	rooms map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu  sync.RWMutex
	log zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		log:         log.With().Str("component", "hub").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
	h.rooms = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// registerClient auto-subscribes the connection to its user's personal
// channel. Room membership is always an explicit client action.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	h.log.Debug().
		Str("client_id", client.ID.String()).
		Str("user_id", client.UserID.String()).
		Msg("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for _, roomID := range client.JoinedRooms() {
		h.removeFromRoomLocked(client, roomID)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	h.log.Debug().
		Str("client_id", client.ID.String()).
		Str("user_id", client.UserID.String()).
		Msg("client unregistered")
}

func (h *Hub) JoinRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}
	h.rooms[roomID][client.ID] = client

	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

func (h *Hub) LeaveRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(client, roomID)
}

func (h *Hub) removeFromRoomLocked(client *Client, roomID uuid.UUID) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := room[client.ID]; !ok {
		return
	}

	delete(room, client.ID)
	client.mu.Lock()
	delete(client.Rooms, roomID)
	client.mu.Unlock()

	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// SendToUser fans a frame out to every connection of the user.
func (h *Hub) SendToUser(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.userClients[userID]; ok {
		for _, client := range clients {
			h.deliver(client, data)
		}
	}
}

// SendToRoom fans a frame out to every connection subscribed to the room.
func (h *Hub) SendToRoom(roomID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			h.deliver(client, data)
		}
	}
}

// sendToRoomExceptUser skips every connection of one user; used for
// typing indicators, which are never echoed back to the typist.
func (h *Hub) sendToRoomExceptUser(roomID uuid.UUID, data []byte, excludeUserID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			if client.UserID == excludeUserID {
				continue
			}
			h.deliver(client, data)
		}
	}
}

// deliver is fire-and-forget: a full or closing queue drops the frame
// and the client catches up from persisted state on its next fetch.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.log.Warn().Str("client_id", client.ID.String()).Msg("send queue full, frame dropped")
	}
}

// PublishToConversation pushes a named event to a conversation room.
func (h *Hub) PublishToConversation(conversationID uuid.UUID, event string, data interface{}) {
	frame, err := marshalFrame(EventType(event), &conversationID, uuid.Nil, data)
	if err != nil {
		h.log.Warn().Err(err).Str("event", event).Msg("frame marshal failed")
		return
	}
	h.SendToRoom(conversationID, frame)
}

// PublishToUser pushes a named event to a user's personal channel.
func (h *Hub) PublishToUser(userID uuid.UUID, event string, data interface{}) {
	frame, err := marshalFrame(EventType(event), nil, uuid.Nil, data)
	if err != nil {
		h.log.Warn().Err(err).Str("event", event).Msg("frame marshal failed")
		return
	}
	h.SendToUser(userID, frame)
}

// Typing relays a transient typing indicator to the room, excluding all
// of the typist's own connections. Requires room membership.
func (h *Hub) Typing(client *Client, conversationID uuid.UUID, userName string, started bool) error {
	if !client.IsInRoom(conversationID) {
		return ErrNotInRoom
	}

	eventType := EventUserTyping
	if !started {
		eventType = EventUserStoppedTyping
	}

	frame, err := marshalFrame(eventType, &conversationID, client.UserID, TypingEvent{
		UserID:         client.UserID,
		UserName:       userName,
		ConversationID: conversationID,
	})
	if err != nil {
		return err
	}

	h.sendToRoomExceptUser(conversationID, frame, client.UserID)
	return nil
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	frame, err := marshalFrame(EventPing, nil, uuid.Nil, nil)
	if err != nil {
		return
	}
	for _, client := range h.clients {
		select {
		case client.Send <- frame:
		default:
		}
	}
}

// OnlineUsers lists users with at least one live connection.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

// RoomUsers lists the distinct users currently subscribed to a room.
func (h *Hub) RoomUsers(roomID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			seen[client.UserID] = true
		}
	}

	users := make([]uuid.UUID, 0, len(seen))
	for userID := range seen {
		users = append(users, userID)
	}
	return users
}

func marshalFrame(eventType EventType, conversationID *uuid.UUID, userID uuid.UUID, data interface{}) ([]byte, error) {
	frame := Event{
		Type:           eventType,
		ConversationID: conversationID,
		UserID:         userID,
		Timestamp:      time.Now(),
	}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		frame.Data = payload
	}
	return json.Marshal(frame)
}
