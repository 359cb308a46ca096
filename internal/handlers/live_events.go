package handlers

import (
	"github.com/rs/zerolog"

	"github.com/worldsalon/portal/internal/database"
	ws "github.com/worldsalon/portal/internal/websocket"
)

// LiveEventHandler processes inbound events from connected clients:
// room membership changes and typing indicators. Anything needing the
// store goes through here so the hub itself stays storage-free.
type LiveEventHandler struct {
	db  *database.Database
	hub *ws.Hub
	log zerolog.Logger
}

func NewLiveEventHandler(db *database.Database, hub *ws.Hub, log zerolog.Logger) *LiveEventHandler {
	return &LiveEventHandler{db: db, hub: hub, log: log.With().Str("component", "live").Logger()}
}

func (h *LiveEventHandler) HandleEvent(client *ws.Client, event *ws.Event) error {
	switch event.Type {
	case ws.EventJoinConversation:
		return h.joinConversation(client, event)

	case ws.EventLeaveConversation:
		if event.ConversationID != nil {
			h.hub.LeaveRoom(client, *event.ConversationID)
		}
		return nil

	case ws.EventJoinConversations:
		return h.joinAllConversations(client)

	case ws.EventTypingStart:
		return h.typing(client, event, true)

	case ws.EventTypingStop:
		return h.typing(client, event, false)

	default:
		h.log.Debug().Str("event", string(event.Type)).Msg("unknown event type")
		return nil
	}
}

// joinConversation subscribes the connection to one room, after
// verifying the user actually belongs to that conversation.
func (h *LiveEventHandler) joinConversation(client *ws.Client, event *ws.Event) error {
	if event.ConversationID == nil {
		return ws.ErrInvalidEvent
	}

	ok, err := h.db.IsParticipant(*event.ConversationID, client.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return ws.ErrNotInRoom
	}

	h.hub.JoinRoom(client, *event.ConversationID)
	return nil
}

// joinAllConversations is the explicit bulk join a client issues after
// connecting. Membership comes from the store, never from prior
// connection state.
func (h *LiveEventHandler) joinAllConversations(client *ws.Client) error {
	convs, err := h.db.GetUserConversations(client.UserID)
	if err != nil {
		return err
	}
	for _, conv := range convs {
		h.hub.JoinRoom(client, conv.ID)
	}
	return nil
}

func (h *LiveEventHandler) typing(client *ws.Client, event *ws.Event, started bool) error {
	if event.ConversationID == nil {
		return ws.ErrInvalidEvent
	}

	userName := ""
	if user, err := h.db.GetUser(client.UserID.String()); err == nil {
		userName = user.Name
	}

	return h.hub.Typing(client, *event.ConversationID, userName, started)
}
