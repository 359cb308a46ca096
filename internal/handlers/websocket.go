package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/worldsalon/portal/internal/middleware"
	ws "github.com/worldsalon/portal/internal/websocket"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	events   *LiveEventHandler
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWebSocketHandler(hub *ws.Hub, events *LiveEventHandler, log zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		events: events,
		log:    log.With().Str("component", "websocket").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origin once the frontend domain is fixed
				return true
			},
		},
	}
}

// HandleWebSocket upgrades an authenticated request into a live channel.
// The auth middleware has already rejected invalid credentials, so by
// the time we get here the user id is trustworthy.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID.(uuid.UUID))

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.events, h.log)
}
