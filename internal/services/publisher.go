package services

import "github.com/google/uuid"

// Publisher pushes named events to live subscribers. Delivery is
// best-effort: implementations must never block the caller and never
// return delivery failures to it.
type Publisher interface {
	PublishToConversation(conversationID uuid.UUID, event string, data interface{})
	PublishToUser(userID uuid.UUID, event string, data interface{})
}
