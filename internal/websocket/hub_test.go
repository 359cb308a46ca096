package websocket

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func connect(t *testing.T, hub *Hub, userID uuid.UUID) *Client {
	t.Helper()
	client := NewClient(hub, nil, userID)
	hub.Register(client)
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[client.ID]
		return ok
	})
	return client
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func receiveFrame(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case data := <-client.Send:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return Event{}
	}
}

func assertNoFrame(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		t.Fatalf("unexpected frame: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegisterSubscribesPersonalChannel(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	client := connect(t, hub, userID)

	hub.PublishToUser(userID, "notification", map[string]string{"title": "hi"})

	event := receiveFrame(t, client)
	if event.Type != "notification" {
		t.Fatalf("frame type %q", event.Type)
	}
}

func TestPersonalChannelReachesAllDevices(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	phone := connect(t, hub, userID)
	laptop := connect(t, hub, userID)
	stranger := connect(t, hub, uuid.New())

	hub.PublishToUser(userID, "notification", nil)

	receiveFrame(t, phone)
	receiveFrame(t, laptop)
	assertNoFrame(t, stranger)
}

func TestRoomDelivery(t *testing.T) {
	hub := startHub(t)
	conversationID := uuid.New()
	member := connect(t, hub, uuid.New())
	outsider := connect(t, hub, uuid.New())

	hub.JoinRoom(member, conversationID)

	hub.PublishToConversation(conversationID, "new_message", map[string]string{"content": "hello"})

	event := receiveFrame(t, member)
	if event.Type != "new_message" {
		t.Fatalf("frame type %q", event.Type)
	}
	if event.ConversationID == nil || *event.ConversationID != conversationID {
		t.Fatal("frame missing conversation id")
	}
	assertNoFrame(t, outsider)

	hub.LeaveRoom(member, conversationID)
	hub.PublishToConversation(conversationID, "new_message", nil)
	assertNoFrame(t, member)
}

func TestUnregisterForgetsRoomsAndPresence(t *testing.T) {
	hub := startHub(t)
	conversationID := uuid.New()
	userID := uuid.New()
	client := connect(t, hub, userID)
	hub.JoinRoom(client, conversationID)

	hub.Unregister(client)
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[client.ID]
		return !ok
	})

	if users := hub.RoomUsers(conversationID); len(users) != 0 {
		t.Fatalf("room still lists %d users after disconnect", len(users))
	}
	if users := hub.OnlineUsers(); len(users) != 0 {
		t.Fatalf("%d users online after disconnect", len(users))
	}

	hub.mu.RLock()
	_, roomKept := hub.rooms[conversationID]
	hub.mu.RUnlock()
	if roomKept {
		t.Fatal("empty room not garbage-collected")
	}
}

func TestOnlineUntilLastConnectionDrops(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	phone := connect(t, hub, userID)
	laptop := connect(t, hub, userID)

	hub.Unregister(phone)
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[phone.ID]
		return !ok
	})

	if users := hub.OnlineUsers(); len(users) != 1 || users[0] != userID {
		t.Fatalf("user offline while a connection remains: %v", users)
	}

	hub.Unregister(laptop)
	waitFor(t, func() bool { return len(hub.OnlineUsers()) == 0 })
}

func TestTypingExcludesTypist(t *testing.T) {
	hub := startHub(t)
	conversationID := uuid.New()
	typistID := uuid.New()

	typist := connect(t, hub, typistID)
	typistTablet := connect(t, hub, typistID)
	reader := connect(t, hub, uuid.New())

	hub.JoinRoom(typist, conversationID)
	hub.JoinRoom(typistTablet, conversationID)
	hub.JoinRoom(reader, conversationID)

	if err := hub.Typing(typist, conversationID, "Alice", true); err != nil {
		t.Fatalf("typing: %v", err)
	}

	event := receiveFrame(t, reader)
	if event.Type != EventUserTyping {
		t.Fatalf("frame type %q", event.Type)
	}
	var payload TypingEvent
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("unmarshal typing payload: %v", err)
	}
	if payload.UserName != "Alice" || payload.UserID != typistID {
		t.Fatalf("typing payload %+v", payload)
	}

	// No echo to the typist, on any of their connections.
	assertNoFrame(t, typist)
	assertNoFrame(t, typistTablet)

	if err := hub.Typing(typist, conversationID, "Alice", false); err != nil {
		t.Fatalf("typing stop: %v", err)
	}
	if event := receiveFrame(t, reader); event.Type != EventUserStoppedTyping {
		t.Fatalf("frame type %q", event.Type)
	}
}

func TestTypingRequiresMembership(t *testing.T) {
	hub := startHub(t)
	client := connect(t, hub, uuid.New())

	err := hub.Typing(client, uuid.New(), "Alice", true)
	if !errors.Is(err, ErrNotInRoom) {
		t.Fatalf("expected ErrNotInRoom, got %v", err)
	}
}

func TestDeliverDropsWhenQueueFull(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	client := connect(t, hub, userID)

	for i := 0; i < cap(client.Send)+10; i++ {
		hub.PublishToUser(userID, "notification", nil)
	}

	// The queue holds exactly its capacity; the overflow was dropped,
	// not blocked on.
	if len(client.Send) != cap(client.Send) {
		t.Fatalf("queue holds %d of %d", len(client.Send), cap(client.Send))
	}
}

func TestRoomUsersDistinct(t *testing.T) {
	hub := startHub(t)
	conversationID := uuid.New()
	userID := uuid.New()

	first := connect(t, hub, userID)
	second := connect(t, hub, userID)
	hub.JoinRoom(first, conversationID)
	hub.JoinRoom(second, conversationID)

	if users := hub.RoomUsers(conversationID); len(users) != 1 {
		t.Fatalf("expected 1 distinct user, got %d", len(users))
	}
}
