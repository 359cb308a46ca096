package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/worldsalon/portal/internal/models"
)

func newMessageService(t *testing.T) (*MessageService, *fakePublisher) {
	t.Helper()
	db := testDB(t)
	pub := &fakePublisher{}
	notifications := NewNotificationService(db, pub, newFakeMailer(), nopLogger())
	return NewMessageService(db, pub, notifications, nopLogger()), pub
}

func TestResolveDirectIdempotent(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")

	first, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if first.IsGroup {
		t.Fatal("direct conversation flagged as group")
	}
	if len(first.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(first.Participants))
	}

	second, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resolve not idempotent: %s vs %s", first.ID, second.ID)
	}

	// Same pair, opposite direction.
	reversed, err := svc.Resolve(b.ID, nil, &a.ID)
	if err != nil {
		t.Fatalf("reversed resolve: %v", err)
	}
	if reversed.ID != first.ID {
		t.Fatalf("pair resolved to a second conversation: %s vs %s", first.ID, reversed.ID)
	}
}

func TestResolveConcurrentFirstSends(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")

	// Simultaneous first sends from both sides must still land on a
	// single conversation: the loser of the direct_key race re-fetches
	// the winner's row.
	const workers = 8
	ids := make(chan uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender, receiver := a.ID, b.ID
			if i%2 == 1 {
				sender, receiver = receiver, sender
			}
			conv, err := svc.Resolve(sender, nil, &receiver)
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			ids <- conv.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	distinct := make(map[uuid.UUID]bool)
	for id := range ids {
		distinct[id] = true
	}
	if len(distinct) != 1 {
		t.Fatalf("pair resolved to %d conversations", len(distinct))
	}
}

func TestResolveRequiresReceiver(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")

	if _, err := svc.Resolve(a.ID, nil, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResolveUnknownConversation(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")

	missing := uuid.New()
	if _, err := svc.Resolve(a.ID, &missing, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveNonParticipant(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")
	outsider := createUser(t, svc.db, "Mallory")

	conv, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := svc.Resolve(outsider.ID, &conv.ID, nil); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestResolveUnknownReceiver(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")

	missing := uuid.New()
	if _, err := svc.Resolve(a.ID, nil, &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendRejectsEmptyContent(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")

	conv, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := svc.Send(a.ID, conv.ID, "   ", models.MessageText, &b.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSendRejectsUnknownKind(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")

	conv, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := svc.Send(a.ID, conv.ID, "hi", "video", &b.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSendPersistsAndFansOut(t *testing.T) {
	svc, pub := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")

	conv, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	message, err := svc.Send(a.ID, conv.ID, "hello", "", &b.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if message.Kind != models.MessageText {
		t.Fatalf("expected kind to default to text, got %q", message.Kind)
	}

	stored, err := svc.db.GetMessage(message.ID.String())
	if err != nil {
		t.Fatalf("message not persisted: %v", err)
	}
	if stored.Content != "hello" || stored.IsRead {
		t.Fatalf("unexpected stored message: %+v", stored)
	}

	if !pub.published(EventNewMessage, conv.ID) {
		t.Fatal("new_message not published to conversation room")
	}
	if !pub.published(EventMessageNotification, b.ID) {
		t.Fatal("message_notification not published to receiver")
	}

	// Direct messages also leave a stored notification for the receiver.
	notifications, unread, err := svc.notifications.List(b.ID, true, 10, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if unread != 1 || len(notifications) != 1 {
		t.Fatalf("expected 1 stored notification, got %d (unread %d)", len(notifications), unread)
	}
	if notifications[0].Kind != models.NotificationMessageReceived {
		t.Fatalf("notification kind %q", notifications[0].Kind)
	}

	updated, err := svc.db.GetConversation(conv.ID.String())
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if updated.LastActivityAt.Before(conv.LastActivityAt) {
		t.Fatal("conversation activity timestamp not bumped")
	}
}

func TestUnreadCountAndViewMarksRead(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")

	conv, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Send(a.ID, conv.ID, "msg", models.MessageText, &b.ID); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	count, err := svc.UnreadCount(b.ID, conv.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread for receiver, got %d", count)
	}

	// The sender's own messages never count as unread for the sender.
	senderCount, err := svc.UnreadCount(a.ID, conv.ID)
	if err != nil {
		t.Fatalf("sender unread count: %v", err)
	}
	if senderCount != 0 {
		t.Fatalf("expected 0 unread for sender, got %d", senderCount)
	}

	messages, err := svc.FetchMessages(b.ID, conv.ID, 50, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	count, err = svc.UnreadCount(b.ID, conv.ID)
	if err != nil {
		t.Fatalf("unread count after view: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread after view, got %d", count)
	}

	for _, message := range messages {
		stored, err := svc.db.GetMessage(message.ID.String())
		if err != nil {
			t.Fatalf("get message: %v", err)
		}
		if !stored.IsRead {
			t.Fatalf("message %s not marked read", message.ID)
		}
	}
}

func TestFetchMessagesNonParticipant(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")
	outsider := createUser(t, svc.db, "Mallory")

	conv, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := svc.FetchMessages(outsider.ID, conv.ID, 50, nil); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	if _, err := svc.FetchMessages(a.ID, uuid.New(), 50, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchMessagesOrderedOldestFirst(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")

	conv, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	contents := []string{"one", "two", "three"}
	for _, content := range contents {
		if _, err := svc.Send(a.ID, conv.ID, content, models.MessageText, &b.ID); err != nil {
			t.Fatalf("send: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	messages, err := svc.FetchMessages(b.ID, conv.ID, 50, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for i, content := range contents {
		if messages[i].Content != content {
			t.Fatalf("position %d: expected %q, got %q", i, content, messages[i].Content)
		}
	}
}

func TestListConversations(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")

	conv, err := svc.Resolve(a.ID, nil, &b.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := svc.Send(a.ID, conv.ID, "latest", models.MessageText, &b.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	summaries, err := svc.ListConversations(b.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(summaries))
	}
	if summaries[0].UnreadCount != 1 {
		t.Fatalf("expected unread 1, got %d", summaries[0].UnreadCount)
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.Content != "latest" {
		t.Fatalf("unexpected last message: %+v", summaries[0].LastMessage)
	}
}

func TestCreateGroupIncludesCreator(t *testing.T) {
	svc, _ := newMessageService(t)
	a := createUser(t, svc.db, "Alice")
	b := createUser(t, svc.db, "Bob")
	c := createUser(t, svc.db, "Carol")

	conv, err := svc.CreateGroup(a.ID, "Panel prep", []uuid.UUID{b.ID, c.ID, b.ID})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if !conv.IsGroup {
		t.Fatal("expected group conversation")
	}
	if len(conv.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(conv.Participants))
	}

	if _, err := svc.CreateGroup(a.ID, "Empty", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
