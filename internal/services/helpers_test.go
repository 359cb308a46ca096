package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/worldsalon/portal/internal/database"
	"github.com/worldsalon/portal/internal/mailer"
	"github.com/worldsalon/portal/internal/models"
)

func testDB(t *testing.T) *database.Database {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database.NewDatabase(db)
}

func createUser(t *testing.T, db *database.Database, name string) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", strings.ToLower(name), uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         "speaker",
		CreatedAt:    time.Now(),
	}
	if err := db.SaveUser(user); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return user
}

type publishedEvent struct {
	toConversation bool
	targetID       uuid.UUID
	event          string
	data           interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishToConversation(conversationID uuid.UUID, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{toConversation: true, targetID: conversationID, event: event, data: data})
}

func (p *fakePublisher) PublishToUser(userID uuid.UUID, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{targetID: userID, event: event, data: data})
}

func (p *fakePublisher) published(event string, targetID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.event == event && e.targetID == targetID {
			return true
		}
	}
	return false
}

type sentMail struct {
	to      string
	subject string
	kind    mailer.TemplateKind
	data    mailer.TemplateData
}

type fakeMailer struct {
	sent chan sentMail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 16)}
}

func (m *fakeMailer) Send(_ context.Context, to, subject string, kind mailer.TemplateKind, data mailer.TemplateData) error {
	m.sent <- sentMail{to: to, subject: subject, kind: kind, data: data}
	return nil
}

func (m *fakeMailer) waitForMail(t *testing.T) sentMail {
	t.Helper()
	select {
	case mail := <-m.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email")
		return sentMail{}
	}
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
