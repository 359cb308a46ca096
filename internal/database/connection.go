package database

import (
	"errors"

	"github.com/worldsalon/portal/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("PORTAL_DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	d.db = db

	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Participant{},
		&models.Message{},
		&models.Notification{},
		&models.Event{},
		&models.EventRSVP{},
	)
}
