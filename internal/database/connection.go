package database

import (
	"errors"

	"github.com/oneteam-dev/aichat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.LoginAttempt{},
		&models.Room{},
		&models.Message{},
	)
	if err != nil {
		return err
	}

	d.db = db

	return nil
}
