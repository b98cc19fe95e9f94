package database

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound возвращается вместо gorm.ErrRecordNotFound, чтобы
// вызывающий код не зависел от ORM.
var ErrNotFound = errors.New("record not found")

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
