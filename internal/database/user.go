package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/oneteam-dev/aichat/internal/models"
)

func (d *Database) SaveUser(user *models.User) error {
	if err := d.db.Create(user).Error; err != nil {
		return err
	}
	return nil
}

func (d *Database) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

func (d *Database) GetUser(id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (d *Database) FindUserByUsername(username string) (*models.User, error) {
	user := models.User{}
	if err := d.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

// UserExists проверяет занятость username, email или nickname при регистрации.
func (d *Database) UserExists(column, value string) (bool, error) {
	var count int64
	err := d.db.Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error
	return count > 0, err
}

func (d *Database) UpdateLastLogin(id uuid.UUID, at time.Time) error {
	return d.db.Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

// BlockUser выставляет статус BLOCKED по имени пользователя.
func (d *Database) BlockUser(username string) error {
	return d.db.Model(&models.User{}).
		Where("username = ?", username).
		Update("status", models.StatusBlocked).Error
}
