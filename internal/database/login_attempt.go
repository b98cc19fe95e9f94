package database

import (
	"github.com/oneteam-dev/aichat/internal/models"
)

func (d *Database) RecordLoginAttempt(attempt *models.LoginAttempt) error {
	return d.db.Create(attempt).Error
}

// RecentLoginAttempts возвращает последние limit попыток по username,
// самые свежие первыми.
func (d *Database) RecentLoginAttempts(username string, limit int) ([]models.LoginAttempt, error) {
	var attempts []models.LoginAttempt
	err := d.db.
		Where("username = ?", username).
		Order("attempted_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
