package models

import "time"

// LoginAttempt хранит запись журнала попыток входа. Журнал append-only:
// записи не обновляются и не удаляются. Username хранится строкой,
// а не внешним ключом, чтобы запись пережила удаление аккаунта.
type LoginAttempt struct {
	ID          uint      `gorm:"primaryKey"`
	Username    string    `gorm:"size:50;not null;index:idx_attempt_user_time,priority:1"`
	Success     bool      `gorm:"not null"`
	Reason      string    `gorm:"size:255;not null"`
	IPAddress   string    `gorm:"size:45;not null"`
	AttemptedAt time.Time `gorm:"not null;index:idx_attempt_user_time,priority:2"`
}
