package database

import (
	"github.com/google/uuid"
	"github.com/oneteam-dev/aichat/internal/models"
)

func (d *Database) SaveMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

// GetRoomMessages возвращает историю комнаты в порядке создания.
func (d *Database) GetRoomMessages(roomID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
