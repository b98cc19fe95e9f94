package database

import (
	"github.com/google/uuid"
	"github.com/oneteam-dev/aichat/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateRoom(room *models.Room) error {
	return d.db.Create(room).Error
}

func (d *Database) GetRoom(id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := d.db.First(&room, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &room, nil
}

// GetOwnerRooms возвращает комнаты владельца, новые первыми.
func (d *Database) GetOwnerRooms(ownerID uuid.UUID) ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// RenameRoomFromPlaceholder выполняет условное переименование: срабатывает только
// пока имя равно заглушке, поэтому гонка двух первых сообщений даёт
// ровно одного победителя. Возвращает true, если переименование наше.
func (d *Database) RenameRoomFromPlaceholder(id uuid.UUID, name string) (bool, error) {
	res := d.db.Model(&models.Room{}).
		Where("id = ? AND name = ?", id, models.DefaultRoomName).
		Update("name", name)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteRoom удаляет комнату вместе со всеми её сообщениями.
func (d *Database) DeleteRoom(id uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "room_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Room{}, "id = ?", id).Error
	})
}
