package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRoomName задаёт имя-заглушку новой комнаты. Меняется ровно один раз,
// когда приходит первое пользовательское сообщение.
const DefaultRoomName = "New Room"

type Room struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"size:128;not null"`
	CreatedAt time.Time

	// Связи
	Messages []Message `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

// HasPlaceholderName сообщает, что комната ещё не переименована первым сообщением.
func (r *Room) HasPlaceholderName() bool {
	return r.Name == DefaultRoomName
}
