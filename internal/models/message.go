package models

import (
	"time"

	"github.com/google/uuid"
)

// AISender помечает сообщения, сгенерированные AI.
const AISender = "AI"

// Message неизменяемо после создания: правок и удалений отдельных
// сообщений нет, история комнаты строго упорядочена по времени вставки.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Sender    string    `gorm:"size:50;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// FromAI сообщает, что сообщение создано гейтвеем, а не человеком.
func (m *Message) FromAI() bool {
	return m.Sender == AISender
}
