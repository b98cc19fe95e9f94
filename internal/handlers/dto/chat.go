package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateRoomRequest struct {
	Name string `json:"name" binding:"max=128"`
}

type RoomResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageResponse отдаёт сообщение в формате кадра чата.
type MessageResponse struct {
	Sender    string    `json:"sender"`
	RoomID    string    `json:"roomId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
