package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oneteam-dev/aichat/internal/database"
	"github.com/oneteam-dev/aichat/internal/handlers/dto"
	"github.com/oneteam-dev/aichat/internal/middleware"
	"github.com/oneteam-dev/aichat/internal/models"
	ws "github.com/oneteam-dev/aichat/internal/websocket"
)

// RoomStore описывает операции хранилища, нужные обработчику комнат.
type RoomStore interface {
	CreateRoom(room *models.Room) error
	GetRoom(id uuid.UUID) (*models.Room, error)
	GetOwnerRooms(ownerID uuid.UUID) ([]models.Room, error)
	GetRoomMessages(roomID uuid.UUID) ([]models.Message, error)
	DeleteRoom(id uuid.UUID) error
	GetUser(id uuid.UUID) (*models.User, error)
}

// RoomNotifier рассылает уведомления об изменениях комнат.
type RoomNotifier interface {
	SendRoomUpdate(update *ws.RoomUpdate)
}

type RoomHandler struct {
	store    RoomStore
	notifier RoomNotifier
}

func NewRoomHandler(store RoomStore, notifier RoomNotifier) *RoomHandler {
	return &RoomHandler{store: store, notifier: notifier}
}

// CreateRoom создает комнату. Без имени комната получает заглушку,
// которую позже заменит первое сообщение.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	// тело запроса необязательно
	var req dto.CreateRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	name := req.Name
	if name == "" {
		name = models.DefaultRoomName
	}

	room := &models.Room{
		Name:      name,
		OwnerID:   userID,
		CreatedAt: time.Now(),
	}

	if err := h.store.CreateRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, roomResponse(room))
}

// GetMyRooms получает список комнат пользователя, новые впереди.
func (h *RoomHandler) GetMyRooms(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	rooms, err := h.store.GetOwnerRooms(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rooms"})
		return
	}

	out := make([]dto.RoomResponse, len(rooms))
	for i := range rooms {
		out[i] = roomResponse(&rooms[i])
	}

	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// GetRoomMessages возвращает историю комнаты в порядке отправки.
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.store.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if room.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your room"})
		return
	}

	messages, err := h.store.GetRoomMessages(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	out := make([]dto.MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = dto.MessageResponse{
			Sender:    m.Sender,
			RoomID:    m.RoomID.String(),
			Message:   m.Body,
			CreatedAt: m.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// DeleteRoom удаляет комнату вместе с сообщениями. Разрешено только
// владельцу с действующим ACTIVE-статусом: токен мог пережить
// блокировку аккаунта.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.store.GetRoom(roomID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete room"})
		return
	}

	if room.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only room owner can delete room"})
		return
	}

	user, err := h.store.GetUser(userID)
	if err != nil || user.Status != models.StatusActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is not active"})
		return
	}

	if err := h.store.DeleteRoom(roomID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete room"})
		return
	}

	h.notifier.SendRoomUpdate(&ws.RoomUpdate{
		Event:  ws.EventRoomDeleted,
		RoomID: roomID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "room deleted"})
}

func roomResponse(room *models.Room) dto.RoomResponse {
	return dto.RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		OwnerID:   room.OwnerID,
		CreatedAt: room.CreatedAt,
	}
}
