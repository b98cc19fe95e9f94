package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oneteam-dev/aichat/internal/database"
	"github.com/oneteam-dev/aichat/internal/middleware"
	"github.com/oneteam-dev/aichat/internal/models"
)

// ProfileStore описывает операции хранилища для профилей.
type ProfileStore interface {
	GetUser(id uuid.UUID) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	UpdateUser(user *models.User) error
}

type UserHandler struct {
	store ProfileStore
}

func NewUserHandler(store ProfileStore) *UserHandler {
	return &UserHandler{store: store}
}

// GetProfile возвращает публичный профиль по имени пользователя.
func (h *UserHandler) GetProfile(c *gin.Context) {
	username := c.Param("username")

	user, err := h.store.FindUserByUsername(username)
	if err != nil || user.Status != models.StatusActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":  user.Username,
		"nickname":  user.DisplayName(),
		"role":      user.Role,
		"createdAt": user.CreatedAt,
		"lastLogin": user.LastLogin,
	})
}

// Withdraw выполняет мягкое удаление собственного аккаунта: запись остается
// для истории сообщений, но вход становится невозможен.
func (h *UserHandler) Withdraw(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	user, err := h.store.GetUser(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdraw failed"})
		return
	}

	user.MarkDeleted()
	if err := h.store.UpdateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdraw failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
