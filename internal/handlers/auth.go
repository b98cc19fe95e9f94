package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/oneteam-dev/aichat/internal/database"
	"github.com/oneteam-dev/aichat/internal/guard"
	"github.com/oneteam-dev/aichat/internal/handlers/dto"
	"github.com/oneteam-dev/aichat/internal/metrics"
	"github.com/oneteam-dev/aichat/internal/models"
	"github.com/oneteam-dev/aichat/pkg/auth"
)

// UserStore описывает операции хранилища, нужные обработчику аутентификации.
type UserStore interface {
	FindUserByUsername(username string) (*models.User, error)
	SaveUser(user *models.User) error
	UserExists(column, value string) (bool, error)
	UpdateLastLogin(id uuid.UUID, at time.Time) error
}

// TokenRevoker помещает выданный токен в черный список при выходе.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

type AuthHandler struct {
	store      UserStore
	jwtManager *auth.JWTManager
	guard      *guard.Guard
	revoker    TokenRevoker
}

func NewAuthHandler(store UserStore, jwtMgr *auth.JWTManager, g *guard.Guard, revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{store: store, jwtManager: jwtMgr, guard: g, revoker: revoker}
}

// Signup регистрирует нового пользователя
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if taken, err := h.store.UserExists("username", req.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	} else if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}

	if taken, err := h.store.UserExists("email", req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	} else if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	// никнейм тоже уникален, но он необязателен
	if req.Nickname != "" {
		if taken, err := h.store.UserExists("nickname", req.Nickname); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		} else if taken {
			c.JSON(http.StatusConflict, gin.H{"error": "nickname already taken"})
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot hash password"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Nickname:     req.Nickname,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		CreatedAt:    time.Now(),
	}

	if err := h.store.SaveUser(user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user registered"})
}

// Login проверяет учетные данные, ведет журнал попыток и выдает JWT.
// Каждая попытка получает точную причину исхода.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ip := c.ClientIP()

	user, err := h.store.FindUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.guard.Record(req.Username, false, "login failed - unknown user", ip)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	// отказ по статусу не расходует окно блокировки
	if user.Status != models.StatusActive {
		rejection := user.LoginRejection()
		h.guard.Record(req.Username, false, "login failed - "+rejection.Error(), ip)
		c.JSON(http.StatusForbidden, gin.H{"error": rejection.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if lockErr := h.guard.OnPasswordMismatch(req.Username, ip); errors.Is(lockErr, guard.ErrAccountLocked) {
			metrics.LoginLockouts.Inc()
			c.JSON(http.StatusLocked, gin.H{"error": lockErr.Error()})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.guard.Record(req.Username, true, user.LoginSuccessReason(), ip)

	// в ответ уходит предыдущий вход, не текущий
	previousLogin := user.LastLogin
	if err := h.store.UpdateLastLogin(user.ID, time.Now()); err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("update last login failed")
	}

	token, err := h.jwtManager.Generate(user.ID.String(), user.Username, user.Nickname, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Username:    user.Username,
		Role:        string(user.Role),
		AccessToken: token,
		Message:     user.LoginSuccessReason(),
		LastLogin:   previousLogin,
	})
}

// Logout ставит токен в черный список до истечения его срока.
func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken, err := auth.ExtractTokenFromHeader(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.revoker.Revoke(c.Request.Context(), rawToken, time.Until(exp)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	c.Status(http.StatusOK)
}
