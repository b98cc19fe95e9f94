package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oneteam-dev/aichat/internal/models"
	"github.com/oneteam-dev/aichat/pkg/auth"
)

const (
	UserIDKey    = "userID"
	UsernameKey  = "username"
	PrincipalKey = "principal"
)

// TokenBlacklist отвечает на вопрос, был ли токен отозван при выходе.
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// PrincipalStore выдаёт актуальное состояние учётной записи.
type PrincipalStore interface {
	GetUser(id uuid.UUID) (*models.User, error)
}

// AuthMiddleware проверяет JWT токен для REST-запросов.
func AuthMiddleware(jwtManager *auth.JWTManager, blacklist TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			c.Abort()
			return
		}

		if !verifyToken(c, jwtManager, blacklist, token) {
			return
		}
		c.Next()
	}
}

// WSGateMiddleware ставит одноразовый шлюз на рукопожатии WebSocket: токен
// берётся из query-параметра или заголовка, а учётная запись сверяется
// с базой. После апгрейда соединение больше не перепроверяется.
func WSGateMiddleware(jwtManager *auth.JWTManager, blacklist TokenBlacklist, store PrincipalStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		if !verifyToken(c, jwtManager, blacklist, token) {
			return
		}

		// токен мог пережить смену статуса, поэтому статус берём из базы
		userID := c.MustGet(UserIDKey).(uuid.UUID)
		user, err := store.GetUser(userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
			c.Abort()
			return
		}
		if user.Status != models.StatusActive {
			c.JSON(http.StatusForbidden, gin.H{"error": user.LoginRejection().Error()})
			c.Abort()
			return
		}

		c.Set(PrincipalKey, user)
		c.Next()
	}
}

func verifyToken(c *gin.Context, jwtManager *auth.JWTManager, blacklist TokenBlacklist, token string) bool {
	exists, err := blacklist.IsBlacklisted(c.Request.Context(), token)
	if err != nil || exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is blacklisted"})
		c.Abort()
		return false
	}

	claims, err := jwtManager.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		c.Abort()
		return false
	}

	c.Set(UserIDKey, userID)
	c.Set(UsernameKey, claims.Username)
	return true
}
