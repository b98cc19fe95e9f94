package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/oneteam-dev/aichat/internal/middleware"
	"github.com/oneteam-dev/aichat/internal/models"
	ws "github.com/oneteam-dev/aichat/internal/websocket"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub      *ws.Hub
	pipeline *ChatPipeline
	upgrader websocket.Upgrader
}

// NewWebSocketHandler создает новый WebSocket handler
func NewWebSocketHandler(hub *ws.Hub, pipeline *ChatPipeline) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		pipeline: pipeline,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: проверять origin в prod
				return true
			},
		},
	}
}

// HandleWebSocket апгрейдит соединение после прохождения шлюза.
// Дальше канал живет на доверии к рукопожатию.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	principal, exists := c.Get(middleware.PrincipalKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	user := principal.(*models.User)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID, user.DisplayName())

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.pipeline)
}

// Info отдаёт клиентам параметры подключения, доступна без токена.
func (h *WebSocketHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket": true,
		"path":      "/ws",
	})
}
