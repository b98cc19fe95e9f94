package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oneteam-dev/aichat/internal/handlers"
	"github.com/oneteam-dev/aichat/internal/metrics"
	"github.com/oneteam-dev/aichat/internal/middleware"
	"github.com/oneteam-dev/aichat/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	blacklist middleware.TokenBlacklist,
	principals middleware.PrincipalStore,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	roomH *handlers.RoomHandler,
	wsH *handlers.WebSocketHandler,
) {
	r.Use(metrics.HTTPMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", middleware.LoginRateLimit(), authH.Login)
		authGroup.POST("/logout", authH.Logout)
	}

	// API endpoints
	api := r.Group("/api")
	{
		api.POST("/users/signup", authH.Signup)

		authed := api.Group("", middleware.AuthMiddleware(jwtMgr, blacklist))
		{
			authed.GET("/users/:username", userH.GetProfile)
			authed.DELETE("/users/withdraw", userH.Withdraw)

			authed.POST("/chat/room", roomH.CreateRoom)
			authed.GET("/chat/rooms", roomH.GetMyRooms)
			authed.GET("/chat/room/:roomId/messages", roomH.GetRoomMessages)
			authed.DELETE("/chat/room/:roomId", roomH.DeleteRoom)
		}
	}

	// WebSocket: /ws/info открыт, сам канал за шлюзом
	r.GET("/ws/info", wsH.Info)
	r.GET("/ws", middleware.WSGateMiddleware(jwtMgr, blacklist, principals), wsH.HandleWebSocket)
}
