package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/oneteam-dev/aichat/internal/ai"
	"github.com/oneteam-dev/aichat/internal/config"
	"github.com/oneteam-dev/aichat/internal/database"
	"github.com/oneteam-dev/aichat/internal/guard"
	"github.com/oneteam-dev/aichat/internal/handlers"
	"github.com/oneteam-dev/aichat/internal/logging"
	"github.com/oneteam-dev/aichat/internal/middleware"
	ws "github.com/oneteam-dev/aichat/internal/websocket"
	"github.com/oneteam-dev/aichat/pkg/auth"
)

type Server struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub
}

func NewServer() *Server {
	cfg := config.Load()
	logging.Setup(cfg.Env)

	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	blacklist := middleware.NewRedisBlacklist(rdb)

	hub := ws.NewHub()
	go hub.Run()

	aiClient := ai.NewClient(cfg.AIServerURL)
	pipeline := handlers.NewChatPipeline(dbConn, hub, aiClient)
	loginGuard := guard.New(dbConn)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, loginGuard, blacklist)
	userH := handlers.NewUserHandler(dbConn)
	roomH := handlers.NewRoomHandler(dbConn, hub)
	wsH := handlers.NewWebSocketHandler(hub, pipeline)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	APIEndpoints(router, jwtMgr, blacklist, dbConn, authH, userH, roomH, wsH)

	return &Server{
		Config:     cfg,
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
	}
}

func (s *Server) Run() {
	log.Info().Str("port", s.Config.Port).Msg("server starting")
	if err := s.Router.Run(":" + s.Config.Port); err != nil {
		log.Fatal().Err(err).Msg("server run error")
	}
}
