package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/worldsalon/portal/internal/config"
	"github.com/worldsalon/portal/internal/database"
	"github.com/worldsalon/portal/internal/handlers"
	"github.com/worldsalon/portal/internal/mailer"
	"github.com/worldsalon/portal/internal/services"
	ws "github.com/worldsalon/portal/internal/websocket"
	"github.com/worldsalon/portal/pkg/auth"
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
	Config *config.Config
	Log    zerolog.Logger
}

func NewServer() *Server {
	conf, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	var logger zerolog.Logger
	if conf.Debug {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	db := &database.Database{}
	if err := db.Connect(conf.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}

	redisOpts, err := redis.ParseURL(conf.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}

	jwtMgr := auth.NewJWTManager(conf.JWTSecret, conf.JWTTTL)

	var mail mailer.Mailer
	if conf.MailgunDomain != "" && conf.MailgunAPIKey != "" {
		mail = mailer.NewMailgun(conf.MailgunDomain, conf.MailgunAPIKey, conf.EmailFrom, logger)
	} else {
		mail = mailer.NewNoop(logger)
	}

	hub := ws.NewHub(logger)
	go hub.Run()

	notificationSvc := services.NewNotificationService(db, hub, mail, logger)
	messageSvc := services.NewMessageService(db, hub, notificationSvc, logger)
	eventSvc := services.NewEventService(db, notificationSvc, logger)

	authH := handlers.NewAuthHandler(db, jwtMgr, rdb)
	userH := handlers.NewUserHandler(db)
	messageH := handlers.NewMessageHandler(messageSvc)
	notificationH := handlers.NewNotificationHandler(notificationSvc)
	eventH := handlers.NewEventHandler(eventSvc)
	liveH := handlers.NewLiveEventHandler(db, hub, logger)
	wsH := handlers.NewWebSocketHandler(hub, liveH, logger)

	if !conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	APIEndpoints(router, jwtMgr, rdb, authH, userH, messageH, notificationH, eventH, wsH)

	return &Server{
		Router: router,
		DB:     db,
		Redis:  rdb,
		Hub:    hub,
		Config: conf,
		Log:    logger,
	}
}

func (s *Server) Run() {
	addr := fmt.Sprintf(":%d", s.Config.Port)
	s.Log.Info().Str("addr", addr).Msg("server starting")
	if err := s.Router.Run(addr); err != nil {
		s.Log.Fatal().Err(err).Msg("server run error")
	}
}
