package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/worldsalon/portal/internal/handlers"
	"github.com/worldsalon/portal/internal/middleware"
	"github.com/worldsalon/portal/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	messageH *handlers.MessageHandler,
	notificationH *handlers.NotificationHandler,
	eventH *handlers.EventHandler,
	wsH *handlers.WebSocketHandler,
) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", authH.Logout)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/users/me", userH.GetMe)
		api.PUT("/users/me", userH.UpdateMe)
		api.GET("/users/search", userH.SearchUsers)
		api.GET("/users/:id", userH.GetUser)

		api.GET("/messages/conversations", messageH.ListConversations)
		api.POST("/messages/conversations", messageH.CreateGroup)
		api.GET("/messages/conversations/:id/messages", messageH.GetConversationMessages)
		api.POST("/messages/send", messageH.SendMessage)

		api.GET("/notifications", notificationH.List)
		api.PUT("/notifications/read-all", notificationH.MarkAllRead)
		api.PUT("/notifications/:id/read", notificationH.MarkRead)
		api.DELETE("/notifications/:id", notificationH.Delete)

		api.GET("/events", eventH.List)
		api.POST("/events", eventH.Create)
		api.GET("/events/:id", eventH.Get)
		api.POST("/events/:id/rsvp", eventH.RSVP)
		api.POST("/events/:id/invite", eventH.Invite)
		api.POST("/events/:id/cancel", eventH.Cancel)
		api.POST("/events/:id/remind", eventH.SendReminders)
	}

	wsGroup := r.Group("/ws")
	wsGroup.Use(middleware.WSAuthMiddleware(jwtMgr, rdb))
	{
		wsGroup.GET("", wsH.HandleWebSocket)
	}
}
