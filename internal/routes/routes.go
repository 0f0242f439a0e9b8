package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aedentek-pro/lms004/internal/config"
	"github.com/aedentek-pro/lms004/internal/handlers"
	"github.com/aedentek-pro/lms004/internal/middleware"
	"github.com/aedentek-pro/lms004/internal/services"
	"github.com/aedentek-pro/lms004/internal/store"
	chatws "github.com/aedentek-pro/lms004/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, st store.EntityStore) {
	notifier := services.NewNotifier(st)
	sessionService := services.NewSessionService(st, st, notifier)
	liveSessionService := services.NewLiveSessionService(st, st, notifier)
	chatService := services.NewChatService(st, st)

	authHandler := handlers.NewAuthHandler(st, cfg.JWTSecret)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	liveSessionHandler := handlers.NewLiveSessionHandler(liveSessionService)
	notificationHandler := handlers.NewNotificationHandler(st)
	chatHub := chatws.NewHub()
	go chatHub.Run()
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	users := authProtected.Group("/users")
	users.Get("", authHandler.ListUsers)

	sessions := authProtected.Group("/sessions")
	sessions.Post("", sessionHandler.CreateSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Post("/:id/accept", sessionHandler.AcceptSession)
	sessions.Post("/:id/reject", sessionHandler.RejectSession)
	sessions.Post("/:id/cancel", sessionHandler.CancelSession)
	sessions.Post("/:id/complete", sessionHandler.CompleteSession)

	live := authProtected.Group("/live")
	live.Post("", liveSessionHandler.CreateLiveSession)
	live.Get("", liveSessionHandler.ListLiveSessions)
	live.Delete("/:id", liveSessionHandler.DeleteLiveSession)
	live.Post("/:id/register", liveSessionHandler.Register)
	live.Put("/:id/recording", liveSessionHandler.AttachRecording)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Put("/:id/read", notificationHandler.MarkRead)

	chat := authProtected.Group("/chat")
	chat.Get("/messages", chatHandler.ListMessages)
	chat.Post("/messages", chatHandler.SendMessage)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
