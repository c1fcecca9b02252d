package routes

import (
	"qaforum_backend/internal/handlers"
	"qaforum_backend/internal/logger"
	"qaforum_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	guards *handlers.RouteGuards,
	wsHandler *ws.Handler,
) {
	appHandlers.HealthHandler.RegisterRoutes(ginRouter)

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.UserHandler.RegisterRoutes(api, guards)
		appHandlers.QuestionHandler.RegisterRoutes(api, guards)
		appHandlers.AnswerHandler.RegisterRoutes(api, guards)
		appHandlers.NotificationHandler.RegisterRoutes(api, guards)
	}

	// Браузер не умеет ставить заголовки на WebSocket, поэтому токен можно передать в ?token=
	wsGroup := ginRouter.Group("/ws")
	wsGroup.Use(guards.Auth)
	{
		wsGroup.GET("", wsHandler.ServeWS)
	}
	logger.Info("Routes registered", "api", "/api/v1", "ws", "/ws")
}
