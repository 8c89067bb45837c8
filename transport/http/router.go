package http

import (
	"github.com/gin-gonic/gin"

	"github.com/securechat/server/ports"
	"github.com/securechat/server/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, messageService *service.MessageService, tokenizer ports.Tokenizer) *gin.Engine {
	router := gin.Default()

	// Create handlers
	authHandlers := NewAuthHandlers(authService)
	messageHandlers := NewMessageHandlers(messageService)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandlers.Register)
		auth.POST("/login", authHandlers.Login)
		auth.POST("/verify-2fa", authHandlers.Verify2FA)
	}

	// 2FA management requires an authenticated session
	twofa := router.Group("/auth/2fa")
	twofa.Use(AuthMiddleware(tokenizer))
	{
		twofa.POST("/setup", authHandlers.Setup2FA)
		twofa.POST("/confirm", authHandlers.Confirm2FA)
		twofa.POST("/disable", authHandlers.Disable2FA)
	}

	// Protected API routes
	api := router.Group("/")
	api.Use(AuthMiddleware(tokenizer))
	{
		api.GET("/users/:username/public-key", authHandlers.PublicKey)

		api.POST("/messages/send", messageHandlers.Send)
		api.GET("/messages/inbox", messageHandlers.Inbox)
		api.GET("/messages/:id", messageHandlers.Get)
		api.PUT("/messages/:id/read", messageHandlers.MarkRead)
		api.DELETE("/messages/:id", messageHandlers.Delete)
	}

	return router
}
