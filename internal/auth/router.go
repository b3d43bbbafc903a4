package auth

import (
	"travelhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(rg *gin.RouterGroup, controller *Controller, guards middleware.Guards) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", controller.Register) // POST /api/v1/auth/register
		auth.POST("/login", controller.Login)       // POST /api/v1/auth/login
		auth.POST("/refresh", controller.RefreshToken)

		protected := auth.Group("")
		protected.Use(guards.Auth)
		{
			protected.POST("/logout", controller.Logout)
			protected.PUT("/change-password", controller.ChangePassword)
			protected.GET("/me", controller.GetMe)
			protected.GET("/session/events", controller.SessionEvents)
		}
	}
}
