package history

import (
	"travelhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupHistoryRoutes(rg *gin.RouterGroup, controller *Controller, guards middleware.Guards) {
	rg.GET("/bookings", guards.Auth, controller.ListBookings)
}
