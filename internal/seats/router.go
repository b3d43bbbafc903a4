package seats

import (
	"travelhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller, guards middleware.Guards) {
	// optional auth lets a holder see their own held seats as selectable
	rg.GET("/inventory/:kind/:itemId", guards.Optional, controller.GetLayout) // GET /api/v1/inventory/events/:itemId

	seats := rg.Group("/seats")
	seats.Use(guards.Auth)
	{
		seats.POST("/hold", controller.HoldSeats)             // POST /api/v1/seats/hold
		seats.DELETE("/hold/:holdId", controller.ReleaseHold) // DELETE /api/v1/seats/hold/:holdId
	}
}
