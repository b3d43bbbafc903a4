package receipts

import (
	"travelhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupReceiptRoutes(rg *gin.RouterGroup, controller *Controller, guards middleware.Guards) {
	docs := rg.Group("/bookings/:id")
	docs.Use(guards.Auth)
	{
		docs.GET("/ticket", controller.GetTicket)   // GET /api/v1/bookings/:id/ticket
		docs.GET("/receipt", controller.GetReceipt) // GET /api/v1/bookings/:id/receipt
	}
}
