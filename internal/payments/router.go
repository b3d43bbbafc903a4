package payments

import (
	"travelhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller, guards middleware.Guards) {
	payments := rg.Group("/payments")
	payments.Use(guards.Auth)
	{
		payments.POST("", controller.SubmitPayment) // POST /api/v1/payments
	}
}
