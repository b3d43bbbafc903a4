package admin

import (
	"travelhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAdminRoutes(rg *gin.RouterGroup, controller Controller, guards middleware.Guards) {
	admin := rg.Group("/admin")
	admin.Use(guards.Auth, guards.Admin)

	admin.GET("/stats", controller.GetStats)

	users := admin.Group("/users")
	{
		users.GET("", controller.ListUsers)
		users.GET("/:id", controller.GetUser)
		users.PUT("/:id/role", controller.UpdateUserRole)
		users.DELETE("/:id", controller.DeleteUser)
	}

	payments := admin.Group("/payments")
	{
		payments.GET("", controller.ListPayments)
		payments.GET("/:id", controller.GetPayment)
		payments.POST("/:id/refund", controller.RefundPayment) // POST /api/v1/admin/payments/:id/refund
	}

	events := admin.Group("/events")
	{
		events.POST("", controller.CreateEvent)
		events.PUT("/:id", controller.UpdateEvent)
		events.DELETE("/:id", controller.DeleteEvent)
	}

	coupons := admin.Group("/coupons")
	{
		coupons.GET("", controller.ListCoupons)
		coupons.GET("/:id", controller.GetCoupon)
		coupons.POST("", controller.CreateCoupon)
		coupons.PUT("/:id", controller.UpdateCoupon)
		coupons.DELETE("/:id", controller.DeleteCoupon)
	}
}
