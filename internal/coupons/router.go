package coupons

import (
	"github.com/gin-gonic/gin"
)

func SetupCouponRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.POST("/coupons/apply", controller.ApplyCoupon) // POST /api/v1/coupons/apply
}
