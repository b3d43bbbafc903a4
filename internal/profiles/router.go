package profiles

import (
	"travelhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupProfileRoutes(rg *gin.RouterGroup, controller *Controller, guards middleware.Guards) {
	rg.GET("/premium/plans", controller.ListPremiumPlans) // GET /api/v1/premium/plans

	profile := rg.Group("/profile")
	profile.Use(guards.Auth)
	{
		profile.GET("", controller.GetMyProfile)    // GET /api/v1/profile
		profile.PUT("", controller.UpdateMyProfile) // PUT /api/v1/profile
	}
}
