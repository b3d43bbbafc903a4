package checkout

import (
	"github.com/gin-gonic/gin"
)

// SetupCheckoutRoutes registers checkout behind optional auth. Anonymous callers are
// rejected by the service with AuthRequired.
func SetupCheckoutRoutes(rg *gin.RouterGroup, controller *Controller, optional gin.HandlerFunc) {
	rg.POST("/checkout", optional, controller.Checkout) // POST /api/v1/checkout
}
