package catalog

import (
	"github.com/gin-gonic/gin"
)

func SetupCatalogRoutes(rg *gin.RouterGroup, controller *Controller) {
	catalog := rg.Group("/catalog")
	{
		catalog.GET("/:kind", controller.List)    // GET /api/v1/catalog/flights?origin=&destination=&from=
		catalog.GET("/:kind/:id", controller.Get) // GET /api/v1/catalog/movies/:id
	}

	rg.GET("/events/current", controller.CurrentEvent)
}
