package catalog

import (
	"net/http"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// List godoc
// @Summary      List catalog items of one vertical
// @Tags         catalog
// @Produce      json
// @Param        kind         path   string  true   "flights, trains, buses, movies or events"
// @Param        origin       query  string  false  "Origin city"
// @Param        destination  query  string  false  "Destination city"
// @Param        from         query  string  false  "Earliest departure (YYYY-MM-DD)"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /catalog/{kind} [get]
func (c *Controller) List(ctx *gin.Context) {
	kind, ok := ParseKind(ctx.Param("kind"))
	if !ok {
		response.RespondError(ctx, apperrors.Validation("kind", "unknown catalog vertical"))
		return
	}

	var q ListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	items, err := c.service.List(ctx.Request.Context(), kind, q)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Items retrieved successfully", items)
}

func (c *Controller) Get(ctx *gin.Context) {
	kind, ok := ParseKind(ctx.Param("kind"))
	if !ok {
		response.RespondError(ctx, apperrors.Validation("kind", "unknown catalog vertical"))
		return
	}
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, apperrors.Validation("id", "must be a valid id"))
		return
	}

	item, err := c.service.Get(ctx.Request.Context(), kind, id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Item retrieved successfully", item)
}

func (c *Controller) CurrentEvent(ctx *gin.Context) {
	event, err := c.service.CurrentEvent(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Current event retrieved successfully", event)
}
